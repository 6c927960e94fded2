// Package service defines the persistence contract and the ingest workflows
// that feed transaction history and balances into it.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	RecentTransactions(ctx context.Context, accountID string, limit int) ([]model.Transaction, error)
	TransactionsByAccount(ctx context.Context, limit int) (map[string][]model.Transaction, error)
	ListAccounts(ctx context.Context) ([]string, error)
	GetTransactionCount(ctx context.Context) (int, error)

	// Balance operations
	SaveBalance(ctx context.Context, balance *model.Balance) error
	LatestBalance(ctx context.Context, accountID string) (*model.Balance, error)
	LatestBalances(ctx context.Context) ([]model.Balance, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IngestResult summarizes one import or sync.
type IngestResult struct {
	Accounts []string
	Received int
	Inserted int
	Balances int
}

// Duplicates is the number of received transactions that were already stored.
func (r IngestResult) Duplicates() int {
	return r.Received - r.Inserted
}
