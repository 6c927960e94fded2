package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Feed is what the sync workflow pulls from a linked Plaid item.
type Feed interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccounts(ctx context.Context) ([]string, error)
	GetBalances(ctx context.Context) ([]model.Balance, error)
}
