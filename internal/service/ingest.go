package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/ofx"
	"github.com/Veraticus/spice-insights/internal/plaid"
)

// Ingestor writes imported transactions and balances to storage.
type Ingestor struct {
	store  Storage
	logger *slog.Logger
}

// NewIngestor creates an ingestor over store.
func NewIngestor(store Storage) *Ingestor {
	return &Ingestor{
		store:  store,
		logger: slog.Default().With("component", "ingest"),
	}
}

// ImportStatement stores a parsed OFX statement. accountOverride, when set,
// replaces the account id reported by the file.
func (i *Ingestor) ImportStatement(ctx context.Context, statement *ofx.Statement, accountOverride string) (IngestResult, error) {
	if statement == nil {
		return IngestResult{}, fmt.Errorf("statement cannot be nil")
	}

	transactions := statement.Transactions
	balances := statement.Balances
	if accountOverride != "" {
		transactions = make([]model.Transaction, len(statement.Transactions))
		for j, txn := range statement.Transactions {
			txn.AccountID = accountOverride
			txn.Hash = txn.GenerateHash()
			transactions[j] = txn
		}
		balances = make([]model.Balance, len(statement.Balances))
		for j, b := range statement.Balances {
			b.AccountID = accountOverride
			balances[j] = b
		}
	}

	return i.save(ctx, transactions, balances)
}

// SyncPlaid fetches transactions in r and current balances from fetcher and stores them.
func (i *Ingestor) SyncPlaid(ctx context.Context, fetcher plaid.Feed, r DateRange) (IngestResult, error) {
	transactions, err := fetcher.GetTransactions(ctx, r.Start, r.End)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	balances, err := fetcher.GetBalances(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to fetch balances: %w", err)
	}

	return i.save(ctx, transactions, balances)
}

func (i *Ingestor) save(ctx context.Context, transactions []model.Transaction, balances []model.Balance) (IngestResult, error) {
	result := IngestResult{Received: len(transactions)}

	accounts := make(map[string]bool)
	if len(transactions) > 0 {
		inserted, err := i.store.SaveTransactions(ctx, transactions)
		if err != nil {
			return IngestResult{}, fmt.Errorf("failed to save transactions: %w", err)
		}
		result.Inserted = inserted
		for _, txn := range transactions {
			accounts[txn.AccountID] = true
		}
	}

	for j := range balances {
		if err := i.store.SaveBalance(ctx, &balances[j]); err != nil {
			return IngestResult{}, fmt.Errorf("failed to save balance: %w", err)
		}
		result.Balances++
		accounts[balances[j].AccountID] = true
	}

	for account := range accounts {
		result.Accounts = append(result.Accounts, account)
	}
	sort.Strings(result.Accounts)

	i.logger.Info("Stored transactions",
		"received", result.Received,
		"inserted", result.Inserted,
		"balances", result.Balances,
		"accounts", len(result.Accounts))

	return result, nil
}

// StoredBalance returns the latest stored balance for accountID, or the sum
// over every account when accountID is empty. The boolean is false when no
// balance has been recorded.
func StoredBalance(ctx context.Context, store Storage, accountID string) (float64, bool, error) {
	if accountID != "" {
		balance, err := store.LatestBalance(ctx, accountID)
		if errors.Is(err, common.ErrNotFound) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		return balance.Amount, true, nil
	}

	balances, err := store.LatestBalances(ctx)
	if err != nil {
		return 0, false, err
	}
	if len(balances) == 0 {
		return 0, false, nil
	}

	total := 0.0
	for _, b := range balances {
		total += b.Amount
	}
	return total, true, nil
}
