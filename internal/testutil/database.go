// Package testutil provides shared test fixtures for the spice-insights packages.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/storage"
)

// TestDB is a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// Seed saves transactions or fails the test.
func (db *TestDB) Seed(transactions ...model.Transaction) {
	db.t.Helper()
	if _, err := db.Storage.SaveTransactions(context.Background(), transactions); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
}

// SeedBalance saves a ledger balance or fails the test.
func (db *TestDB) SeedBalance(accountID string, amount float64, asOf time.Time) {
	db.t.Helper()
	balance := model.Balance{AccountID: accountID, Amount: amount, AsOf: asOf, Source: "test"}
	if err := db.Storage.SaveBalance(context.Background(), &balance); err != nil {
		db.t.Fatalf("failed to seed balance: %v", err)
	}
}

// Spend builds a dated outflow for account.
func Spend(account, id, merchant string, amount float64, when time.Time) model.Transaction {
	return model.Transaction{
		ID:           id,
		AccountID:    account,
		MerchantName: merchant,
		Amount:       model.NewAmount(amount),
		Timestamp:    model.NewTimestamp(when),
	}
}
