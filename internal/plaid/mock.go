package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
)

// MockClient is a scripted Feed for tests.
type MockClient struct {
	GetTransactionsFn func(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccountsFn     func(ctx context.Context) ([]string, error)
	GetBalancesFn     func(ctx context.Context) ([]model.Balance, error)

	GetTransactionsCalls []GetTransactionsCall
	GetAccountsCalls     int
	GetBalancesCalls     int
}

// GetTransactionsCall records the parameters of a GetTransactions call.
type GetTransactionsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{
		GetTransactionsCalls: []GetTransactionsCall{},
	}
}

// GetTransactions implements Feed.
func (m *MockClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.GetTransactionsCalls = append(m.GetTransactionsCalls, GetTransactionsCall{
		StartDate: startDate,
		EndDate:   endDate,
	})

	if m.GetTransactionsFn != nil {
		return m.GetTransactionsFn(ctx, startDate, endDate)
	}
	return []model.Transaction{}, nil
}

// GetAccounts implements Feed.
func (m *MockClient) GetAccounts(ctx context.Context) ([]string, error) {
	m.GetAccountsCalls++

	if m.GetAccountsFn != nil {
		return m.GetAccountsFn(ctx)
	}
	return []string{}, nil
}

// GetBalances implements Feed.
func (m *MockClient) GetBalances(ctx context.Context) ([]model.Balance, error) {
	m.GetBalancesCalls++

	if m.GetBalancesFn != nil {
		return m.GetBalancesFn(ctx)
	}
	return []model.Balance{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.GetTransactionsCalls = []GetTransactionsCall{}
	m.GetAccountsCalls = 0
	m.GetBalancesCalls = 0
}

var _ Feed = (*MockClient)(nil)
