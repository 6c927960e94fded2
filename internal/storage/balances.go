package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
)

// SaveBalance records a ledger balance, replacing any earlier value for the
// same account and as-of time.
func (s *SQLiteStorage) SaveBalance(ctx context.Context, balance *model.Balance) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBalance(balance); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (account_id, as_of, amount, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, as_of) DO UPDATE SET
			amount = excluded.amount,
			source = excluded.source,
			recorded_at = CURRENT_TIMESTAMP
	`, balance.AccountID, truncateToSecond(balance.AsOf), balance.Amount, balance.Source)
	if err != nil {
		return fmt.Errorf("failed to save balance for %s: %w", balance.AccountID, err)
	}
	return nil
}

// LatestBalance returns the most recent balance of an account, or
// common.ErrNotFound when none is stored.
func (s *SQLiteStorage) LatestBalance(ctx context.Context, accountID string) (*model.Balance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	var balance model.Balance
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, as_of, amount, source
		FROM balances
		WHERE account_id = ?
		ORDER BY as_of DESC
		LIMIT 1
	`, accountID).Scan(&balance.AccountID, &balance.AsOf, &balance.Amount, &balance.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("balance for %s: %w", accountID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", accountID, err)
	}

	balance.AsOf = balance.AsOf.UTC()
	return &balance, nil
}

// LatestBalances returns the most recent balance of every account, ordered by account.
func (s *SQLiteStorage) LatestBalances(ctx context.Context) ([]model.Balance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.account_id, b.as_of, b.amount, b.source
		FROM balances b
		JOIN (
			SELECT account_id, MAX(as_of) AS as_of FROM balances GROUP BY account_id
		) latest ON latest.account_id = b.account_id AND latest.as_of = b.as_of
		ORDER BY b.account_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var balances []model.Balance
	for rows.Next() {
		var b model.Balance
		if err := rows.Scan(&b.AccountID, &b.AsOf, &b.Amount, &b.Source); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		b.AsOf = b.AsOf.UTC()
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// truncateToSecond keys balances so re-imports of one statement collide.
func truncateToSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
