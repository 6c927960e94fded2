package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-insights/internal/model"
)

// SaveTransactions saves transactions, skipping any whose hash is already stored.
// It returns the number of rows inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	if skipped := len(transactions) - inserted; skipped > 0 {
		slog.Debug("Skipped duplicate transactions", "skipped", skipped)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, account_id, merchant_name, channel, amount,
			timestamp, created_at, timestamp_text, created_at_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		result, execErr := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.AccountID,
			nullString(txn.MerchantName),
			nullString(txn.Channel),
			nullAmount(txn.Amount),
			nullTime(txn.Timestamp),
			nullTime(txn.CreatedAt),
			nullString(txn.Timestamp.Text()),
			nullString(txn.CreatedAt.Text()),
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
		}

		if n, rowsErr := result.RowsAffected(); rowsErr == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

// RecentTransactions returns up to limit transactions, newest first by
// timestamp or, failing that, created_at. Undated transactions sort last.
// An empty accountID selects every account.
func (s *SQLiteStorage) RecentTransactions(ctx context.Context, accountID string, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return s.recentTransactions(ctx, s.db, accountID, limit)
}

func (s *SQLiteStorage) recentTransactions(ctx context.Context, q queryable, accountID string, limit int) ([]model.Transaction, error) {
	query := `
		SELECT id, hash, account_id, merchant_name, channel, amount,
			timestamp, created_at, timestamp_text, created_at_text
		FROM transactions
		WHERE (? = '' OR account_id = ?)
		ORDER BY COALESCE(timestamp, created_at) IS NULL, COALESCE(timestamp, created_at) DESC, id
		LIMIT ?
	`

	rows, err := q.QueryContext(ctx, query, accountID, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// TransactionsByAccount returns up to limit recent transactions for every account.
func (s *SQLiteStorage) TransactionsByAccount(ctx context.Context, limit int) (map[string][]model.Transaction, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	out := make(map[string][]model.Transaction, len(accounts))
	for _, account := range accounts {
		txns, err := s.recentTransactions(ctx, s.db, account, limit)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", account, err)
		}
		out[account] = txns
	}
	return out, nil
}

// ListAccounts returns the distinct account ids with stored transactions.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT account_id FROM transactions ORDER BY account_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// GetTransactionCount returns the total number of stored transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction count: %w", err)
	}

	return count, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn           model.Transaction
			merchant      sql.NullString
			channel       sql.NullString
			amount        sql.NullFloat64
			timestamp     sql.NullTime
			createdAt     sql.NullTime
			timestampText sql.NullString
			createdAtText sql.NullString
		)

		if err := rows.Scan(
			&txn.ID,
			&txn.Hash,
			&txn.AccountID,
			&merchant,
			&channel,
			&amount,
			&timestamp,
			&createdAt,
			&timestampText,
			&createdAtText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.MerchantName = merchant.String
		txn.Channel = channel.String
		if amount.Valid {
			txn.Amount = model.NewAmount(amount.Float64)
		}
		txn.Timestamp = storedTimestamp(timestampText, timestamp)
		txn.CreatedAt = storedTimestamp(createdAtText, createdAt)

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullAmount(a model.Amount) sql.NullFloat64 {
	return sql.NullFloat64{Float64: a.Value, Valid: a.Valid}
}

// storedTimestamp prefers the recorded text, which keeps the original zone.
// Rows written before schema version 4 only have the UTC column.
func storedTimestamp(text sql.NullString, utc sql.NullTime) model.Timestamp {
	if text.Valid {
		if ts := model.ParseTimestamp(text.String); ts.Valid {
			return ts
		}
	}
	if utc.Valid {
		return model.NewTimestamp(utc.Time.UTC())
	}
	return model.Timestamp{}
}

// nullTime stores times in UTC so that text ordering matches time ordering.
// Floating timestamps are ordered by their wall clock.
func nullTime(ts model.Timestamp) sql.NullTime {
	if !ts.Valid {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts.Time.UTC(), Valid: true}
}

// queryable is satisfied by *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var _ queryable = (*sql.DB)(nil)
