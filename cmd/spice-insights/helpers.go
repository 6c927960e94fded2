package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/spice-insights/internal/cli"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/config"
	"github.com/Veraticus/spice-insights/internal/insights"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/service"
	"github.com/Veraticus/spice-insights/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// errInvalidBody is returned for request bodies that are not {"transactions": [...]}.
var errInvalidBody = errors.New("invalid transactions body")

var envKeyReplacer = strings.NewReplacer(".", "_")

// openStorage opens and migrates the configured database.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("Could not open the database at "+dbPath, err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// newEngine builds the insight engine with configured keyword extensions.
func newEngine() (*insights.Engine, error) {
	table, err := config.LoadKeywordTable(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return insights.NewEngine(insights.WithKeywordTable(table)), nil
}

// decodeBatch reads a {"transactions": [...]} body.
func decodeBatch(r io.Reader) ([]model.Transaction, error) {
	var body struct {
		Transactions *[]model.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if body.Transactions == nil {
		return nil, fmt.Errorf("%w: missing \"transactions\"", errInvalidBody)
	}
	return *body.Transactions, nil
}

// readBatch decodes a body from path, or stdin when path is "-".
func readBatch(cmd *cobra.Command, path string) ([]model.Transaction, error) {
	if path == "-" {
		return decodeBatch(cmd.InOrStdin())
	}
	f, err := os.Open(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return decodeBatch(f)
}

// loadTransactions returns the batch to analyze: the --input body when given,
// otherwise the most recent stored transactions. Both honor --account.
func loadTransactions(cmd *cobra.Command, a config.Analytics) ([]model.Transaction, error) {
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		txns, err := readBatch(cmd, input)
		if err != nil {
			return nil, err
		}
		return filterAccount(txns, a.Account), nil
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	txns, err := store.RecentTransactions(cmd.Context(), a.Account, a.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	common.LogDebug("Loaded transactions", common.Fields{"count": len(txns), "account": a.Account, "limit": a.Limit})
	return txns, nil
}

// resolveBalance returns the explicit --balance, else the latest stored balance.
func resolveBalance(cmd *cobra.Command, a config.Analytics) (float64, error) {
	if a.HasBalance {
		return a.Balance, nil
	}
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		return 0, nil
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	balance, ok, err := service.StoredBalance(cmd.Context(), store, a.Account)
	if err != nil {
		return 0, err
	}
	if !ok {
		slog.Warn("No stored balance; using 0. Pass --balance or import a statement", "account", a.Account)
	}
	return balance, nil
}

// addAnalyticsFlags registers the flags shared by the analysis commands.
func addAnalyticsFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", `read a {"transactions": [...]} body from a file ("-" for stdin) instead of the database`)
}

// bindFlag binds a command-local flag to a viper key for the duration of the run.
func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}

// emit writes the result as a JSON envelope or a rendered report.
func emit(cmd *cobra.Command, envelope insights.Envelope, render func(*cli.Renderer) error) error {
	switch format := viper.GetString("output.format"); format {
	case formatJSON:
		return envelope.Write(cmd.OutOrStdout())
	case formatTable, "":
		return render(cli.NewRenderer(cmd.OutOrStdout()))
	default:
		return fmt.Errorf("%w: output format %q", common.ErrInvalidConfig, format)
	}
}

// fail reports err in the JSON envelope when JSON output was requested.
func fail(cmd *cobra.Command, err error) error {
	if viper.GetString("output.format") == formatJSON {
		if writeErr := insights.ErrorEnvelope(err).Write(cmd.OutOrStdout()); writeErr != nil {
			slog.Warn("Failed to write error envelope", "error", writeErr)
		}
	}
	return err
}
