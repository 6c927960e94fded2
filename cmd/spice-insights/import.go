package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/spice-insights/internal/cli"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/ofx"
	"github.com/Veraticus/spice-insights/internal/service"
	"github.com/spf13/cobra"
)

var errNoFiles = errors.New("no files found to import")

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions and balances from OFX/QFX files",
		Long: `Import transactions and the ledger balance from OFX or QFX statements
exported from your bank. Records already stored are skipped.

Examples:
  # Import single file
  spice-insights import ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  spice-insights import ~/Downloads/*.qfx

  # File them under a friendlier account name
  spice-insights import --as checking ~/Downloads/ally_*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("as", "", "store records under this account id instead of the one in the file")
	cmd.Flags().BoolP("dry-run", "d", false, "Parse files without saving")

	return cmd
}

// expandFiles resolves glob patterns and plain paths to a list of files.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		pattern = filepath.Clean(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, errNoFiles
	}
	return files, nil
}

func parseStatement(cmd *cobra.Command, parser *ofx.Parser, path string) (*ofx.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(cmd.Context(), f)
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	accountOverride, _ := cmd.Flags().GetString("as")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	slog.Info("🌶️  Importing OFX files...", "file_count", len(files), "dry_run", dryRun)

	var ingestor *service.Ingestor
	if !dryRun {
		store, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		ingestor = service.NewIngestor(store)
	}

	parser := ofx.NewParser()
	progress := cli.NewProgress(cmd.ErrOrStderr(), len(files), "Importing statements...")

	var total service.IngestResult
	failed := 0
	for _, path := range files {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		statement, err := parseStatement(cmd, parser, path)
		progress.Add(1)
		if err != nil {
			failed++
			common.LogError(err, "Failed to parse OFX file", common.Fields{"file": filepath.Base(path)})
			continue
		}

		result := service.IngestResult{
			Accounts: statement.Accounts(),
			Received: len(statement.Transactions),
			Balances: len(statement.Balances),
		}
		if ingestor != nil {
			result, err = ingestor.ImportStatement(cmd.Context(), statement, accountOverride)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", filepath.Base(path), err)
			}
		}

		total.Received += result.Received
		total.Inserted += result.Inserted
		total.Balances += result.Balances
		total.Accounts = append(total.Accounts, result.Accounts...)
	}
	progress.Finish()

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: parsed %d transactions and %d balances; nothing saved.",
			total.Received, total.Balances)))
	} else {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions (%d already stored) and %d balances.",
			total.Inserted, total.Duplicates(), total.Balances)))
	}
	if failed > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d of %d files could not be parsed.", failed, len(files))))
	}
	return nil
}
