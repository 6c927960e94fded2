package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-insights/internal/cli"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/config"
	"github.com/Veraticus/spice-insights/internal/plaid"
	"github.com/Veraticus/spice-insights/internal/service"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync transactions and balances from Plaid",
		Long: `Fetch recent transactions and current balances from Plaid.
Credentials come from the plaid section of the config file or from
PLAID_CLIENT_ID, PLAID_SECRET, PLAID_ACCESS_TOKEN and PLAID_ENV.`,
		RunE: runSync,
	}

	cmd.Flags().Int("since", 90, "number of days of history to fetch")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	since, _ := cmd.Flags().GetInt("since")
	if since <= 0 {
		return fmt.Errorf("%w: --since must be positive", common.ErrInvalidConfig)
	}

	cfg, err := config.LoadPlaidConfig()
	if err != nil {
		return common.NewUserError("Plaid is not configured", err)
	}
	client, err := plaid.NewClient(cfg)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	end := time.Now()
	r := service.DateRange{Start: end.AddDate(0, 0, -since), End: end}

	common.LogInfo("Syncing from Plaid", common.Fields{
		"environment": cfg.Environment,
		"start":       r.Start.Format("2006-01-02"),
	})

	result, err := service.NewIngestor(store).SyncPlaid(cmd.Context(), client, r)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Synced %d accounts: %d new transactions (%d already stored), %d balances.",
		len(result.Accounts), result.Inserted, result.Duplicates(), result.Balances)))
	return nil
}
