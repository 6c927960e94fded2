package main

import (
	"fmt"

	"github.com/Veraticus/spice-insights/internal/cli"
	"github.com/Veraticus/spice-insights/internal/config"
	"github.com/Veraticus/spice-insights/internal/insights"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analysisRun is the state every analysis command starts from.
type analysisRun struct {
	engine       *insights.Engine
	settings     config.Analytics
	transactions []model.Transaction
}

func prepareAnalysis(cmd *cobra.Command) (*analysisRun, error) {
	settings, err := config.LoadAnalytics(viper.GetViper())
	if err != nil {
		return nil, err
	}
	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	txns, err := loadTransactions(cmd, settings)
	if err != nil {
		return nil, err
	}
	return &analysisRun{engine: engine, settings: settings, transactions: txns}, nil
}

func addDaysFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().Int("days", config.DefaultDays, usage)
}

func addBalanceFlag(cmd *cobra.Command) {
	cmd.Flags().Float64("balance", 0, "current balance (default: latest stored balance)")
}

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Run every analysis over recent transactions",
		Long: `Combine spending trends, anomalies, a cash flow forecast, and an
overdraft risk assessment into one report.

Examples:
  spice-insights insights --days 30
  spice-insights insights --account checking --balance 2400 --format json
  spice-insights insights --input batch.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlag(cmd, "analytics.days", "days")
			bindFlag(cmd, "analytics.balance", "balance")

			run, err := prepareAnalysis(cmd)
			if err != nil {
				return fail(cmd, err)
			}
			balance, err := resolveBalance(cmd, run.settings)
			if err != nil {
				return fail(cmd, err)
			}

			result, err := run.engine.GetTransactionInsights(run.transactions, run.settings.Days, balance)
			if err != nil {
				return fail(cmd, err)
			}
			return emit(cmd, insights.InsightsEnvelope(result), func(r *cli.Renderer) error {
				return r.Insights(result)
			})
		},
	}
	addAnalyticsFlags(cmd)
	addDaysFlag(cmd, "trailing window for spending trends and forecast horizon")
	addBalanceFlag(cmd)
	return cmd
}

func spendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spending",
		Short: "Summarize spending over a trailing window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlag(cmd, "analytics.days", "days")

			run, err := prepareAnalysis(cmd)
			if err != nil {
				return fail(cmd, err)
			}
			result, err := run.engine.Analyzer().AnalyzeSpendingTrends(run.transactions, run.settings.Days)
			if err != nil {
				return fail(cmd, err)
			}
			return emit(cmd, insights.AnalysisEnvelope(result), func(r *cli.Renderer) error {
				return r.Spending(result)
			})
		},
	}
	addAnalyticsFlags(cmd)
	addDaysFlag(cmd, "trailing window in days")
	return cmd
}

func anomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Flag transactions far from the average amount",
		Long: `Flag transactions whose amount is at least --threshold standard
deviations from the batch mean, most unusual first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlag(cmd, "analytics.threshold", "threshold")

			run, err := prepareAnalysis(cmd)
			if err != nil {
				return fail(cmd, err)
			}
			result, err := run.engine.Analyzer().DetectAnomalies(run.transactions, run.settings.Threshold)
			if err != nil {
				return fail(cmd, err)
			}
			return emit(cmd, insights.AnomaliesEnvelope(result), func(r *cli.Renderer) error {
				return r.Anomalies(result)
			})
		},
	}
	addAnalyticsFlags(cmd)
	cmd.Flags().Float64("threshold", 2.0, "z-score threshold in standard deviations")
	return cmd
}

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project the balance forward from daily spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlag(cmd, "analytics.days", "days")
			bindFlag(cmd, "analytics.balance", "balance")

			run, err := prepareAnalysis(cmd)
			if err != nil {
				return fail(cmd, err)
			}
			balance, err := resolveBalance(cmd, run.settings)
			if err != nil {
				return fail(cmd, err)
			}
			result, err := run.engine.Forecaster().ForecastBalance(run.transactions, balance, run.settings.Days)
			if err != nil {
				return fail(cmd, err)
			}
			return emit(cmd, insights.ForecastEnvelope(result), func(r *cli.Renderer) error {
				return r.Forecast(result)
			})
		},
	}
	addAnalyticsFlags(cmd)
	addDaysFlag(cmd, "forecast horizon in days")
	addBalanceFlag(cmd)
	return cmd
}

func riskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Estimate how soon the balance runs out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlag(cmd, "analytics.balance", "balance")

			run, err := prepareAnalysis(cmd)
			if err != nil {
				return fail(cmd, err)
			}
			balance, err := resolveBalance(cmd, run.settings)
			if err != nil {
				return fail(cmd, err)
			}
			result := run.engine.Forecaster().PredictOverdraftRisk(run.transactions, balance)
			return emit(cmd, insights.RiskEnvelope(result), func(r *cli.Renderer) error {
				return r.Risk(result)
			})
		},
	}
	addAnalyticsFlags(cmd)
	addBalanceFlag(cmd)
	return cmd
}

func segmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Assign a value tier and behavior to each account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadAnalytics(viper.GetViper())
			if err != nil {
				return fail(cmd, err)
			}
			engine, err := newEngine()
			if err != nil {
				return fail(cmd, err)
			}
			accounts, err := loadAccounts(cmd, settings)
			if err != nil {
				return fail(cmd, err)
			}

			result := engine.Segmenter().SegmentAccounts(accounts)
			return emit(cmd, insights.SegmentsEnvelope(result), func(r *cli.Renderer) error {
				return r.Segments(result)
			})
		},
	}
	addAnalyticsFlags(cmd)
	return cmd
}

// unassignedAccount groups input records that carry no account id.
const unassignedAccount = "unassigned"

// loadAccounts groups the batch by account, from --input or the database.
func loadAccounts(cmd *cobra.Command, settings config.Analytics) (map[string][]model.Transaction, error) {
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		txns, err := readBatch(cmd, input)
		if err != nil {
			return nil, err
		}
		return groupByAccount(txns, settings.Account), nil
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if settings.Account != "" {
		txns, err := store.RecentTransactions(cmd.Context(), settings.Account, settings.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}
		return map[string][]model.Transaction{settings.Account: txns}, nil
	}

	accounts, err := store.TransactionsByAccount(cmd.Context(), settings.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return accounts, nil
}

func groupByAccount(txns []model.Transaction, only string) map[string][]model.Transaction {
	out := make(map[string][]model.Transaction)
	for _, txn := range txns {
		if inAccount(txn, only) {
			out[accountOf(txn)] = append(out[accountOf(txn)], txn)
		}
	}
	return out
}

// filterAccount keeps the transactions of one account; "" keeps all.
func filterAccount(txns []model.Transaction, only string) []model.Transaction {
	if only == "" {
		return txns
	}
	out := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if inAccount(txn, only) {
			out = append(out, txn)
		}
	}
	return out
}

func inAccount(txn model.Transaction, only string) bool {
	return only == "" || accountOf(txn) == only
}

func accountOf(txn model.Transaction) string {
	if txn.AccountID == "" {
		return unassignedAccount
	}
	return txn.AccountID
}
