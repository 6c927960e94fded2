package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/categorize"
	"github.com/Veraticus/spice-insights/internal/forecast"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func spend(id, merchant string, amount float64, daysAgo int) model.Transaction {
	return model.Transaction{
		ID:           id,
		MerchantName: merchant,
		Amount:       model.NewAmount(amount),
		Timestamp:    model.NewTimestamp(fixedNow.AddDate(0, 0, -daysAgo)),
	}
}

func TestGetTransactionInsights_EmptyBatch(t *testing.T) {
	e := newTestEngine()

	got, err := e.GetTransactionInsights(nil, 30, 500)
	require.NoError(t, err)

	assert.Zero(t, got.SpendingAnalysis.TransactionCount)
	assert.NotNil(t, got.SpendingAnalysis.SpendingByCategory)
	assert.NotNil(t, got.Anomalies)
	assert.Empty(t, got.Anomalies)

	require.Len(t, got.CashFlowForecast.Forecast, 30)
	for _, p := range got.CashFlowForecast.Forecast {
		assert.InDelta(t, 500, p.PredictedBalance, 1e-9)
	}

	assert.Equal(t, model.RiskLow, got.OverdraftRisk.RiskLevel)
	assert.Nil(t, got.OverdraftRisk.DaysUntilOverdraft)
}

func TestGetTransactionInsights_Composition(t *testing.T) {
	e := newTestEngine()

	batch := []model.Transaction{
		spend("a", "Kroger", 10, 1),
		spend("b", "Kroger", 10, 2),
		spend("c", "Kroger", 10, 3),
		spend("d", "Kroger", 10, 4),
		spend("e", "Best Buy Store", 60, 5),
	}

	got, err := e.GetTransactionInsights(batch, 7, 100)
	require.NoError(t, err)

	assert.Equal(t, 5, got.SpendingAnalysis.TransactionCount)
	assert.InDelta(t, 100, got.SpendingAnalysis.TotalSpent, 1e-9)

	// mean 20, std 20: only the 60 reaches two deviations
	require.Len(t, got.Anomalies, 1)
	assert.Equal(t, "e", got.Anomalies[0].TransactionID)
	assert.InDelta(t, 2.0, got.Anomalies[0].ZScore, 1e-9)

	assert.Equal(t, 7, got.CashFlowForecast.ForecastDays)
	assert.Len(t, got.CashFlowForecast.Forecast, 7)
	assert.InDelta(t, 20, got.CashFlowForecast.AvgDailySpending, 1e-9)

	require.NotNil(t, got.OverdraftRisk.DaysUntilOverdraft)
	assert.InDelta(t, 5, *got.OverdraftRisk.DaysUntilOverdraft, 1e-9)
	assert.Equal(t, model.RiskHigh, got.OverdraftRisk.RiskLevel)
}

func TestGetTransactionInsights_InvalidDays(t *testing.T) {
	e := newTestEngine()

	_, err := e.GetTransactionInsights(nil, 0, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrInvalidWindow)
}

func TestNewEngine_SharesKeywordTable(t *testing.T) {
	table := categorize.DefaultKeywordTable()
	e := newTestEngine(WithKeywordTable(table))

	require.NoError(t, table.AddKeywords(model.CategoryHealthcare, "gym"))

	got, err := e.Analyzer().AnalyzeSpendingTrends([]model.Transaction{spend("g", "Planet Gym", 25, 1)}, 30)
	require.NoError(t, err)
	assert.Contains(t, got.SpendingByCategory, model.CategoryHealthcare)
	assert.Equal(t, model.CategoryHealthcare, e.Categorizer().Categorize("planet gym"))

	segments := e.Segmenter().SegmentAccounts(map[string][]model.Transaction{
		"acct": {spend("g", "Planet Gym", 25, 1)},
	})
	assert.Equal(t, 1, segments["acct"].Features.CategoryDiversity)
}

func TestEnvelopes(t *testing.T) {
	decode := func(t *testing.T, env Envelope) map[string]any {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, env.Write(&buf))
		var out map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		return out
	}

	t.Run("anomalies carry a count", func(t *testing.T) {
		out := decode(t, AnomaliesEnvelope(nil))
		assert.Equal(t, StatusSuccess, out["status"])
		assert.Equal(t, []any{}, out["anomalies"])
		assert.InDelta(t, 0, out["count"], 0)
	})

	t.Run("payload keys", func(t *testing.T) {
		tests := []struct {
			env Envelope
			key string
		}{
			{InsightsEnvelope(model.Insights{}), "insights"},
			{AnalysisEnvelope(model.EmptySpendingAnalysis(30)), "analysis"},
			{ForecastEnvelope(model.BalanceForecast{}), "forecast"},
			{RiskEnvelope(forecast.NewCashFlowForecaster().PredictOverdraftRisk(nil, 0)), "risk_assessment"},
			{CategorizedEnvelope(nil), "categorized_transactions"},
			{SegmentsEnvelope(map[string]segment.AccountSegment{}), "segments"},
			{KeywordsEnvelope(map[model.Category][]string{}), "keywords"},
		}
		for _, tt := range tests {
			t.Run(tt.key, func(t *testing.T) {
				out := decode(t, tt.env)
				assert.Equal(t, StatusSuccess, out["status"])
				assert.Contains(t, out, tt.key)
				assert.Len(t, out, 2)
			})
		}
	})

	t.Run("error", func(t *testing.T) {
		out := decode(t, ErrorEnvelope(errors.New("boom")))
		assert.Equal(t, map[string]any{"status": StatusError, "error": "boom"}, out)
	})

	t.Run("risk null days", func(t *testing.T) {
		out := decode(t, RiskEnvelope(model.OverdraftRisk{RiskLevel: model.RiskLow}))
		risk, ok := out["risk_assessment"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, risk, "days_until_overdraft")
		assert.Nil(t, risk["days_until_overdraft"])
	})
}
