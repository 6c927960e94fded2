package forecast

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func newTestForecaster() *CashFlowForecaster {
	return NewCashFlowForecaster(WithClock(func() time.Time { return fixedNow }))
}

// history builds one transaction per amount, each on its own day.
func history(amounts ...float64) []model.Transaction {
	out := make([]model.Transaction, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, model.Transaction{
			MerchantName: "Merchant",
			Amount:       model.NewAmount(a),
			Timestamp:    model.NewTimestamp(fixedNow.AddDate(0, 0, -(i + 1))),
		})
	}
	return out
}

func TestForecastBalance_SingleDay(t *testing.T) {
	f := newTestForecaster()

	got, err := f.ForecastBalance(history(100, 100), 1000, 1)
	require.NoError(t, err)

	assert.InDelta(t, 100, got.AvgDailySpending, 1e-9)
	assert.InDelta(t, 0, got.StdDailySpending, 1e-9)
	assert.Equal(t, 1, got.ForecastDays)
	assert.InDelta(t, 1000, got.CurrentBalance, 1e-9)
	require.Len(t, got.Forecast, 1)

	point := got.Forecast[0]
	assert.Equal(t, "2024-04-01", point.Date)
	assert.InDelta(t, 900, point.PredictedBalance, 1e-9)
	assert.InDelta(t, 900, point.ConfidenceIntervalLower, 1e-9)
	assert.InDelta(t, 900, point.ConfidenceIntervalUpper, 1e-9)
}

func TestForecastBalance_MonotonicAndWidening(t *testing.T) {
	f := newTestForecaster()

	got, err := f.ForecastBalance(history(80, 120), 5000, 30)
	require.NoError(t, err)
	require.Len(t, got.Forecast, 30)

	assert.InDelta(t, 100, got.AvgDailySpending, 1e-9)
	assert.InDelta(t, 20, got.StdDailySpending, 1e-9)

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, point := range got.Forecast {
		assert.Equal(t, start.AddDate(0, 0, i).Format(model.DateLayout), point.Date)
		assert.InDelta(t, 5000-100*float64(i+1), point.PredictedBalance, 1e-9)
		assert.Less(t, point.ConfidenceIntervalLower, point.PredictedBalance)
		assert.Greater(t, point.ConfidenceIntervalUpper, point.PredictedBalance)

		if i == 0 {
			continue
		}
		prev := got.Forecast[i-1]
		assert.Less(t, point.PredictedBalance, prev.PredictedBalance)
		width := point.ConfidenceIntervalUpper - point.ConfidenceIntervalLower
		prevWidth := prev.ConfidenceIntervalUpper - prev.ConfidenceIntervalLower
		assert.Greater(t, width, prevWidth)
	}

	// Day 4: spread is std * sqrt(4) = 40.
	assert.InDelta(t, 4600-40, got.Forecast[3].ConfidenceIntervalLower, 1e-9)
	assert.InDelta(t, 4600+40, got.Forecast[3].ConfidenceIntervalUpper, 1e-9)
}

func TestForecastBalance_NegativeBalancesAreNotClamped(t *testing.T) {
	f := newTestForecaster()

	got, err := f.ForecastBalance(history(100), 50, 3)
	require.NoError(t, err)

	want := []float64{-50, -150, -250}
	for i, point := range got.Forecast {
		assert.InDelta(t, want[i], point.PredictedBalance, 1e-9)
	}
}

func TestForecastBalance_QuietDaysDoNotDiluteAverage(t *testing.T) {
	f := newTestForecaster()

	batch := []model.Transaction{
		{Amount: model.NewAmount(60), Timestamp: model.NewTimestamp(fixedNow.AddDate(0, 0, -10))},
		{Amount: model.NewAmount(40), Timestamp: model.NewTimestamp(fixedNow.AddDate(0, 0, -10).Add(time.Hour))},
		{Amount: model.NewAmount(100), Timestamp: model.NewTimestamp(fixedNow.AddDate(0, 0, -1))},
		// Undated and malformed records are left out of the series.
		{Amount: model.NewAmount(999)},
		{Amount: model.Amount{}, Timestamp: model.NewTimestamp(fixedNow.AddDate(0, 0, -2))},
	}

	got, err := f.ForecastBalance(batch, 1000, 2)
	require.NoError(t, err)
	assert.InDelta(t, 100, got.AvgDailySpending, 1e-9)
	assert.InDelta(t, 0, got.StdDailySpending, 1e-9)
}

func TestForecastBalance_EmptyHistory(t *testing.T) {
	f := newTestForecaster()

	got, err := f.ForecastBalance(nil, 250, 5)
	require.NoError(t, err)

	assert.Zero(t, got.AvgDailySpending)
	assert.Zero(t, got.StdDailySpending)
	require.Len(t, got.Forecast, 5)
	for _, point := range got.Forecast {
		assert.InDelta(t, 250, point.PredictedBalance, 1e-9)
		assert.InDelta(t, 250, point.ConfidenceIntervalLower, 1e-9)
		assert.InDelta(t, 250, point.ConfidenceIntervalUpper, 1e-9)
	}
}

func TestForecastBalance_InvalidHorizon(t *testing.T) {
	f := newTestForecaster()

	for _, days := range []int{0, -1} {
		_, err := f.ForecastBalance(history(10), 100, days)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
	}
}

func TestPredictOverdraftRisk(t *testing.T) {
	f := newTestForecaster()

	tests := []struct {
		name     string
		batch    []model.Transaction
		balance  float64
		wantDays *float64
		want     model.RiskLevel
	}{
		{name: "zero balance", batch: history(100), balance: 0, wantDays: ptr(0), want: model.RiskHigh},
		{name: "overdrawn", batch: history(100), balance: -50, wantDays: ptr(-0.5), want: model.RiskHigh},
		{name: "six days", batch: history(100), balance: 600, wantDays: ptr(6), want: model.RiskHigh},
		{name: "exactly seven days", batch: history(100), balance: 700, wantDays: ptr(7), want: model.RiskMedium},
		{name: "just under two weeks", batch: history(100), balance: 1399, wantDays: ptr(13.99), want: model.RiskMedium},
		{name: "exactly two weeks", batch: history(100), balance: 1400, wantDays: ptr(14), want: model.RiskLow},
		{name: "net inflow", batch: history(-200, 50), balance: -500, wantDays: nil, want: model.RiskLow},
		{name: "no history", batch: nil, balance: 10, wantDays: nil, want: model.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.PredictOverdraftRisk(tt.batch, tt.balance)

			assert.Equal(t, tt.want, got.RiskLevel)
			assert.InDelta(t, tt.balance, got.CurrentBalance, 1e-9)
			if tt.wantDays == nil {
				assert.Nil(t, got.DaysUntilOverdraft)
			} else {
				require.NotNil(t, got.DaysUntilOverdraft)
				assert.InDelta(t, *tt.wantDays, *got.DaysUntilOverdraft, 1e-9)
			}
			assert.NotEmpty(t, got.Recommendation)
		})
	}
}

func TestPredictOverdraftRisk_UsesDailyAverage(t *testing.T) {
	f := newTestForecaster()

	day := fixedNow.AddDate(0, 0, -1)
	batch := []model.Transaction{
		{Amount: model.NewAmount(50), Timestamp: model.NewTimestamp(day)},
		{Amount: model.NewAmount(50), Timestamp: model.NewTimestamp(day.Add(time.Hour))},
	}

	got := f.PredictOverdraftRisk(batch, 650)
	assert.InDelta(t, 100, got.AvgDailySpending, 1e-9)
	require.NotNil(t, got.DaysUntilOverdraft)
	assert.InDelta(t, 6.5, *got.DaysUntilOverdraft, 1e-9)
	assert.Equal(t, model.RiskHigh, got.RiskLevel)
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t,
		"High risk: only 3 days of spending remaining. Consider reducing expenses or depositing funds.",
		Recommendation(model.RiskHigh, ptr(3.2)))
	assert.Equal(t,
		"Medium risk: 10 days of spending remaining. Monitor your spending closely.",
		Recommendation(model.RiskMedium, ptr(10)))
	assert.Equal(t, "Low risk: your account balance is healthy.", Recommendation(model.RiskLow, nil))
}

func ptr(v float64) *float64 {
	return &v
}
