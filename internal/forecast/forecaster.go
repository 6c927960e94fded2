// Package forecast projects account balances and scores overdraft risk from
// historical daily spending.
package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/stats"
)

// Risk thresholds in days of spending remaining.
const (
	HighRiskDays   = 7.0
	MediumRiskDays = 14.0
)

// ErrInvalidHorizon is returned for a forecast horizon below one day.
var ErrInvalidHorizon = errors.New("forecast horizon must be at least one day")

// CashFlowForecaster derives forecasts from a batch's daily spending series.
type CashFlowForecaster struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a CashFlowForecaster.
type Option func(*CashFlowForecaster)

// WithClock sets the source of "now"; forecast dates start the day after it.
func WithClock(now func() time.Time) Option {
	return func(f *CashFlowForecaster) {
		if now != nil {
			f.now = now
		}
	}
}

// NewCashFlowForecaster creates a forecaster using the wall clock.
func NewCashFlowForecaster(opts ...Option) *CashFlowForecaster {
	f := &CashFlowForecaster{
		now:    time.Now,
		logger: slog.Default().With("component", "forecast"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DailySpending returns the mean and population standard deviation of the
// per-day totals. Days without transactions do not count toward the mean.
func DailySpending(transactions []model.Transaction) (avg, std float64) {
	values := stats.Values(stats.DailyTotals(transactions))
	return stats.Mean(values), stats.StdDev(values)
}

// ForecastBalance projects the balance for each of the next daysAhead days.
// The prediction for day i is balance - avg*i with bounds widening by std*sqrt(i).
// Negative predictions are returned as-is.
func (f *CashFlowForecaster) ForecastBalance(transactions []model.Transaction, currentBalance float64, daysAhead int) (model.BalanceForecast, error) {
	if daysAhead <= 0 {
		return model.BalanceForecast{}, fmt.Errorf("%w: got %d", ErrInvalidHorizon, daysAhead)
	}

	avg, std := DailySpending(transactions)
	if len(transactions) == 0 {
		f.logger.Debug("Forecasting without history; balance held flat")
	}

	now := f.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	points := make([]model.ForecastPoint, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		predicted := currentBalance - avg*float64(i)
		spread := std * math.Sqrt(float64(i))
		points = append(points, model.ForecastPoint{
			Date:                    today.AddDate(0, 0, i).Format(model.DateLayout),
			PredictedBalance:        predicted,
			ConfidenceIntervalLower: predicted - spread,
			ConfidenceIntervalUpper: predicted + spread,
		})
	}

	return model.BalanceForecast{
		CurrentBalance:   currentBalance,
		AvgDailySpending: avg,
		StdDailySpending: std,
		ForecastDays:     daysAhead,
		Forecast:         points,
	}, nil
}

// PredictOverdraftRisk estimates the days until the balance is exhausted at the
// average daily spend and classifies the risk.
func (f *CashFlowForecaster) PredictOverdraftRisk(transactions []model.Transaction, currentBalance float64) model.OverdraftRisk {
	avg, _ := DailySpending(transactions)

	risk := model.OverdraftRisk{
		CurrentBalance:   currentBalance,
		AvgDailySpending: avg,
		RiskLevel:        model.RiskLow,
	}

	if avg > 0 {
		days := currentBalance / avg
		risk.DaysUntilOverdraft = &days
		risk.RiskLevel = ClassifyRisk(days)
	}

	risk.Recommendation = Recommendation(risk.RiskLevel, risk.DaysUntilOverdraft)
	return risk
}

// ClassifyRisk maps days of spending remaining to a risk level.
func ClassifyRisk(days float64) model.RiskLevel {
	switch {
	case days < HighRiskDays:
		return model.RiskHigh
	case days < MediumRiskDays:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Recommendation returns the advice shown for a risk level.
func Recommendation(level model.RiskLevel, days *float64) string {
	remaining := 0.0
	if days != nil {
		remaining = *days
	}

	switch level {
	case model.RiskHigh:
		return fmt.Sprintf("High risk: only %.0f days of spending remaining. Consider reducing expenses or depositing funds.", remaining)
	case model.RiskMedium:
		return fmt.Sprintf("Medium risk: %.0f days of spending remaining. Monitor your spending closely.", remaining)
	default:
		return "Low risk: your account balance is healthy."
	}
}
