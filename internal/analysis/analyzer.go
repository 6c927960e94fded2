// Package analysis summarizes spending trends and flags statistical outliers.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/spice-insights/internal/categorize"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/stats"
)

// DefaultThreshold is the anomaly threshold in standard deviations.
const DefaultThreshold = 2.0

// Parameter errors.
var (
	ErrInvalidWindow    = errors.New("analysis window must be at least one day")
	ErrInvalidThreshold = errors.New("anomaly threshold must not be negative")
)

// PatternAnalyzer aggregates transaction batches. It holds no per-call state.
type PatternAnalyzer struct {
	categorizer *categorize.Categorizer
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a PatternAnalyzer.
type Option func(*PatternAnalyzer)

// WithCategorizer sets the categorizer used for category breakdowns.
func WithCategorizer(c *categorize.Categorizer) Option {
	return func(a *PatternAnalyzer) {
		if c != nil {
			a.categorizer = c
		}
	}
}

// WithClock sets the source of "now" for window filtering.
func WithClock(now func() time.Time) Option {
	return func(a *PatternAnalyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewPatternAnalyzer creates an analyzer with a default categorizer and the wall clock.
func NewPatternAnalyzer(opts ...Option) *PatternAnalyzer {
	a := &PatternAnalyzer{
		categorizer: categorize.New(nil),
		now:         time.Now,
		logger:      slog.Default().With("component", "analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeSpendingTrends summarizes transactions dated within the trailing
// window of days ending now. Floating timestamps are compared on the clock's
// wall time. Transactions with an unparseable timestamp or amount are left out
// entirely.
func (a *PatternAnalyzer) AnalyzeSpendingTrends(transactions []model.Transaction, days int) (model.SpendingAnalysis, error) {
	if days <= 0 {
		return model.SpendingAnalysis{}, fmt.Errorf("%w: got %d", ErrInvalidWindow, days)
	}

	result := model.EmptySpendingAnalysis(days)

	now := a.now()
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	skipped := 0
	for _, txn := range transactions {
		ts, ok := txn.Dated()
		if !ok || !txn.Amount.Valid {
			skipped++
			continue
		}
		if when := ts.In(now.Location()); when.Before(cutoff) || when.After(now) {
			continue
		}

		amount := txn.Amount.Value
		if result.TransactionCount == 0 || amount > result.MaxTransaction {
			result.MaxTransaction = amount
		}
		if result.TransactionCount == 0 || amount < result.MinTransaction {
			result.MinTransaction = amount
		}
		result.TotalSpent += amount
		result.TransactionCount++

		category := a.categorizer.CategorizeTransaction(txn)
		bucket := result.SpendingByCategory[category]
		bucket.Total += amount
		bucket.Count++
		result.SpendingByCategory[category] = bucket

		result.DailySpending[ts.Date()] += amount
	}

	if result.TransactionCount > 0 {
		result.AvgTransaction = result.TotalSpent / float64(result.TransactionCount)
	}
	for category, bucket := range result.SpendingByCategory {
		bucket.Average = bucket.Total / float64(bucket.Count)
		result.SpendingByCategory[category] = bucket
	}

	if skipped > 0 {
		a.logger.Debug("Excluded malformed transactions from trend analysis", "skipped", skipped)
	}

	return result, nil
}

// DetectAnomalies flags transactions whose amount lies at least thresholdStd
// population standard deviations from the batch mean. The whole batch is used,
// not a time window. Results are ordered by deviation, largest first.
func (a *PatternAnalyzer) DetectAnomalies(transactions []model.Transaction, thresholdStd float64) ([]model.Anomaly, error) {
	if thresholdStd < 0 || math.IsNaN(thresholdStd) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, thresholdStd)
	}

	anomalies := []model.Anomaly{}

	amounts := stats.Amounts(transactions)
	if stats.Distinct(amounts) < 2 {
		a.logger.Debug("Not enough variance for anomaly detection", "amounts", len(amounts))
		return anomalies, nil
	}

	mean := stats.Mean(amounts)
	std := stats.StdDev(amounts)
	if std == 0 {
		return anomalies, nil
	}

	for i, txn := range transactions {
		if !txn.Amount.Valid {
			continue
		}

		z := (txn.Amount.Value - mean) / std
		if math.Abs(z) < thresholdStd {
			continue
		}

		anomalies = append(anomalies, newAnomaly(i, txn, z, mean))
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].ZScore) > math.Abs(anomalies[j].ZScore)
	})

	return anomalies, nil
}

func newAnomaly(index int, txn model.Transaction, z, mean float64) model.Anomaly {
	id := txn.ID
	if id == "" {
		id = categorize.PlaceholderID(index)
	}

	merchant := txn.Merchant()
	if merchant == "" {
		merchant = "Unknown"
	}

	ts, _ := txn.Dated()

	return model.Anomaly{
		TransactionID: id,
		Amount:        txn.Amount.Value,
		Merchant:      merchant,
		ZScore:        z,
		Reason:        fmt.Sprintf("Amount is %.1fx standard deviations from mean ($%.2f)", math.Abs(z), mean),
		Timestamp:     ts,
	}
}
