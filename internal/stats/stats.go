// Package stats holds the small descriptive statistics shared by the analytics
// components. Standard deviations are population deviations throughout.
package stats

import (
	"math"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, or 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Distinct counts distinct values.
func Distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Amounts collects the valid amounts of a batch.
func Amounts(transactions []model.Transaction) []float64 {
	out := make([]float64, 0, len(transactions))
	for _, txn := range transactions {
		if txn.Amount.Valid {
			out = append(out, txn.Amount.Value)
		}
	}
	return out
}

// DailyTotals sums valid amounts per calendar date of each dated transaction,
// taken in the zone the transaction was recorded in. Days without transactions
// are absent rather than zero.
func DailyTotals(transactions []model.Transaction) map[string]float64 {
	totals := make(map[string]float64)
	for _, txn := range transactions {
		ts, ok := txn.Dated()
		if !ok || !txn.Amount.Valid {
			continue
		}
		totals[ts.Date()] += txn.Amount.Value
	}
	return totals
}

// Values returns the values of a daily series.
func Values(series map[string]float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		out = append(out, v)
	}
	return out
}
