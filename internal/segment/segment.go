// Package segment groups accounts into coarse behavioral buckets.
package segment

import (
	"math"
	"time"

	"github.com/Veraticus/spice-insights/internal/categorize"
	"github.com/Veraticus/spice-insights/internal/model"
)

// Value tiers.
const (
	TierHighValue       = "high-value"
	TierMidTier         = "mid-tier"
	TierBudgetConscious = "budget-conscious"
)

// Behavior labels.
const (
	BehaviorFrequentSmall   = "frequent-small"
	BehaviorInfrequentLarge = "infrequent-large"
	BehaviorHighSpender     = "high-spender"
	BehaviorRegular         = "regular"
)

// Rule thresholds.
const (
	highValueTotal    = 10000.0
	midTierTotal      = 5000.0
	frequentPerDay    = 1.0
	smallTransaction  = 50.0
	infrequentPerDay  = 0.25
	largeTransaction  = 200.0
	minimumSpanInDays = 1.0
	hoursPerDay       = 24.0
)

// AccountFeatures are the aggregate spending features of one account.
type AccountFeatures struct {
	TotalSpent        float64 `json:"total_spent"`
	AvgTransaction    float64 `json:"avg_transaction"`
	TransactionCount  int     `json:"transaction_count"`
	CategoryDiversity int     `json:"category_diversity"`
	SpendingFrequency float64 `json:"spending_frequency"` // transactions per day
}

// AccountSegment is the segment assigned to an account.
type AccountSegment struct {
	Tier     string          `json:"segment"`
	Behavior string          `json:"behavior"`
	Features AccountFeatures `json:"features"`
}

// Segmenter derives features and assigns segments.
type Segmenter struct {
	categorizer *categorize.Categorizer
	now         func() time.Time
}

// NewSegmenter creates a segmenter. A nil categorizer uses the default keyword table;
// a nil clock uses the wall clock.
func NewSegmenter(c *categorize.Categorizer, now func() time.Time) *Segmenter {
	if c == nil {
		c = categorize.New(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Segmenter{categorizer: c, now: now}
}

// Features computes the features of one account's transactions. The boolean is
// false when no transaction has a valid amount.
func (s *Segmenter) Features(transactions []model.Transaction) (AccountFeatures, bool) {
	var f AccountFeatures
	categories := make(map[model.Category]struct{})
	var earliest time.Time
	now := s.now()

	for _, txn := range transactions {
		if !txn.Amount.Valid {
			continue
		}
		f.TotalSpent += txn.Amount.Value
		f.TransactionCount++
		categories[s.categorizer.CategorizeTransaction(txn)] = struct{}{}

		if ts, ok := txn.Dated(); ok {
			if when := ts.In(now.Location()); earliest.IsZero() || when.Before(earliest) {
				earliest = when
			}
		}
	}

	if f.TransactionCount == 0 {
		return AccountFeatures{}, false
	}

	f.AvgTransaction = f.TotalSpent / float64(f.TransactionCount)
	f.CategoryDiversity = len(categories)

	span := minimumSpanInDays
	if !earliest.IsZero() {
		span = math.Max(minimumSpanInDays, now.Sub(earliest).Hours()/hoursPerDay)
	}
	f.SpendingFrequency = float64(f.TransactionCount) / span

	return f, true
}

// SegmentAccounts computes features per account and segments them.
// Accounts without usable transactions are omitted.
func (s *Segmenter) SegmentAccounts(accounts map[string][]model.Transaction) map[string]AccountSegment {
	features := make(map[string]AccountFeatures, len(accounts))
	for id, transactions := range accounts {
		if f, ok := s.Features(transactions); ok {
			features[id] = f
		}
	}
	return Segment(features)
}

// Segment assigns a tier and behavior to each account's features.
func Segment(features map[string]AccountFeatures) map[string]AccountSegment {
	out := make(map[string]AccountSegment, len(features))
	for id, f := range features {
		tier := Tier(f)
		out[id] = AccountSegment{
			Tier:     tier,
			Behavior: Behavior(f, tier),
			Features: f,
		}
	}
	return out
}

// Tier classifies total spend.
func Tier(f AccountFeatures) string {
	switch {
	case f.TotalSpent > highValueTotal:
		return TierHighValue
	case f.TotalSpent > midTierTotal:
		return TierMidTier
	default:
		return TierBudgetConscious
	}
}

// Behavior classifies transaction frequency and size.
func Behavior(f AccountFeatures, tier string) string {
	switch {
	case f.SpendingFrequency >= frequentPerDay && f.AvgTransaction < smallTransaction:
		return BehaviorFrequentSmall
	case f.SpendingFrequency < infrequentPerDay && f.AvgTransaction >= largeTransaction:
		return BehaviorInfrequentLarge
	case tier == TierHighValue:
		return BehaviorHighSpender
	default:
		return BehaviorRegular
	}
}
