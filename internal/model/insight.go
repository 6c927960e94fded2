package model

// CategorySpending aggregates spending within one category.
type CategorySpending struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// SpendingAnalysis summarizes spending over a trailing window.
type SpendingAnalysis struct {
	SpendingByCategory map[Category]CategorySpending `json:"spending_by_category"`
	DailySpending      map[string]float64            `json:"daily_spending"`
	PeriodDays         int                           `json:"period_days"`
	TotalSpent         float64                       `json:"total_spent"`
	AvgTransaction     float64                       `json:"avg_transaction"`
	MaxTransaction     float64                       `json:"max_transaction"`
	MinTransaction     float64                       `json:"min_transaction"`
	TransactionCount   int                           `json:"transaction_count"`
}

// EmptySpendingAnalysis returns the zero-valued analysis for a period.
func EmptySpendingAnalysis(days int) SpendingAnalysis {
	return SpendingAnalysis{
		PeriodDays:         days,
		SpendingByCategory: map[Category]CategorySpending{},
		DailySpending:      map[string]float64{},
	}
}

// Anomaly is a transaction whose amount deviates from the batch mean.
type Anomaly struct {
	Timestamp     Timestamp `json:"timestamp"`
	TransactionID string    `json:"transaction_id"`
	Merchant      string    `json:"merchant"`
	Reason        string    `json:"reason"`
	Amount        float64   `json:"amount"`
	ZScore        float64   `json:"z_score"`
}

// ForecastPoint is the predicted balance for one future day.
type ForecastPoint struct {
	Date                    string  `json:"date"`
	PredictedBalance        float64 `json:"predicted_balance"`
	ConfidenceIntervalLower float64 `json:"confidence_interval_lower"`
	ConfidenceIntervalUpper float64 `json:"confidence_interval_upper"`
}

// BalanceForecast projects a balance forward from daily spending statistics.
type BalanceForecast struct {
	Forecast         []ForecastPoint `json:"forecast"`
	CurrentBalance   float64         `json:"current_balance"`
	AvgDailySpending float64         `json:"avg_daily_spending"`
	StdDailySpending float64         `json:"std_daily_spending"`
	ForecastDays     int             `json:"forecast_days"`
}

// RiskLevel classifies overdraft risk.
type RiskLevel string

const (
	// RiskHigh means fewer than a week of spending remains.
	RiskHigh RiskLevel = "HIGH"
	// RiskMedium means one to two weeks of spending remain.
	RiskMedium RiskLevel = "MEDIUM"
	// RiskLow means two weeks or more remain, or spending is not positive.
	RiskLow RiskLevel = "LOW"
)

// OverdraftRisk estimates how soon the balance reaches zero.
// DaysUntilOverdraft is nil when average daily spending is not positive.
type OverdraftRisk struct {
	DaysUntilOverdraft *float64  `json:"days_until_overdraft"`
	RiskLevel          RiskLevel `json:"risk_level"`
	Recommendation     string    `json:"recommendation"`
	CurrentBalance     float64   `json:"current_balance"`
	AvgDailySpending   float64   `json:"avg_daily_spending"`
}

// CategorizedTransaction is one entry of a batch categorization.
type CategorizedTransaction struct {
	Amount        *float64 `json:"amount"`
	TransactionID string   `json:"transaction_id"`
	Merchant      string   `json:"merchant"`
	Category      Category `json:"category"`
}

// Insights bundles every analysis for one batch. All fields are always populated.
type Insights struct {
	Anomalies        []Anomaly        `json:"anomalies"`
	SpendingAnalysis SpendingAnalysis `json:"spending_analysis"`
	CashFlowForecast BalanceForecast  `json:"cash_flow_forecast"`
	OverdraftRisk    OverdraftRisk    `json:"overdraft_risk"`
}
