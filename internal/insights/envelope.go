package insights

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/segment"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the JSON response shape: a status plus one payload key,
// or a status plus an error message.
type Envelope map[string]any

func success(key string, payload any) Envelope {
	return Envelope{"status": StatusSuccess, key: payload}
}

// InsightsEnvelope wraps a combined insights payload.
func InsightsEnvelope(v model.Insights) Envelope { return success("insights", v) }

// AnalysisEnvelope wraps a spending analysis.
func AnalysisEnvelope(v model.SpendingAnalysis) Envelope { return success("analysis", v) }

// AnomaliesEnvelope wraps detected anomalies along with their count.
func AnomaliesEnvelope(v []model.Anomaly) Envelope {
	if v == nil {
		v = []model.Anomaly{}
	}
	env := success("anomalies", v)
	env["count"] = len(v)
	return env
}

// ForecastEnvelope wraps a balance forecast.
func ForecastEnvelope(v model.BalanceForecast) Envelope { return success("forecast", v) }

// RiskEnvelope wraps an overdraft risk assessment.
func RiskEnvelope(v model.OverdraftRisk) Envelope { return success("risk_assessment", v) }

// CategorizedEnvelope wraps a batch categorization.
func CategorizedEnvelope(v []model.CategorizedTransaction) Envelope {
	if v == nil {
		v = []model.CategorizedTransaction{}
	}
	return success("categorized_transactions", v)
}

// SegmentsEnvelope wraps account segments keyed by account id.
func SegmentsEnvelope(v map[string]segment.AccountSegment) Envelope {
	if v == nil {
		v = map[string]segment.AccountSegment{}
	}
	return success("segments", v)
}

// KeywordsEnvelope wraps the effective keyword table.
func KeywordsEnvelope(v map[model.Category][]string) Envelope { return success("keywords", v) }

// ErrorEnvelope reports a failure.
func ErrorEnvelope(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{"status": StatusError, "error": msg}
}

// Write encodes the envelope as indented JSON.
func (e Envelope) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return nil
}
