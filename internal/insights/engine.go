// Package insights composes categorization, trend analysis, anomaly detection,
// forecasting, and segmentation into single calls over one transaction batch.
package insights

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/categorize"
	"github.com/Veraticus/spice-insights/internal/forecast"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/segment"
)

// Engine wires the analysis components around one shared categorizer.
type Engine struct {
	categorizer *categorize.Categorizer
	analyzer    *analysis.PatternAnalyzer
	forecaster  *forecast.CashFlowForecaster
	segmenter   *segment.Segmenter
}

type engineConfig struct {
	table *categorize.KeywordTable
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithKeywordTable sets the keyword table shared by every component.
func WithKeywordTable(table *categorize.KeywordTable) Option {
	return func(c *engineConfig) {
		c.table = table
	}
}

// WithClock sets the source of "now" for windows, forecasts, and spans.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) {
		c.now = now
	}
}

// NewEngine creates an engine. Without options it uses the default keyword
// table and the wall clock.
func NewEngine(opts ...Option) *Engine {
	cfg := engineConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	categorizer := categorize.New(cfg.table)
	return &Engine{
		categorizer: categorizer,
		analyzer: analysis.NewPatternAnalyzer(
			analysis.WithCategorizer(categorizer),
			analysis.WithClock(cfg.now),
		),
		forecaster: forecast.NewCashFlowForecaster(forecast.WithClock(cfg.now)),
		segmenter:  segment.NewSegmenter(categorizer, cfg.now),
	}
}

// Categorizer returns the engine's categorizer.
func (e *Engine) Categorizer() *categorize.Categorizer { return e.categorizer }

// Analyzer returns the engine's pattern analyzer.
func (e *Engine) Analyzer() *analysis.PatternAnalyzer { return e.analyzer }

// Forecaster returns the engine's cash-flow forecaster.
func (e *Engine) Forecaster() *forecast.CashFlowForecaster { return e.forecaster }

// Segmenter returns the engine's account segmenter.
func (e *Engine) Segmenter() *segment.Segmenter { return e.segmenter }

// GetTransactionInsights runs every analysis over one batch. Spending trends
// use the trailing days window; anomalies use the whole batch at the default
// threshold; the forecast horizon equals days.
func (e *Engine) GetTransactionInsights(transactions []model.Transaction, days int, currentBalance float64) (model.Insights, error) {
	spending, err := e.analyzer.AnalyzeSpendingTrends(transactions, days)
	if err != nil {
		return model.Insights{}, fmt.Errorf("analyzing spending trends: %w", err)
	}

	anomalies, err := e.analyzer.DetectAnomalies(transactions, analysis.DefaultThreshold)
	if err != nil {
		return model.Insights{}, fmt.Errorf("detecting anomalies: %w", err)
	}

	projection, err := e.forecaster.ForecastBalance(transactions, currentBalance, days)
	if err != nil {
		return model.Insights{}, fmt.Errorf("forecasting balance: %w", err)
	}

	return model.Insights{
		SpendingAnalysis: spending,
		Anomalies:        anomalies,
		CashFlowForecast: projection,
		OverdraftRisk:    e.forecaster.PredictOverdraftRisk(transactions, currentBalance),
	}, nil
}
