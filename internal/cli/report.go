package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/segment"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Renderer writes human-readable insight reports.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func (r *Renderer) println(s string) error {
	_, err := fmt.Fprintln(r.w, s)
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// Insights renders every section of a combined report.
func (r *Renderer) Insights(in model.Insights) error {
	if err := r.println(FormatTitle("Transaction Insights")); err != nil {
		return err
	}
	sections := []func() error{
		func() error { return r.Spending(in.SpendingAnalysis) },
		func() error { return r.Anomalies(in.Anomalies) },
		func() error { return r.Forecast(in.CashFlowForecast) },
		func() error { return r.Risk(in.OverdraftRisk) },
	}
	for _, section := range sections {
		if err := section(); err != nil {
			return err
		}
	}
	return nil
}

// Spending renders a spending analysis: summary, categories by total, then daily totals.
func (r *Renderer) Spending(a model.SpendingAnalysis) error {
	summary := strings.Join([]string{
		fmt.Sprintf("Period:        last %d days", a.PeriodDays),
		fmt.Sprintf("Transactions:  %d", a.TransactionCount),
		fmt.Sprintf("Total spent:   %s", money(a.TotalSpent)),
		fmt.Sprintf("Average:       %s", money(a.AvgTransaction)),
		fmt.Sprintf("Largest:       %s", money(a.MaxTransaction)),
		fmt.Sprintf("Smallest:      %s", money(a.MinTransaction)),
	}, "\n")
	if err := r.println(RenderBox(ChartIcon+" Spending", summary)); err != nil {
		return err
	}
	if a.TransactionCount == 0 {
		return r.println(SubtleStyle.Render("No transactions in this period."))
	}

	categories := make([]model.Category, 0, len(a.SpendingByCategory))
	for c := range a.SpendingByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		ti, tj := a.SpendingByCategory[categories[i]].Total, a.SpendingByCategory[categories[j]].Total
		if ti != tj {
			return ti > tj
		}
		return categories[i] < categories[j]
	})

	byCategory := newTable("Category", "Total", "Count", "Average")
	for _, c := range categories {
		s := a.SpendingByCategory[c]
		byCategory.Row(string(c), money(s.Total), fmt.Sprintf("%d", s.Count), money(s.Average))
	}
	if err := r.println(byCategory.String()); err != nil {
		return err
	}

	days := make([]string, 0, len(a.DailySpending))
	for d := range a.DailySpending {
		days = append(days, d)
	}
	sort.Strings(days)

	daily := newTable("Date", "Spent")
	for _, d := range days {
		daily.Row(d, money(a.DailySpending[d]))
	}
	return r.println(daily.String())
}

// Anomalies renders flagged transactions in severity order.
func (r *Renderer) Anomalies(anomalies []model.Anomaly) error {
	if err := r.println(SubtitleStyle.Render(fmt.Sprintf("Anomalies (%d)", len(anomalies)))); err != nil {
		return err
	}
	if len(anomalies) == 0 {
		return r.println(FormatSuccess("No unusual transactions detected."))
	}

	t := newTable("ID", "Merchant", "Amount", "Z-Score", "When", "Reason")
	for _, a := range anomalies {
		t.Row(a.TransactionID, a.Merchant, money(a.Amount), fmt.Sprintf("%+.2f", a.ZScore), a.Timestamp.String(), a.Reason)
	}
	return r.println(t.String())
}

// Forecast renders the projected balance per day.
func (r *Renderer) Forecast(f model.BalanceForecast) error {
	summary := strings.Join([]string{
		fmt.Sprintf("Current balance:     %s", money(f.CurrentBalance)),
		fmt.Sprintf("Avg daily spending:  %s", money(f.AvgDailySpending)),
		fmt.Sprintf("Std daily spending:  %s", money(f.StdDailySpending)),
		fmt.Sprintf("Horizon:             %d days", f.ForecastDays),
	}, "\n")
	if err := r.println(RenderBox("Cash Flow Forecast", summary)); err != nil {
		return err
	}

	t := newTable("Date", "Predicted", "Low", "High")
	for _, p := range f.Forecast {
		predicted := money(p.PredictedBalance)
		if p.PredictedBalance < 0 {
			predicted = ErrorStyle.Render(predicted)
		}
		t.Row(p.Date, predicted, money(p.ConfidenceIntervalLower), money(p.ConfidenceIntervalUpper))
	}
	return r.println(t.String())
}

// Risk renders an overdraft risk assessment.
func (r *Renderer) Risk(risk model.OverdraftRisk) error {
	days := "never (spending is not positive)"
	if risk.DaysUntilOverdraft != nil {
		days = fmt.Sprintf("%.1f", *risk.DaysUntilOverdraft)
	}
	body := strings.Join([]string{
		"Risk level:          " + RiskStyle(risk.RiskLevel).Render(string(risk.RiskLevel)),
		"Days until overdraft: " + days,
		"Current balance:     " + money(risk.CurrentBalance),
		"Avg daily spending:  " + money(risk.AvgDailySpending),
		"",
		risk.Recommendation,
	}, "\n")
	return r.println(RenderBox("Overdraft Risk", body))
}

// Categorized renders a batch categorization in input order.
func (r *Renderer) Categorized(items []model.CategorizedTransaction) error {
	t := newTable("ID", "Merchant", "Amount", "Category")
	for _, item := range items {
		amount := SubtleStyle.Render("n/a")
		if item.Amount != nil {
			amount = money(*item.Amount)
		}
		t.Row(item.TransactionID, item.Merchant, amount, string(item.Category))
	}
	return r.println(t.String())
}

// Segments renders account segments sorted by account ID.
func (r *Renderer) Segments(segments map[string]segment.AccountSegment) error {
	if len(segments) == 0 {
		return r.println(FormatInfo("No accounts with spending to segment."))
	}

	accounts := make([]string, 0, len(segments))
	for id := range segments {
		accounts = append(accounts, id)
	}
	sort.Strings(accounts)

	t := newTable("Account", "Segment", "Behavior", "Total", "Avg", "Count", "Categories", "Per Day")
	for _, id := range accounts {
		s := segments[id]
		f := s.Features
		t.Row(id, s.Tier, s.Behavior, money(f.TotalSpent), money(f.AvgTransaction),
			fmt.Sprintf("%d", f.TransactionCount), fmt.Sprintf("%d", f.CategoryDiversity),
			fmt.Sprintf("%.2f", f.SpendingFrequency))
	}
	return r.println(t.String())
}

// Keywords renders the keyword table in taxonomy order.
func (r *Renderer) Keywords(keywords map[model.Category][]string) error {
	t := newTable("Category", "Keywords")
	for _, c := range model.Categories() {
		words, ok := keywords[c]
		if !ok {
			continue
		}
		t.Row(string(c), strings.Join(words, ", "))
	}
	return r.println(t.String())
}
