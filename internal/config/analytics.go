package config

import (
	"fmt"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/categorize"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/spf13/viper"
)

// Defaults for the analytics keys.
const (
	DefaultDays  = 30
	DefaultLimit = 1000
)

// SetDefaults registers default values for every key this package reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/spice-insights/insights.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("analytics.days", DefaultDays)
	v.SetDefault("analytics.limit", DefaultLimit)
	v.SetDefault("analytics.threshold", analysis.DefaultThreshold)
}

// Analytics holds the parameters of one analysis run.
type Analytics struct {
	Account    string
	Days       int
	Limit      int
	Threshold  float64
	Balance    float64
	HasBalance bool // Balance was set explicitly
}

// LoadAnalytics reads analytics settings from v.
func LoadAnalytics(v *viper.Viper) (Analytics, error) {
	a := Analytics{
		Account:    v.GetString("analytics.account"),
		Days:       v.GetInt("analytics.days"),
		Limit:      v.GetInt("analytics.limit"),
		Threshold:  v.GetFloat64("analytics.threshold"),
		Balance:    v.GetFloat64("analytics.balance"),
		HasBalance: v.IsSet("analytics.balance"),
	}

	if a.Days <= 0 {
		return Analytics{}, fmt.Errorf("%w: analytics.days must be positive, got %d", common.ErrInvalidConfig, a.Days)
	}
	if a.Limit <= 0 {
		return Analytics{}, fmt.Errorf("%w: analytics.limit must be positive, got %d", common.ErrInvalidConfig, a.Limit)
	}
	if a.Threshold < 0 {
		return Analytics{}, fmt.Errorf("%w: analytics.threshold must not be negative", common.ErrInvalidConfig)
	}

	return a, nil
}

// LoadKeywordTable builds the default keyword table extended with the
// categorizer.keywords map from v, for example:
//
//	categorizer:
//	  keywords:
//	    Healthcare: [gym, physio]
func LoadKeywordTable(v *viper.Viper) (*categorize.KeywordTable, error) {
	table := categorize.DefaultKeywordTable()

	extensions := v.GetStringMapStringSlice("categorizer.keywords")
	for name, keywords := range extensions {
		category, ok := model.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("%w: categorizer.keywords: %w: %q", common.ErrInvalidConfig, categorize.ErrUnknownCategory, name)
		}
		if err := table.AddKeywords(category, keywords...); err != nil {
			return nil, fmt.Errorf("%w: categorizer.keywords: %w", common.ErrInvalidConfig, err)
		}
	}

	return table, nil
}
