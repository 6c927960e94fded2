package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/spice-insights/internal/categorize"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SPICE_TEST_DIR", "/tmp/spice")
	t.Setenv("SPICE_TEST_HOME", "~")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/data/insights.db", filepath.Join(home, "data/insights.db")},
		{"$SPICE_TEST_DIR/insights.db", "/tmp/spice/insights.db"},
		{"/var/lib/insights.db", "/var/lib/insights.db"},
		{"$SPICE_TEST_HOME/insights.db", filepath.Join(home, "insights.db")},
		{"~other/insights.db", "~other/insights.db"},
		{"./data//../insights.db", "insights.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestLoadAnalytics(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a, err := LoadAnalytics(newViper(t, ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultDays, a.Days)
		assert.Equal(t, DefaultLimit, a.Limit)
		assert.InDelta(t, 2.0, a.Threshold, 0)
		assert.False(t, a.HasBalance)
	})

	t.Run("explicit balance", func(t *testing.T) {
		a, err := LoadAnalytics(newViper(t, "analytics:\n  balance: 0\n  days: 7\n"))
		require.NoError(t, err)
		assert.True(t, a.HasBalance)
		assert.Zero(t, a.Balance)
		assert.Equal(t, 7, a.Days)
	})

	tests := []struct {
		name string
		yaml string
	}{
		{"zero days", "analytics:\n  days: 0\n"},
		{"negative limit", "analytics:\n  limit: -5\n"},
		{"negative threshold", "analytics:\n  threshold: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnalytics(newViper(t, tt.yaml))
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadKeywordTable(t *testing.T) {
	v := newViper(t, `
categorizer:
  keywords:
    healthcare: [Gym, physio]
    Subscription: [patreon]
`)

	table, err := LoadKeywordTable(v)
	require.NoError(t, err)

	c := categorize.New(table)
	assert.Equal(t, model.CategoryHealthcare, c.Categorize("PLANET GYM 0042"))
	assert.Equal(t, model.CategorySubscription, c.Categorize("Patreon"))
	assert.Equal(t, model.CategoryGroceries, c.Categorize("Kroger"), "defaults are kept")
}

func TestLoadKeywordTable_UnknownCategory(t *testing.T) {
	v := newViper(t, "categorizer:\n  keywords:\n    Travel: [hotel]\n")

	_, err := LoadKeywordTable(v)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.ErrorIs(t, err, categorize.ErrUnknownCategory)
}

func TestLoadPlaidConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PLAID_CLIENT_ID", "env-client")
	t.Setenv("PLAID_SECRET", "env-secret")
	t.Setenv("PLAID_ACCESS_TOKEN", "env-token")
	t.Setenv("PLAID_ENV", "")

	viper.Set("plaid.client_id", "viper-client")

	cfg, err := LoadPlaidConfig()
	require.NoError(t, err)
	assert.Equal(t, "viper-client", cfg.ClientID)
	assert.Equal(t, "env-secret", cfg.Secret)
	assert.Equal(t, "env-token", cfg.AccessToken)
	assert.Equal(t, "sandbox", cfg.Environment)

	t.Setenv("PLAID_ACCESS_TOKEN", "")
	_, err = LoadPlaidConfig()
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
