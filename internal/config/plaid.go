package config

import (
	"os"

	"github.com/Veraticus/spice-insights/internal/plaid"
	"github.com/spf13/viper"
)

// LoadPlaidConfig loads Plaid credentials from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or SPICE_INSIGHTS_ env vars)
// 2. Direct environment variables (PLAID_*)
// 3. Default values
func LoadPlaidConfig() (*plaid.Config, error) {
	config := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}

	if config.ClientID == "" {
		config.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if config.Secret == "" {
		config.Secret = os.Getenv("PLAID_SECRET")
	}
	if config.AccessToken == "" {
		config.AccessToken = os.Getenv("PLAID_ACCESS_TOKEN")
	}
	if config.Environment == "" {
		config.Environment = os.Getenv("PLAID_ENV")
	}
	if config.Environment == "" {
		config.Environment = "sandbox"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
