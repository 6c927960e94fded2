// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/plaid/plaid-go/v20/plaid"
)

// SourceName tags balances fetched from Plaid.
const SourceName = "plaid"

const (
	pageSize      = int32(500) // Plaid's max page size
	rateLimitCode = "RATE_LIMIT_EXCEEDED"
	envSandbox    = "sandbox"
	envProduction = "production"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}
	if c.Environment != envSandbox && c.Environment != envProduction {
		return fmt.Errorf("%w: invalid Plaid environment: must be sandbox or production", common.ErrInvalidConfig)
	}
	return nil
}

// Client is the Feed backed by the Plaid API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	accessToken string
	backoff     common.Backoff
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case envSandbox:
		configuration.UseEnvironment(plaid.Sandbox)
	case envProduction:
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		backoff:     common.DefaultBackoff,
	}, nil
}

// GetTransactions fetches transactions from Plaid within the specified date range.
// Plaid reports outflows as positive amounts, which matches our convention.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(model.DateLayout),
		"end_date", endDate.Format(model.DateLayout))

	var allTransactions []plaid.Transaction
	offset := int32(0)

	for {
		var page []plaid.Transaction

		retryErr := c.backoff.Retry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format(model.DateLayout),
				endDate.Format(model.DateLayout),
			)
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.classifyError("fetch transactions", err)
			}

			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction batch",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		})

		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, page...)

		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	c.logger.Info("Fetched all transactions", "count", len(allTransactions))

	transactions := make([]model.Transaction, 0, len(allTransactions))
	for _, pt := range allTransactions {
		transactions = append(transactions, mapPlaidTransaction(pt))
	}

	return transactions, nil
}

// GetAccounts fetches account IDs from Plaid.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	accounts, err := c.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}
	return accountIDs, nil
}

// GetBalances fetches the current balance of every linked account. Credit and
// loan balances are amounts owed, so they are returned negated.
func (c *Client) GetBalances(ctx context.Context) ([]model.Balance, error) {
	accounts, err := c.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balances := make([]model.Balance, 0, len(accounts))
	for _, account := range accounts {
		reported := account.GetBalances()
		current, ok := reported.GetCurrentOk()
		if !ok || current == nil {
			c.logger.Debug("Account has no current balance", "account", account.GetAccountId())
			continue
		}
		balances = append(balances, model.Balance{
			AccountID: account.GetAccountId(),
			AsOf:      now,
			Amount:    signedBalance(account.GetType(), *current),
			Source:    SourceName,
		})
	}
	return balances, nil
}

func signedBalance(accountType plaid.AccountType, current float64) float64 {
	switch accountType {
	case plaid.ACCOUNTTYPE_CREDIT, plaid.ACCOUNTTYPE_LOAN:
		return -current
	default:
		return current
	}
}

func (c *Client) fetchAccounts(ctx context.Context) ([]plaid.AccountBase, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	c.logger.Info("Fetching accounts from Plaid")

	var accounts []plaid.AccountBase
	retryErr := c.backoff.Retry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.classifyError("fetch accounts", err)
		}
		accounts = resp.GetAccounts()
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))
	return accounts, nil
}

// classifyError leaves transport failures and rate limits retryable. Any
// other API error is permanent.
func (c *Client) classifyError(action string, err error) error {
	plaidError := extractPlaidError(err)
	switch {
	case plaidError == nil:
		return fmt.Errorf("%w: failed to %s: %w", common.ErrPlaidConnection, action, err)
	case plaidError.ErrorCode == rateLimitCode:
		c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
		return fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidError.ErrorMessage)
	default:
		return common.Permanent(fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage))
	}
}

// mapPlaidTransaction converts a Plaid transaction to our internal model.
func mapPlaidTransaction(pt plaid.Transaction) model.Transaction {
	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}

	// Plaid's datetime is a UTC instant; date is the posting day at the institution.
	tx := model.Transaction{
		ID:           pt.GetTransactionId(),
		AccountID:    pt.GetAccountId(),
		MerchantName: cleanMerchantName(merchantName),
		Channel:      describe(pt),
		Amount:       model.NewAmount(pt.GetAmount()),
		Timestamp:    model.ParseTimestamp(pt.GetDate()),
		CreatedAt:    model.ParseTimestamp(pt.GetAuthorizedDate()),
	}

	tx.Hash = tx.GenerateHash()
	return tx
}

// describe joins the payment channel with the raw transaction name so that
// categorization sees both.
func describe(pt plaid.Transaction) string {
	var parts []string
	switch pt.GetPaymentChannel() {
	case "online":
		parts = append(parts, "online")
	case "in store":
		parts = append(parts, "in store")
	}
	if name := strings.TrimSpace(pt.GetName()); name != "" {
		parts = append(parts, name)
	}
	if pt.HasCheckNumber() {
		if num := pt.GetCheckNumber(); num != "" {
			parts = append(parts, "check #"+num)
		}
	}
	return strings.Join(parts, " ")
}

// cleanMerchantName standardizes merchant names by removing common suffixes and normalizing format.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		for j := range runes {
			if j == 0 || !isLetter(runes[j-1]) {
				runes[j] = toUpper(runes[j])
			}
		}
		words[i] = string(runes)
	}

	// A trailing run of more than five digits is a processor reference, not part of the name.
	if len(words) > 1 {
		lastPart := words[len(words)-1]
		if len(lastPart) > 5 && isAllDigits(lastPart) {
			words = words[:len(words)-1]
		}
	}

	name = strings.Join(words, " ")

	suffixes := []string{
		" Llc",
		" Inc",
		" Corp",
		" Corporation",
		" Company",
		" Co",
		" Ltd",
		" Limited",
	}

	changed := true
	for changed {
		changed = false
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}

	return strings.TrimSpace(name)
}

// isAllDigits checks if a string contains only digits.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

var _ Feed = (*Client)(nil)
