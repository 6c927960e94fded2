package model

import "time"

// Balance is the ledger balance of an account as reported by its institution.
type Balance struct {
	AsOf      time.Time `json:"as_of"`
	AccountID string    `json:"account_id"`
	Source    string    `json:"source,omitempty"` // "ofx" or "plaid"
	Amount    float64   `json:"amount"`
}
