package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/spice-insights/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	tests := []struct {
		txn     *model.Transaction
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid transaction",
			txn: &model.Transaction{
				ID:        "txn123",
				AccountID: "acc1",
				Amount:    model.NewAmount(12),
			},
			wantErr: false,
		},
		{
			name: "missing amount and timestamp are allowed",
			txn: &model.Transaction{
				ID:        "txn123",
				AccountID: "acc1",
			},
			wantErr: false,
		},
		{
			name:    "nil transaction",
			txn:     nil,
			wantErr: true,
			errMsg:  "transaction",
		},
		{
			name: "missing ID",
			txn: &model.Transaction{
				AccountID: "acc1",
			},
			wantErr: true,
			errMsg:  "missing ID",
		},
		{
			name: "missing account ID",
			txn: &model.Transaction{
				ID: "txn123",
			},
			wantErr: true,
			errMsg:  "missing account ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransaction(tt.txn)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateTransaction() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateTransactions(t *testing.T) {
	validTxn := model.Transaction{
		ID:        "txn123",
		AccountID: "acc1",
	}

	tests := []struct {
		name    string
		errMsg  string
		txns    []model.Transaction
		wantErr bool
	}{
		{
			name:    "valid transactions",
			txns:    []model.Transaction{validTxn},
			wantErr: false,
		},
		{
			name:    "nil slice",
			txns:    nil,
			wantErr: true,
			errMsg:  "transactions",
		},
		{
			name:    "empty slice",
			txns:    []model.Transaction{},
			wantErr: true,
			errMsg:  "empty",
		},
		{
			name: "invalid transaction in slice",
			txns: []model.Transaction{
				validTxn,
				{AccountID: "acc1"},
			},
			wantErr: true,
			errMsg:  "transaction at index 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransactions(tt.txns)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateTransactions() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	for _, limit := range []int{-1, 0} {
		if err := validateLimit(limit); err == nil {
			t.Errorf("validateLimit(%d) expected error", limit)
		}
	}
	if err := validateLimit(1000); err != nil {
		t.Errorf("validateLimit(1000) error = %v", err)
	}
}
