// Package ofx imports OFX/QFX bank and credit card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
)

// SourceName tags balances captured from statements.
const SourceName = "ofx"

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An SGML opening tag at end of line that lost its closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the content of one OFX file.
type Statement struct {
	Transactions []model.Transaction
	Balances     []model.Balance
}

// Accounts returns the distinct account ids in the statement, sorted.
func (s *Statement) Accounts() []string {
	seen := make(map[string]bool)
	var accounts []string
	for _, txn := range s.Transactions {
		if !seen[txn.AccountID] {
			seen[txn.AccountID] = true
			accounts = append(accounts, txn.AccountID)
		}
	}
	for _, b := range s.Balances {
		if !seen[b.AccountID] {
			seen[b.AccountID] = true
			accounts = append(accounts, b.AccountID)
		}
	}
	sort.Strings(accounts)
	return accounts
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file into outflow-positive transactions and the
// ledger balance of each statement.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	statement := &Statement{}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			accountID := string(stmt.BankAcctFrom.AcctID)
			p.collect(statement, accountID, stmt.BankTranList)
			p.collectBalance(statement, accountID, stmt.BalAmt, stmt.DtAsOf)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			accountID := string(stmt.CCAcctFrom.AcctID)
			p.collect(statement, accountID, stmt.BankTranList)
			p.collectBalance(statement, accountID, stmt.BalAmt, stmt.DtAsOf)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(statement.Transactions),
		"balances", len(statement.Balances),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return statement, nil
}

func (p *Parser) collect(statement *Statement, accountID string, list *ofxgo.TransactionList) {
	if list == nil {
		return
	}
	for _, ofxTx := range list.Transactions {
		statement.Transactions = append(statement.Transactions, p.convertTransaction(ofxTx, accountID))
	}
}

func (p *Parser) collectBalance(statement *Statement, accountID string, amount ofxgo.Amount, asOf ofxgo.Date) {
	if asOf.IsZero() {
		slog.Warn("Statement has no ledger balance date", "account", accountID)
		return
	}
	value, _ := amount.Float64()
	statement.Balances = append(statement.Balances, model.Balance{
		AccountID: accountID,
		AsOf:      asOf.UTC(),
		Amount:    value,
		Source:    SourceName,
	})
}

// convertTransaction converts an OFX transaction to our model. OFX amounts are
// negative for debits; ours are positive for outflows.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	tx := model.Transaction{
		ID:           string(ofxTx.FiTID),
		AccountID:    accountID,
		MerchantName: p.extractMerchantName(ofxTx),
		Channel:      p.describe(ofxTx),
		Amount:       model.NewAmount(-amount),
		Timestamp:    model.NewTimestamp(ofxTx.DtPosted.Time),
	}
	if ofxTx.DtUser != nil && !ofxTx.DtUser.IsZero() {
		tx.CreatedAt = model.NewTimestamp(ofxTx.DtUser.Time)
	}

	if tx.ID == "" {
		tx.ID = syntheticID(accountID, ofxTx)
	}
	tx.Hash = tx.GenerateHash()

	return tx
}

// syntheticID derives a stable id for institutions that omit FITID, so the
// same statement imported twice still deduplicates.
func syntheticID(accountID string, ofxTx ofxgo.Transaction) string {
	key := fmt.Sprintf("%s|%s|%s|%s", accountID, ofxTx.DtPosted.UTC().Format("20060102150405"), ofxTx.TrnAmt.String(), ofxTx.Name)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// describe returns the transaction type, plus the memo when it adds detail.
func (p *Parser) describe(tx ofxgo.Transaction) string {
	parts := []string{tx.TrnType.String()}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" && !strings.EqualFold(memo, string(tx.Name)) {
		parts = append(parts, memo)
	}
	if tx.CheckNum != "" {
		parts = append(parts, "#"+string(tx.CheckNum))
	}
	return strings.Join(parts, " ")
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)

	// MEMO sometimes has better merchant info.
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}

	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}
