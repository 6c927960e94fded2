package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
			expectedError: false,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
			expectedError: false,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedCount: 0,
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedCount: 0,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			reader := strings.NewReader(tt.ofxData)

			statement, err := parser.ParseFile(context.Background(), reader)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, statement.Transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()

	statement, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	transactions := statement.Transactions
	require.Len(t, transactions, 3)

	tx1 := transactions[0]
	assert.Equal(t, "2024011501", tx1.ID)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.MerchantName)
	assert.Equal(t, "DEBIT", tx1.Channel)
	assert.Equal(t, model.NewAmount(25.50), tx1.Amount)
	assert.Equal(t, "1234567890", tx1.AccountID)
	assert.True(t, tx1.Timestamp.Valid)
	assert.True(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC).Equal(tx1.Timestamp.Time))
	assert.NotEmpty(t, tx1.Hash)

	tx2 := transactions[1]
	assert.Equal(t, "2024012001", tx2.ID)
	assert.Equal(t, "Whole Foods Market", tx2.MerchantName)
	assert.Equal(t, model.NewAmount(125.00), tx2.Amount)

	tx3 := transactions[2]
	assert.Equal(t, "2024012501", tx3.ID)
	assert.Equal(t, "CHECK #1234", tx3.MerchantName)
	assert.Equal(t, "CHECK #1234", tx3.Channel)
	assert.Equal(t, model.NewAmount(500.00), tx3.Amount)
}

func TestParseLedgerBalance(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name    string
		ofxData string
		account string
		amount  float64
	}{
		{"bank", sampleBankOFX, "1234567890", 1000},
		{"credit card", sampleCreditCardOFX, "4111111111111111", -500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statement, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))
			require.NoError(t, err)
			require.Len(t, statement.Balances, 1)

			b := statement.Balances[0]
			assert.Equal(t, tt.account, b.AccountID)
			assert.InDelta(t, tt.amount, b.Amount, 1e-9)
			assert.Equal(t, SourceName, b.Source)
			assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), b.AsOf)
			assert.Equal(t, []string{tt.account}, statement.Accounts())
		})
	}
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()

	statement, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	transactions := statement.Transactions
	require.Len(t, transactions, 2)

	tx1 := transactions[0]
	assert.Equal(t, "CC2024011001", tx1.ID)
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", tx1.MerchantName)
	assert.Equal(t, model.NewAmount(45.99), tx1.Amount)
	assert.Equal(t, "4111111111111111", tx1.AccountID)

	tx2 := transactions[1]
	assert.Equal(t, "CC2024011501", tx2.ID)
	assert.Equal(t, "NETFLIX.COM", tx2.MerchantName)
	assert.Equal(t, model.NewAmount(15.00), tx2.Amount)
}

func TestConvertTransaction_MissingFITID(t *testing.T) {
	parser := NewParser()

	var amount ofxgo.Amount
	amount.SetFloat64(2500)
	ofxTx := ofxgo.Transaction{
		TrnType:  ofxgo.TrnTypeCredit,
		DtPosted: ofxgo.Date{Time: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)},
		TrnAmt:   amount,
		Name:     "ACME PAYROLL",
		Memo:     "DIRECT DEPOSIT",
	}

	txn := parser.convertTransaction(ofxTx, "555")
	assert.Len(t, txn.ID, 36)
	assert.Equal(t, model.NewAmount(-2500), txn.Amount, "deposits are inflows")
	assert.Equal(t, "CREDIT DIRECT DEPOSIT", txn.Channel)

	// Converting the same record again yields the same id.
	again := parser.convertTransaction(ofxTx, "555")
	assert.Equal(t, txn.ID, again.ID)
	assert.Equal(t, txn.Hash, again.Hash)

	other := parser.convertTransaction(ofxTx, "556")
	assert.NotEqual(t, txn.ID, other.ID)
}

func TestConvertTransaction_KeepsPostedZone(t *testing.T) {
	parser := NewParser()
	est := time.FixedZone("EST", -5*3600)

	var amount ofxgo.Amount
	amount.SetFloat64(-42)
	user := ofxgo.Date{Time: time.Date(2024, 3, 9, 23, 30, 0, 0, est)}
	ofxTx := ofxgo.Transaction{
		TrnType:  ofxgo.TrnTypeDebit,
		DtPosted: ofxgo.Date{Time: time.Date(2024, 3, 10, 21, 0, 0, 0, est)},
		DtUser:   &user,
		TrnAmt:   amount,
		FiTID:    "EVENING1",
		Name:     "TACO TRUCK",
	}

	txn := parser.convertTransaction(ofxTx, "555")
	assert.Equal(t, "2024-03-10", txn.Timestamp.Date(), "evening purchases stay on their posted day")
	assert.Equal(t, "2024-03-09", txn.CreatedAt.Date())
	assert.Equal(t, "2024-03-10T21:00:00-05:00", txn.Timestamp.Text())
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	got := parser.preprocessOFX("\n\n<STATUS>\n<SEVERITY>Info</SEVERITY>\n<CODE\n")
	assert.Equal(t, "<STATUS>\n<SEVERITY>INFO</SEVERITY>\n<CODE>\n", got)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "strip leading date",
			input:    "03/14 SHELL OIL 5551",
			expected: "SHELL OIL 5551",
		},
		{
			name:     "generic name falls back to memo",
			input:    "PURCHASE",
			memo:     "TRADER JOE'S #552",
			expected: "TRADER JOE'S #552",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			result := parser.extractMerchantName(tx)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}
