// Package categorize assigns spending categories to transactions by keyword matching.
package categorize

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Categorizer maps merchant and channel text to a category.
type Categorizer struct {
	table *KeywordTable
}

// New creates a categorizer over table. A nil table uses DefaultKeywordTable.
// Categorizers that should share customizations must be given the same table.
func New(table *KeywordTable) *Categorizer {
	if table == nil {
		table = DefaultKeywordTable()
	}
	return &Categorizer{table: table}
}

// Table returns the keyword table backing the categorizer.
func (c *Categorizer) Table() *KeywordTable {
	return c.table
}

// Categorize returns the first category whose keyword occurs in text, or Other.
func (c *Categorizer) Categorize(text string) model.Category {
	text = strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if text == "" {
		return model.CategoryOther
	}
	category, _ := c.table.Match(text)
	return category
}

// CategorizeTransaction categorizes a transaction from its merchant and channel text.
func (c *Categorizer) CategorizeTransaction(txn model.Transaction) model.Category {
	return c.Categorize(txn.SearchText())
}

// CategorizeBatch categorizes each transaction, preserving input order.
// Transactions without an ID get a positional placeholder.
func (c *Categorizer) CategorizeBatch(transactions []model.Transaction) []model.CategorizedTransaction {
	out := make([]model.CategorizedTransaction, 0, len(transactions))
	for i, txn := range transactions {
		id := txn.ID
		if id == "" {
			id = PlaceholderID(i)
		}

		var amount *float64
		if txn.Amount.Valid {
			v := txn.Amount.Value
			amount = &v
		}

		out = append(out, model.CategorizedTransaction{
			TransactionID: id,
			Merchant:      txn.Merchant(),
			Amount:        amount,
			Category:      c.CategorizeTransaction(txn),
		})
	}
	return out
}

// PlaceholderID names the transaction at index i of a batch.
func PlaceholderID(i int) string {
	return fmt.Sprintf("txn-%d", i)
}
