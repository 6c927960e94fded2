package categorize

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/spice-insights/internal/model"
)

// ErrUnknownCategory is returned when keywords target a category outside the taxonomy.
var ErrUnknownCategory = errors.New("unknown category")

// KeywordTable maps each category to its lowercase substring keywords.
// The table is safe for concurrent use; lookups take a read lock so it can be
// extended at runtime, though it is normally configured once at startup.
type KeywordTable struct {
	keywords map[model.Category][]string
	mu       sync.RWMutex
}

// NewKeywordTable creates an empty table.
func NewKeywordTable() *KeywordTable {
	return &KeywordTable{keywords: make(map[model.Category][]string)}
}

// DefaultKeywordTable creates a table seeded with DefaultKeywords.
func DefaultKeywordTable() *KeywordTable {
	t := NewKeywordTable()
	for category, keywords := range DefaultKeywords() {
		// Defaults only reference taxonomy categories.
		_ = t.AddKeywords(category, keywords...)
	}
	return t
}

// AddKeywords extends a category with additional keywords. Keywords are
// lowercased and trimmed; blanks and duplicates are ignored.
func (t *KeywordTable) AddKeywords(category model.Category, keywords ...string) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.keywords[category]
	for _, kw := range keywords {
		kw = normalize(kw)
		if kw == "" || contains(existing, kw) {
			continue
		}
		existing = append(existing, kw)
	}
	t.keywords[category] = existing
	return nil
}

// Keywords returns a sorted copy of the keywords for a category.
func (t *KeywordTable) Keywords(category model.Category) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(t.keywords[category]))
	copy(out, t.keywords[category])
	sort.Strings(out)
	return out
}

// Match returns the first category, in taxonomy order, with a keyword contained
// in text. Text must already be normalized.
func (t *KeywordTable) Match(text string) (model.Category, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, category := range model.Categories() {
		for _, kw := range t.keywords[category] {
			if strings.Contains(text, kw) {
				return category, true
			}
		}
	}
	return model.CategoryOther, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
