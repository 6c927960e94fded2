package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for daily buckets and forecast dates.
const DateLayout = "2006-01-02"

// Transaction is a single raw transaction record as supplied by a datastore,
// an import, or a request body. Amount and Timestamp tolerate malformed input;
// callers check Valid before using them.
type Transaction struct {
	Timestamp    Timestamp `json:"timestamp"`
	CreatedAt    Timestamp `json:"created_at"`
	ID           string    `json:"transaction_id,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	MerchantName string    `json:"merchant_name,omitempty"`
	Channel      string    `json:"channel,omitempty"` // Channel or free-text description
	Hash         string    `json:"-"`
	Amount       Amount    `json:"transaction_amount"`
}

// Dated returns the timestamp that dates the transaction, falling back to CreatedAt.
func (t *Transaction) Dated() (Timestamp, bool) {
	if t.Timestamp.Valid {
		return t.Timestamp, true
	}
	if t.CreatedAt.Valid {
		return t.CreatedAt, true
	}
	return Timestamp{}, false
}

// When returns the transaction time, falling back to CreatedAt.
func (t *Transaction) When() (time.Time, bool) {
	ts, ok := t.Dated()
	return ts.Time, ok
}

// Merchant returns the display label: merchant name, else channel text.
func (t *Transaction) Merchant() string {
	if m := strings.TrimSpace(t.MerchantName); m != "" {
		return m
	}
	return strings.TrimSpace(t.Channel)
}

// SearchText is the merchant name joined with the channel text, used for categorization.
func (t *Transaction) SearchText() string {
	return strings.TrimSpace(t.MerchantName + " " + t.Channel)
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	date := ""
	if when, ok := t.When(); ok {
		date = when.UTC().Format(time.RFC3339)
	}
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.ID,
		date,
		t.Amount.Value,
		t.Merchant(),
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Amount is a transaction amount that may have failed to parse.
type Amount struct {
	Value float64
	Valid bool
}

// NewAmount returns a valid amount, or an invalid one for NaN and infinities.
func NewAmount(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{Value: v, Valid: true}
}

// ParseAmount coerces text such as "12.50" or "$1,200" into an Amount.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Amount{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount{}
	}
	return NewAmount(v)
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else yields an
// invalid amount rather than an error so one dirty record never fails a batch.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint:nilerr // malformed amounts are tolerated
		}
		*a = ParseAmount(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil //nolint:nilerr // malformed amounts are tolerated
	}
	*a = NewAmount(v)
	return nil
}

// MarshalJSON writes the value, or null when invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// Timestamp is a transaction time that may have failed to parse. A floating
// timestamp was written without a zone: it names a wall-clock time, kept in
// Time with a UTC location, and is read in whatever zone the reader uses.
type Timestamp struct {
	Time     time.Time
	Valid    bool
	Floating bool
}

// floatingLayout is the text form of floating timestamps.
const floatingLayout = "2006-01-02T15:04:05.999999999"

var timestampLayouts = []struct {
	layout   string
	floating bool
}{
	{time.RFC3339Nano, false},
	{floatingLayout, true},
	{"2006-01-02 15:04:05.999999999-07:00", false},
	{"2006-01-02 15:04:05.999999999", true},
	{DateLayout, true},
}

// NewTimestamp returns a valid timestamp unless t is the zero time.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t, Valid: true}
}

// ParseTimestamp accepts ISO-8601 dates and date-times. Values without a zone
// are floating.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			ts := NewTimestamp(t)
			ts.Floating = ts.Valid && l.floating
			return ts
		}
	}
	return Timestamp{}
}

// In returns the instant in loc. A floating timestamp keeps its date and time
// of day and is read on loc's wall clock.
func (ts Timestamp) In(loc *time.Location) time.Time {
	if ts.Floating {
		t := ts.Time
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return ts.Time.In(loc)
}

// Date returns the calendar date in the timestamp's own zone.
func (ts Timestamp) Date() string {
	return ts.Time.Format(DateLayout)
}

// Text returns a form ParseTimestamp reads back unchanged: RFC 3339 with the
// original offset, or a zone-less date-time when floating. Invalid is "".
func (ts Timestamp) Text() string {
	switch {
	case !ts.Valid:
		return ""
	case ts.Floating:
		return ts.Time.Format(floatingLayout)
	default:
		return ts.Time.Format(time.RFC3339Nano)
	}
}

// UnmarshalJSON accepts ISO-8601 strings; unparseable input yields an invalid timestamp.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil //nolint:nilerr // malformed timestamps are tolerated
	}
	*ts = ParseTimestamp(s)
	return nil
}

// MarshalJSON writes the Text form, or null when invalid.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Text())
}

// String returns the Text form, or "Unknown".
func (ts Timestamp) String() string {
	if !ts.Valid {
		return "Unknown"
	}
	return ts.Text()
}
