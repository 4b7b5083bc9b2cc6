package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alertas-dev/alertas/internal/amount"
)

// Brand identifies the card network an alert belongs to.
type Brand string

const (
	BrandVisa       Brand = "VISA"
	BrandMastercard Brand = "MASTERCARD"
)

// Brands lists the supported brands in pipeline order.
var Brands = []Brand{BrandVisa, BrandMastercard}

// Title returns the brand name as printed in notices ("Visa", "Mastercard").
func (b Brand) Title() string {
	s := strings.ToLower(string(b))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DefaultInstallments is the installment text shown when an alert omits it.
func (b Brand) DefaultInstallments() string {
	if b == BrandMastercard {
		return "01"
	}
	return "1"
}

// Placeholder is shown wherever a field was not found.
const Placeholder = "N/A"

// Field is the outcome of extracting one value: found (possibly empty) or missing.
type Field struct {
	value string
	found bool
}

// Found wraps an extracted value.
func Found(v string) Field { return Field{value: v, found: true} }

// Missing is the zero Field.
func Missing() Field { return Field{} }

// OK reports whether the value was found.
func (f Field) OK() bool { return f.found }

// Value returns the extracted value, empty when missing.
func (f Field) Value() string { return f.value }

// Or returns the value when found, otherwise fallback.
func (f Field) Or(fallback string) string {
	if f.found {
		return f.value
	}
	return fallback
}

// TransactionRecord is one card alert normalized into the common shape.
type TransactionRecord struct {
	Brand        Brand
	Merchant     Field
	AmountRaw    Field           // text as extracted, currency sign removed
	Amount       decimal.Decimal // valid only when AmountOK
	AmountOK     bool
	Installments Field // digits as extracted, e.g. "3" or "02"
	Date         Field
	Time         Field
}

// Usable reports whether the record carries a merchant or an amount.
func (r TransactionRecord) Usable() bool {
	return r.Merchant.OK() || r.AmountRaw.OK()
}

// InstallmentCount returns the parsed installment count, 1 when absent or invalid.
func (r TransactionRecord) InstallmentCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Installments.Value()))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// DisplayAmount renders the amount for reports and exports: the display format
// when it converted, otherwise the raw text, otherwise the placeholder.
func (r TransactionRecord) DisplayAmount() string {
	if r.AmountOK {
		return amount.Format(r.Amount)
	}
	return r.AmountRaw.Or(Placeholder)
}

// DisplayInstallments renders the installment text, or the brand default when
// it is absent or not a positive count.
func (r TransactionRecord) DisplayInstallments() string {
	if n, err := strconv.Atoi(strings.TrimSpace(r.Installments.Value())); err != nil || n < 1 {
		return r.Brand.DefaultInstallments()
	}
	return strings.TrimSpace(r.Installments.Value())
}

// Timestamp is a message date as delivered by the mail source: either structured
// or a combined "date time" string.
type Timestamp struct {
	At  time.Time
	Raw string
}

// At returns a structured timestamp.
func At(t time.Time) Timestamp { return Timestamp{At: t} }

// RawTimestamp returns a timestamp known only as text.
func RawTimestamp(s string) Timestamp { return Timestamp{Raw: s} }

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

var rawLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// Split returns the calendar date and time-of-day parts. A combined string is
// split at its first whitespace run; the time is missing when there is no second token.
func (t Timestamp) Split() (date, clock Field) {
	if !t.At.IsZero() {
		return Found(t.At.Format(dateLayout)), Found(t.At.Format(timeLayout))
	}
	parts := strings.Fields(t.Raw)
	switch len(parts) {
	case 0:
		return Missing(), Missing()
	case 1:
		return Found(parts[0]), Missing()
	default:
		return Found(parts[0]), Found(parts[1])
	}
}

// Time resolves the timestamp to an instant for ordering, reading zoneless
// text in the local time zone. Unparseable text reports false.
func (t Timestamp) Time() (time.Time, bool) {
	return t.TimeIn(time.Local)
}

// TimeIn is Time with zoneless text read in loc. Text carrying an offset keeps it.
func (t Timestamp) TimeIn(loc *time.Location) (time.Time, bool) {
	if !t.At.IsZero() {
		return t.At, true
	}
	raw := strings.TrimSpace(t.Raw)
	for _, layout := range rawLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// String renders the timestamp the way it is shown in reports.
func (t Timestamp) String() string {
	if !t.At.IsZero() {
		return t.At.Format(dateLayout + " " + timeLayout)
	}
	return t.Raw
}

// RawMessage is one alert email as returned by the mail source.
type RawMessage struct {
	ID        string
	Snippet   string
	Plain     string
	HTML      string
	Timestamp Timestamp
}

// Empty reports whether none of the bodies carry text.
func (m RawMessage) Empty() bool {
	return strings.TrimSpace(m.Snippet) == "" &&
		strings.TrimSpace(m.Plain) == "" &&
		strings.TrimSpace(m.HTML) == ""
}
