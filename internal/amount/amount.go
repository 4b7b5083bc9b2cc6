// Package amount converts locale-formatted money strings to exact decimals and
// renders decimals in the dot-thousands, comma-decimal display format.
package amount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Convention is the numeric locale a raw amount was written in.
type Convention string

const (
	// Argentine writes 1.234,56.
	Argentine Convention = "argentine"
	// US writes 1,234.56.
	US Convention = "us"
)

// ParseConvention resolves a configured convention name.
func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case Argentine, US:
		return c, nil
	default:
		return "", fmt.Errorf("unknown amount convention %q (want %q or %q)", s, Argentine, US)
	}
}

// Parse converts raw in convention c to a decimal. Any residue that is not a
// number reports false; it never panics.
func (c Convention) Parse(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	switch c {
	case Argentine:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case US:
		s = strings.ReplaceAll(s, ",", "")
	default:
		return decimal.Zero, false
	}
	if s == "" || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Format renders d with dot thousands, comma decimals and two fractional digits.
func Format(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// ParseDisplay reads a string produced by Format.
func ParseDisplay(s string) (decimal.Decimal, bool) {
	return Argentine.Parse(s)
}
