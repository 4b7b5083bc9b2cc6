package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestParse(t *testing.T) {
	tests := []struct {
		conv   Convention
		raw    string
		want   string
		wantOK bool
	}{
		{Argentine, "1.234,56", "1234.56", true},
		{Argentine, "250,50", "250.5", true},
		{Argentine, "1.000.000", "1000000", true},
		{Argentine, "$ 99,90", "99.9", true},
		{US, "1,234.56", "1234.56", true},
		{US, "$1,000.00", "1000", true},
		{US, "250.50", "250.5", true},
		{US, "12", "12", true},
		{Argentine, "N/A", "0", false},
		{US, "N/A", "0", false},
		{US, "", "0", false},
		{Argentine, "1,2,3", "0", false},
		{US, "1e5", "0", false},
		{Convention("klingon"), "12", "0", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.conv)+"/"+tt.raw, func(t *testing.T) {
			got, ok := tt.conv.Parse(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"5", "5,00"},
		{"250.5", "250,50"},
		{"1234.56", "1.234,56"},
		{"1250.50", "1.250,50"},
		{"100000", "100.000,00"},
		{"1234567.891", "1.234.567,89"},
		{"-1234.5", "-1.234,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(dec(tt.in)), "Format(%s)", tt.in)
	}
}

func TestRoundTripThroughDisplay(t *testing.T) {
	raws := map[Convention][]string{
		Argentine: {"1.234,56", "0,01", "999.999,99", "250,5"},
		US:        {"1,234.56", "0.01", "999,999.99", "250.5"},
	}
	for conv, values := range raws {
		for _, raw := range values {
			canonical, ok := conv.Parse(raw)
			require.True(t, ok, raw)

			back, ok := ParseDisplay(Format(canonical))
			require.True(t, ok, raw)
			assert.True(t, canonical.Round(2).Equal(back), "%s: %s != %s", raw, canonical, back)
		}
	}
}

func TestConventionsConverge(t *testing.T) {
	ar, ok := Argentine.Parse("1.234,56")
	require.True(t, ok)
	us, ok := US.Parse("1,234.56")
	require.True(t, ok)
	assert.True(t, ar.Equal(us))
	assert.Equal(t, Format(ar), Format(us))
}

func TestParseConvention(t *testing.T) {
	c, err := ParseConvention(" US ")
	require.NoError(t, err)
	assert.Equal(t, US, c)

	c, err = ParseConvention("argentine")
	require.NoError(t, err)
	assert.Equal(t, Argentine, c)

	_, err = ParseConvention("eu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown amount convention")
}
