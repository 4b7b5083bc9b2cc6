package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertas-dev/alertas/internal/amount"
	"github.com/alertas-dev/alertas/internal/model"
)

func visaRecord() model.TransactionRecord {
	rec := model.TransactionRecord{
		Brand:        model.BrandVisa,
		Merchant:     model.Found("ACME"),
		AmountRaw:    model.Found("1.234,56"),
		Installments: model.Found("3"),
		Date:         model.Found("2025-07-25"),
		Time:         model.Found("14:03:09"),
	}
	rec.Amount, rec.AmountOK = amount.Argentine.Parse("1.234,56")
	return rec
}

func TestVisaTable(t *testing.T) {
	rec := visaRecord()
	table := Build(model.BrandVisa, []model.TransactionRecord{rec}, rec.Amount)
	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "Establecimiento                          Monto           Cuotas   Fecha y Hora", lines[0])
	assert.Equal(t, strings.Repeat("-", 90), lines[1])
	assert.Equal(t, "ACME                                     $1.234,56       3        2025-07-25 14:03:09", lines[2])
	assert.Equal(t, strings.Repeat("-", 90), lines[3])
	assert.Equal(t, "SUBTOTAL VISA:                           $1.234,56", lines[4])
}

func TestMastercardTablePlaceholders(t *testing.T) {
	rec := model.TransactionRecord{
		Brand:     model.BrandMastercard,
		AmountRaw: model.Found("N/A"),
		Date:      model.Found("01/02/2025"),
	}
	table := Build(model.BrandMastercard, []model.TransactionRecord{rec}, decimal.Zero)
	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "Comercio                                 Importe         Cuotas   Fecha        Hora", lines[0])
	assert.Equal(t, "N/A                                      $N/A            01       01/02/2025   N/A", lines[2])
	assert.Equal(t, "SUBTOTAL MASTERCARD:                     $0,00", lines[4])
}

func TestEmptyTable(t *testing.T) {
	table := Build(model.BrandVisa, nil, decimal.Zero)
	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "SUBTOTAL VISA:                           $0,00", lines[3])
}

func TestPadUsesDisplayWidth(t *testing.T) {
	assert.Equal(t, "Café  ", pad("Café", 6))
	assert.Equal(t, "toolong", pad("toolong", 3))
	assert.Equal(t, "x", pad("x", 0))
}

func TestRenderToNonTerminalIsPlain(t *testing.T) {
	rec := visaRecord()
	table := Build(model.BrandVisa, []model.TransactionRecord{rec}, rec.Amount)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, table))
	assert.Equal(t, table.String(), buf.String())
}
