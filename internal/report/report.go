// Package report renders per-brand transaction tables for the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/alertas-dev/alertas/internal/amount"
	"github.com/alertas-dev/alertas/internal/model"
)

// ruleWidth is the length of the dashed separators.
const ruleWidth = 90

// Column is a table column. A zero Width leaves the cell unpadded.
type Column struct {
	Title string
	Width int
}

// Table is a rendered-ready brand report.
type Table struct {
	Brand    model.Brand
	Columns  []Column
	Rows     [][]string
	Subtotal decimal.Decimal
}

var (
	visaColumns = []Column{
		{Title: "Establecimiento", Width: 40},
		{Title: "Monto", Width: 15},
		{Title: "Cuotas", Width: 8},
		{Title: "Fecha y Hora"},
	}
	mastercardColumns = []Column{
		{Title: "Comercio", Width: 40},
		{Title: "Importe", Width: 15},
		{Title: "Cuotas", Width: 8},
		{Title: "Fecha", Width: 12},
		{Title: "Hora"},
	}
)

// Build lays out records for brand with the brand's columns.
func Build(brand model.Brand, records []model.TransactionRecord, subtotal decimal.Decimal) Table {
	t := Table{Brand: brand, Subtotal: subtotal}
	if brand == model.BrandMastercard {
		t.Columns = mastercardColumns
	} else {
		t.Columns = visaColumns
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, row(brand, rec))
	}
	return t
}

func row(brand model.Brand, rec model.TransactionRecord) []string {
	merchant := rec.Merchant.Or(model.Placeholder)
	amt := "$" + rec.DisplayAmount()
	cuotas := rec.DisplayInstallments()
	date := rec.Date.Or(model.Placeholder)
	clock := rec.Time.Or(model.Placeholder)

	if brand == model.BrandMastercard {
		return []string{merchant, amt, cuotas, date, clock}
	}
	stamp := date
	if rec.Time.OK() {
		stamp += " " + rec.Time.Value()
	}
	return []string{merchant, amt, cuotas, stamp}
}

// SubtotalLine returns the "SUBTOTAL <BRAND>:" line.
func (t Table) SubtotalLine() string {
	return pad(fmt.Sprintf("SUBTOTAL %s:", t.Brand), 40) + " $" + amount.Format(t.Subtotal)
}

// String renders the table as plain text.
func (t Table) String() string {
	var b strings.Builder
	t.write(&b, lipgloss.NewStyle(), lipgloss.NewStyle())
	return b.String()
}

// Render writes the table to w. Header and subtotal are bold when w is a terminal.
func Render(w io.Writer, t Table) error {
	r := lipgloss.NewRenderer(w)
	var b strings.Builder
	t.write(&b, r.NewStyle().Bold(true), r.NewStyle().Bold(true))
	_, err := io.WriteString(w, b.String())
	return err
}

func (t Table) write(b *strings.Builder, header, subtotal lipgloss.Style) {
	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = c.Title
	}
	b.WriteString(header.Render(t.line(titles)))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteByte('\n')
	for _, r := range t.Rows {
		b.WriteString(t.line(r))
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteByte('\n')
	b.WriteString(subtotal.Render(t.SubtotalLine()))
	b.WriteByte('\n')
}

func (t Table) line(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := 0
		if i < len(t.Columns) {
			width = t.Columns[i].Width
		}
		parts[i] = pad(cell, width)
	}
	return strings.Join(parts, " ")
}

// pad left-aligns s to width display cells; longer text is left intact.
func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
