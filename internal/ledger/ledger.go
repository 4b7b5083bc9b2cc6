// Package ledger accumulates extracted records and their running total per brand.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alertas-dev/alertas/internal/model"
)

// Ledger holds one brand's records in processing order and their total.
type Ledger struct {
	brand    model.Brand
	records  []model.TransactionRecord
	total    decimal.Decimal
	excluded int
}

// New creates an empty ledger for brand.
func New(brand model.Brand) *Ledger {
	return &Ledger{brand: brand, total: decimal.Zero}
}

// Brand returns the ledger's brand.
func (l *Ledger) Brand() model.Brand { return l.brand }

// Add appends rec. Records with neither merchant nor amount are rejected and
// report false. An amount that did not convert is kept but not totaled.
func (l *Ledger) Add(rec model.TransactionRecord) bool {
	if !rec.Usable() {
		return false
	}
	l.records = append(l.records, rec)
	if rec.AmountOK {
		l.total = l.total.Add(rec.Amount)
	} else if rec.AmountRaw.OK() {
		l.excluded++
	}
	return true
}

// Records returns a copy of the accumulated records.
func (l *Ledger) Records() []model.TransactionRecord {
	out := make([]model.TransactionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Total returns the exact sum of all converted amounts.
func (l *Ledger) Total() decimal.Decimal { return l.total }

// Excluded returns how many records carried an amount that did not convert.
func (l *Ledger) Excluded() int { return l.excluded }

// SortMessages orders messages oldest first. Messages whose timestamp cannot be
// resolved keep their relative order after the resolved ones.
func SortMessages(msgs []model.RawMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ti, okI := msgs[i].Timestamp.Time()
		tj, okJ := msgs[j].Timestamp.Time()
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI != okJ:
			return okI
		default:
			return false
		}
	})
}
