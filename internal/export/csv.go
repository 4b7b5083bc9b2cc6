// Package export writes the merged transaction set to a timestamped CSV file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alertas-dev/alertas/internal/model"
)

// Header is the CSV header row.
const Header = "Tarjeta,Establecimiento,Monto,Cuotas,Fecha,Hora"

const (
	numFields   = 6
	colBrand    = 0
	colMerchant = 1
	colAmount   = 2
	colCuotas   = 3
	colDate     = 4
	colTime     = 5

	maxCollisions = 100
)

// ErrNoData is returned when there are no records to export.
var ErrNoData = errors.New("no data to export")

// Merge concatenates Visa records before Mastercard records, each in its own order.
func Merge(visa, mastercard []model.TransactionRecord) []model.TransactionRecord {
	all := make([]model.TransactionRecord, 0, len(visa)+len(mastercard))
	all = append(all, visa...)
	return append(all, mastercard...)
}

// FileName returns the export file name for the instant at.
func FileName(at time.Time) string {
	return fmt.Sprintf("transacciones_%s.csv", at.Format("20060102_150405"))
}

// MarshalRecord converts a record to a CSV row.
func MarshalRecord(rec model.TransactionRecord) []string {
	row := make([]string, numFields)
	row[colBrand] = string(rec.Brand)
	row[colMerchant] = rec.Merchant.Or(model.Placeholder)
	row[colAmount] = rec.DisplayAmount()
	row[colCuotas] = rec.DisplayInstallments()
	row[colDate] = rec.Date.Or(model.Placeholder)
	row[colTime] = rec.Time.Or(model.Placeholder)
	return row
}

// WriteRecords writes the header and one row per record.
func WriteRecords(w io.Writer, records []model.TransactionRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Exporter writes export files into a directory.
type Exporter struct {
	dir   string
	now   func() time.Time
	write func(io.Writer, []model.TransactionRecord) error
}

// NewExporter creates an Exporter writing into dir. A nil now uses time.Now.
func NewExporter(dir string, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{dir: dir, now: now, write: WriteRecords}
}

// Export merges both brands and writes them to a new file, returning its path.
// It returns ErrNoData and writes nothing when both are empty.
func (e *Exporter) Export(visa, mastercard []model.TransactionRecord) (string, error) {
	all := Merge(visa, mastercard)
	if len(all) == 0 {
		return "", ErrNoData
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	f, path, err := createUnique(e.dir, FileName(e.now()))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := e.write(f, all); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// createUnique creates name in dir, or name with a "_2", "_3"... suffix when an
// earlier export in the same second already holds it.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxCollisions; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("creating export file: %w", err)
		}
		return f, path, nil
	}
	return nil, "", fmt.Errorf("creating export file: %d files named %s already exist", maxCollisions, name)
}
