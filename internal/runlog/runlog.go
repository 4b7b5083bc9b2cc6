// Package runlog keeps an append-only CSV history of pipeline runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alertas-dev/alertas/internal/model"
)

// Entry is one brand's summary for one run.
type Entry struct {
	Timestamp  time.Time
	RunID      string
	Brand      model.Brand
	Messages   int
	Records    int
	Excluded   int
	Subtotal   decimal.Decimal
	ExportPath string
}

// Header is the CSV header of a run log.
const Header = "timestamp,run_id,brand,messages,records,excluded,subtotal,export_path"

const (
	numFields     = 8
	colTimestamp  = 0
	colRunID      = 1
	colBrand      = 2
	colMessages   = 3
	colRecords    = 4
	colExcluded   = 5
	colSubtotal   = 6
	colExportPath = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colBrand] = string(e.Brand)
	row[colMessages] = strconv.Itoa(e.Messages)
	row[colRecords] = strconv.Itoa(e.Records)
	row[colExcluded] = strconv.Itoa(e.Excluded)
	row[colSubtotal] = e.Subtotal.StringFixed(2)
	row[colExportPath] = e.ExportPath
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	counts := make([]int, 3)
	for i, col := range []int{colMessages, colRecords, colExcluded} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts[i] = n
	}
	subtotal, err := decimal.NewFromString(record[colSubtotal])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing subtotal %q: %w", record[colSubtotal], err)
	}

	return Entry{
		Timestamp:  ts,
		RunID:      record[colRunID],
		Brand:      model.Brand(record[colBrand]),
		Messages:   counts[0],
		Records:    counts[1],
		Excluded:   counts[2],
		Subtotal:   subtotal,
		ExportPath: record[colExportPath],
	}, nil
}

// Append writes entries to the log at path, creating the file and header if needed.
func Append(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating run log dir: %w", err)
		}
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries in the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
