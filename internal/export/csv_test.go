package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertas-dev/alertas/internal/amount"
	"github.com/alertas-dev/alertas/internal/model"
)

func fixedClock() time.Time {
	return time.Date(2025, 7, 26, 9, 5, 7, 0, time.Local)
}

func visaRecord() model.TransactionRecord {
	rec := model.TransactionRecord{
		Brand:     model.BrandVisa,
		Merchant:  model.Found("ACME"),
		AmountRaw: model.Found("1.000,00"),
		Date:      model.Found("2025-07-25"),
		Time:      model.Found("14:03:09"),
	}
	rec.Amount, rec.AmountOK = amount.Argentine.Parse("1.000,00")
	return rec
}

func mastercardRecord() model.TransactionRecord {
	rec := model.TransactionRecord{
		Brand:        model.BrandMastercard,
		Merchant:     model.Found("Foo, Bar"),
		AmountRaw:    model.Found("1,234.56"),
		Installments: model.Found("2"),
		Date:         model.Found("01/02/2025"),
		Time:         model.Found("10:30"),
	}
	rec.Amount, rec.AmountOK = amount.US.Parse("1,234.56")
	return rec
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "transacciones_20250726_090507.csv", FileName(fixedClock()))
}

func TestMergeOrder(t *testing.T) {
	v := visaRecord()
	m := mastercardRecord()
	all := Merge([]model.TransactionRecord{v}, []model.TransactionRecord{m})
	require.Len(t, all, 2)
	assert.Equal(t, model.BrandVisa, all[0].Brand)
	assert.Equal(t, model.BrandMastercard, all[1].Brand)
}

func TestMarshalRecord(t *testing.T) {
	assert.Equal(t,
		[]string{"VISA", "ACME", "1.000,00", "1", "2025-07-25", "14:03:09"},
		MarshalRecord(visaRecord()))
	assert.Equal(t,
		[]string{"MASTERCARD", "N/A", "N/A", "01", "N/A", "N/A"},
		MarshalRecord(model.TransactionRecord{Brand: model.BrandMastercard}))
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecords(&buf, []model.TransactionRecord{visaRecord(), mastercardRecord()})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, strings.Split(Header, ","), rows[0])
	assert.Equal(t, "Foo, Bar", rows[2][1])
	assert.Equal(t, "1.234,56", rows[2][2])
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, fixedClock)

	path, err := e.Export([]model.TransactionRecord{visaRecord()}, []model.TransactionRecord{mastercardRecord()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transacciones_20250726_090507.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "VISA,ACME,\"1.000,00\",1,2025-07-25,14:03:09", lines[1])
	assert.Equal(t, "MASTERCARD,\"Foo, Bar\",\"1.234,56\",2,01/02/2025,10:30", lines[2])
}

func TestExportEmpty(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, fixedClock)

	path, err := e.Export(nil, nil)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, fixedClock)
	recs := []model.TransactionRecord{visaRecord()}

	first, err := e.Export(recs, nil)
	require.NoError(t, err)
	second, err := e.Export(recs, []model.TransactionRecord{mastercardRecord()})
	require.NoError(t, err)
	third, err := e.Export(recs, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "transacciones_20250726_090507.csv"), first)
	assert.Equal(t, filepath.Join(dir, "transacciones_20250726_090507_2.csv"), second)
	assert.Equal(t, filepath.Join(dir, "transacciones_20250726_090507_3.csv"), third)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(string(data), "\n"), "\n"), 2, "first export untouched")
}

func TestExportRemovesPartialFileOnWriteError(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, fixedClock)
	e.write = func(w io.Writer, _ []model.TransactionRecord) error {
		_, _ = io.WriteString(w, "Tarjeta,Establ")
		return errors.New("disk full")
	}

	path, err := e.Export([]model.TransactionRecord{visaRecord()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportSkipsNamesHeldByDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, FileName(fixedClock())), 0o755))

	path, err := NewExporter(dir, fixedClock).Export([]model.TransactionRecord{visaRecord()}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transacciones_20250726_090507_2.csv"), path)
}

func TestExportCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "csv")
	e := NewExporter(dir, fixedClock)
	_, err := e.Export([]model.TransactionRecord{visaRecord()}, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
