// Package pipeline runs the fetch, extract, report and export stages for
// every card brand.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alertas-dev/alertas/internal/export"
	"github.com/alertas-dev/alertas/internal/extract"
	"github.com/alertas-dev/alertas/internal/ledger"
	"github.com/alertas-dev/alertas/internal/logging"
	"github.com/alertas-dev/alertas/internal/mailbox"
	"github.com/alertas-dev/alertas/internal/model"
	"github.com/alertas-dev/alertas/internal/report"
	"github.com/alertas-dev/alertas/internal/runlog"
)

// Options carries the per-run settings.
type Options struct {
	RunID   string
	Since   time.Time
	Senders map[model.Brand]string
	Export  bool
	OutDir  string
	RunLog  string // empty disables the run log
}

// BrandResult summarizes one brand's pass.
type BrandResult struct {
	Brand     model.Brand
	Messages  int
	Unmatched int
	Ledger    *ledger.Ledger
}

// Result is the outcome of a full run.
type Result struct {
	Brands     []BrandResult
	ExportPath string // empty when nothing was exported
	UploadURI  string
}

// Brand returns the result for b, or nil.
func (r *Result) Brand(b model.Brand) *BrandResult {
	for i := range r.Brands {
		if r.Brands[i].Brand == b {
			return &r.Brands[i]
		}
	}
	return nil
}

// Runner wires a mail source to the extraction strategies.
type Runner struct {
	Source   mailbox.Source
	Registry *extract.Registry
	Out      io.Writer        // console report
	Uploader export.Uploader  // nil disables upload
	Now      func() time.Time // nil uses time.Now
}

// Run processes VISA then MASTERCARD, one after the other, then exports the
// merged records. The report is written to r.Out.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.FromContext(ctx).With(logging.FieldRunID, opts.RunID)
	ctx = logging.WithContext(ctx, logger)

	res := &Result{}
	for i, b := range model.Brands {
		if i > 0 {
			fmt.Fprintln(r.Out)
		}
		fmt.Fprintf(r.Out, "=== %s ALERTS ===\n", b)
		br, err := r.runBrand(ctx, b, opts)
		if err != nil {
			return res, err
		}
		res.Brands = append(res.Brands, br)
	}

	if opts.Export {
		if err := r.export(ctx, res, opts); err != nil {
			return res, err
		}
	}

	if opts.RunLog != "" {
		if err := runlog.Append(opts.RunLog, r.logEntries(res, opts)); err != nil {
			return res, fmt.Errorf("appending run log: %w", err)
		}
		logger.Debug("run log appended", logging.FieldPath, opts.RunLog)
	}
	return res, nil
}

func (r *Runner) runBrand(ctx context.Context, b model.Brand, opts Options) (BrandResult, error) {
	logger := logging.FromContext(ctx).With(logging.FieldBrand, b)
	br := BrandResult{Brand: b, Ledger: ledger.New(b)}

	strategy := r.Registry.Get(b)
	if strategy == nil {
		return br, fmt.Errorf("no extraction strategy registered for %s", b)
	}

	msgs, err := r.Source.Fetch(ctx, mailbox.Query{Sender: opts.Senders[b], Since: opts.Since})
	if err != nil {
		return br, fmt.Errorf("fetching %s alerts: %w", b, err)
	}
	br.Messages = len(msgs)
	logger.Info("fetched alerts", logging.FieldCount, len(msgs))
	if len(msgs) == 0 {
		fmt.Fprintf(r.Out, "No %s emails found\n", b.Title())
		return br, nil
	}

	ledger.SortMessages(msgs)
	for _, msg := range msgs {
		res, ok := strategy.Extract(msg)
		if !ok || !br.Ledger.Add(res.Record) {
			br.Unmatched++
			logger.Debug("no transaction in message", logging.FieldMessage, msg.ID)
			continue
		}
		if !res.Record.AmountOK && res.Record.AmountRaw.OK() {
			logger.Warn("amount left out of subtotal",
				logging.FieldMessage, msg.ID, "amount", res.Record.AmountRaw.Value())
		}
		logger.Debug("extracted",
			logging.FieldMessage, msg.ID, logging.FieldStep, res.Step, "received", msg.Timestamp.String())
	}

	table := report.Build(b, br.Ledger.Records(), br.Ledger.Total())
	if err := report.Render(r.Out, table); err != nil {
		return br, fmt.Errorf("writing %s report: %w", b, err)
	}
	logger.Info("brand done",
		logging.FieldCount, br.Ledger.Len(),
		logging.FieldSubtotal, br.Ledger.Total().StringFixed(2))
	return br, nil
}

func (r *Runner) export(ctx context.Context, res *Result, opts Options) error {
	logger := logging.FromContext(ctx)
	visa, mc := r.records(res, model.BrandVisa), r.records(res, model.BrandMastercard)

	path, err := export.NewExporter(opts.OutDir, r.Now).Export(visa, mc)
	if errors.Is(err, export.ErrNoData) {
		fmt.Fprintln(r.Out, "\nNo data to export to CSV")
		logger.Info("nothing to export")
		return nil
	}
	if err != nil {
		return fmt.Errorf("exporting CSV: %w", err)
	}
	res.ExportPath = path
	fmt.Fprintf(r.Out, "\n✓ Datos exportados a: %s\n", path)
	fmt.Fprintf(r.Out, "  Total de transacciones: %d\n", len(visa)+len(mc))
	logger.Info("exported", logging.FieldPath, path, logging.FieldCount, len(visa)+len(mc))

	if r.Uploader == nil {
		return nil
	}
	uri, err := r.Uploader.Upload(ctx, path)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	res.UploadURI = uri
	logger.Info("uploaded export", "uri", uri)
	return nil
}

func (r *Runner) records(res *Result, b model.Brand) []model.TransactionRecord {
	if br := res.Brand(b); br != nil {
		return br.Ledger.Records()
	}
	return nil
}

func (r *Runner) logEntries(res *Result, opts Options) []runlog.Entry {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	at := now()
	entries := make([]runlog.Entry, 0, len(res.Brands))
	for _, br := range res.Brands {
		entries = append(entries, runlog.Entry{
			Timestamp:  at,
			RunID:      opts.RunID,
			Brand:      br.Brand,
			Messages:   br.Messages,
			Records:    br.Ledger.Len(),
			Excluded:   br.Ledger.Excluded(),
			Subtotal:   br.Ledger.Total(),
			ExportPath: res.ExportPath,
		})
	}
	return entries
}
