// Package ingest runs the import pipeline: read new exports, store their
// transactions, collect metadata for unseen descriptions, and total the batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/budget/internal/aggregate"
	"github.com/cleared-dev/budget/internal/importer"
	"github.com/cleared-dev/budget/internal/logger"
	"github.com/cleared-dev/budget/internal/metadata"
	"github.com/cleared-dev/budget/internal/model"
	"github.com/cleared-dev/budget/internal/reconcile"
	"github.com/cleared-dev/budget/internal/runlog"
	"github.com/cleared-dev/budget/internal/store"
)

// Options tunes a run.
type Options struct {
	// DryRun parses and totals only. Nothing is stored, moved, or asked.
	DryRun bool
	// NoPrompt skips metadata collection.
	NoPrompt bool
	// Keep leaves imported files in new/.
	Keep bool
}

// FileReport is what happened to one export.
type FileReport struct {
	Name    string
	Origin  importer.Origin
	Records int
	Skipped int
	Status  runlog.Status
	Err     error
}

// Result summarizes a run.
type Result struct {
	BatchID      uuid.UUID
	Files        []FileReport
	Transactions []model.Transaction
	// Pending lists descriptions with no stored metadata, sorted.
	Pending   []string
	Collected []model.DescriptionMetadata
	Totals    aggregate.Totals
}

// Imported counts files whose transactions were accepted.
func (r *Result) Imported() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == runlog.StatusImported {
			n++
		}
	}
	return n
}

// Pipeline wires the importer, store, and metadata collector together.
type Pipeline struct {
	dir      string
	parser   *importer.Parser
	store    store.Store
	prompter metadata.Prompter
	opts     Options
	now      func() time.Time
}

// New creates a Pipeline over the import root dir. st may be nil for a dry
// run and prompter may be nil when prompting is disabled.
func New(dir string, parser *importer.Parser, st store.Store, prompter metadata.Prompter, opts Options) *Pipeline {
	return &Pipeline{
		dir:      dir,
		parser:   parser,
		store:    st,
		prompter: prompter,
		opts:     opts,
		now:      time.Now,
	}
}

// Run executes the pipeline once. Unrecognized and malformed files are
// reported and left in new/; storage failures end the run with an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx)

	if !p.opts.DryRun && p.store == nil {
		return nil, errors.New("ingest: no store configured")
	}

	files, err := importer.Scan(p.dir)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if p.store != nil {
		res.BatchID = p.store.BatchID()
	}
	if len(files) == 0 {
		log.Info().Str("dir", p.dir).Msg("no new files")
		return res, nil
	}

	runErr := p.importFiles(ctx, log, files, res)
	if runErr == nil && !p.opts.DryRun {
		runErr = p.collectMetadata(ctx, log, res)
	}

	res.Totals = aggregate.Summarize(res.Transactions)

	if !p.opts.DryRun {
		if err := runlog.Append(p.dir, p.logEntries(res)); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("writing run log: %w", err))
		}
	}
	return res, runErr
}

func (p *Pipeline) importFiles(ctx context.Context, log zerolog.Logger, files []importer.FileInfo, res *Result) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, txns := p.readFile(log, f)
		if report.Status != runlog.StatusImported {
			res.Files = append(res.Files, report)
			continue
		}

		if !p.opts.DryRun {
			if _, err := p.store.InsertTransactions(ctx, txns); err != nil {
				report.Status = runlog.StatusFailed
				report.Err = err
				res.Files = append(res.Files, report)
				return fmt.Errorf("storing %s: %w", f.Name, err)
			}
			if !p.opts.Keep {
				archived, err := importer.MarkProcessed(p.dir, f.Name)
				if err != nil {
					report.Err = err
					res.Files = append(res.Files, report)
					res.Transactions = append(res.Transactions, txns...)
					return err
				}
				if archived != f.Name {
					log.Info().Str("file", f.Name).Str("archived_as", archived).Msg("processed/ already had this name")
				}
			}
		}

		log.Info().
			Str("file", f.Name).
			Stringer("origin", report.Origin).
			Int("records", report.Records).
			Int("skipped", report.Skipped).
			Msg("imported")
		res.Files = append(res.Files, report)
		res.Transactions = append(res.Transactions, txns...)
	}
	return nil
}

// readFile parses one export. Failures are recorded in the report rather
// than returned so the batch can continue.
func (p *Pipeline) readFile(log zerolog.Logger, f importer.FileInfo) (FileReport, []model.Transaction) {
	report := FileReport{Name: f.Name}

	fh, err := os.Open(f.Path)
	if err != nil {
		report.Status = runlog.StatusFailed
		report.Err = fmt.Errorf("opening %s: %w", f.Name, err)
		log.Error().Err(err).Str("file", f.Name).Msg("cannot open file")
		return report, nil
	}
	defer fh.Close()

	fr, err := p.parser.ReadFile(fh)
	report.Origin = fr.Origin
	report.Skipped = fr.Skipped
	if err != nil {
		report.Err = err
		if errors.Is(err, importer.ErrUnrecognizedOrigin) {
			report.Status = runlog.StatusUnrecognized
			log.Warn().Err(err).Str("file", f.Name).Msg("skipping unrecognized file")
		} else {
			report.Status = runlog.StatusFailed
			log.Error().Err(err).Str("file", f.Name).Msg("file aborted")
		}
		return report, nil
	}

	if fr.Skipped > 0 {
		log.Debug().Str("file", f.Name).Int("skipped", fr.Skipped).Msg("rows skipped")
	}
	report.Records = len(fr.Records)
	report.Status = runlog.StatusImported
	return report, fr.Records
}

// collectMetadata asks about every description the store has no metadata
// for and stores the answers. Descriptions from earlier runs that were
// skipped or cut off by an abort are asked again. Completed answers are kept
// even when prompting fails.
func (p *Pipeline) collectMetadata(ctx context.Context, log zerolog.Logger, res *Result) error {
	if len(res.Transactions) == 0 {
		return nil
	}

	current := reconcile.Descriptions(res.Transactions)
	earlier, err := p.store.SelectRecordDescriptions(ctx)
	if err != nil {
		return fmt.Errorf("loading record descriptions: %w", err)
	}
	current.Add(earlier...)

	stored, err := p.store.SelectDescriptions(ctx)
	if err != nil {
		return fmt.Errorf("loading descriptions: %w", err)
	}
	res.Pending = reconcile.Reconcile(current, stored).Sorted()
	log.Info().Int("pending", len(res.Pending)).Msg("descriptions without metadata")

	if p.opts.NoPrompt || p.prompter == nil || len(res.Pending) == 0 {
		return nil
	}

	collector := metadata.NewCollector(p.prompter, metadata.WithRecordHook(func(md model.DescriptionMetadata) {
		log.Debug().Str("description", md.Description).Msg("metadata collected")
	}))
	collected, collectErr := collector.Collect(ctx, res.Pending)
	res.Collected = collected

	if _, err := p.store.InsertDescriptions(ctx, collected); err != nil {
		return errors.Join(collectErr, fmt.Errorf("storing descriptions: %w", err))
	}
	return collectErr
}

func (p *Pipeline) logEntries(res *Result) []runlog.Entry {
	ts := p.now()
	entries := make([]runlog.Entry, 0, len(res.Files))
	for _, f := range res.Files {
		e := runlog.Entry{
			Timestamp: ts,
			BatchID:   res.BatchID,
			File:      f.Name,
			Origin:    f.Origin.String(),
			Records:   f.Records,
			Skipped:   f.Skipped,
			Status:    f.Status,
		}
		if f.Err != nil {
			e.Detail = f.Err.Error()
		}
		entries = append(entries, e)
	}
	return entries
}
