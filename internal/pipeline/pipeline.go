// Package pipeline drives a translation run: it selects the rows that still
// need work, masks their placeholders, sends them to a translation service in
// bounded batches, validates what comes back, and writes results into the
// table. Batches run sequentially; one failed batch never discards the work
// of the batches before it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valpere/tabtran/internal/apperrors"
	"github.com/valpere/tabtran/internal/placeholder"
	"github.com/valpere/tabtran/internal/qa"
	"github.com/valpere/tabtran/internal/table"
	"github.com/valpere/tabtran/internal/translator"
)

const (
	DefaultBatchSize       = 50
	DefaultMaxBatchChars   = 9000
	DefaultRequestInterval = time.Second
)

// Outcome classifies what happened to a single row during a run.
type Outcome string

const (
	OutcomeTranslated Outcome = "translated"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeQAFailed   Outcome = "qa_failed"
	OutcomeError      Outcome = "error"
)

// RowOutcome records the result for one row. Row is the 1-based data row
// number, matching what parse errors report.
type RowOutcome struct {
	Row     int
	Source  string
	Outcome Outcome
	Detail  string
}

// Summary aggregates a run. Aborted runs still carry the counts for every
// batch that completed before the abort.
type Summary struct {
	TotalRows  int
	Eligible   int
	Translated int
	Skipped    int
	QAFailed   int
	Errors     int

	Aborted     bool
	AbortBatch  int
	AbortReason string

	Elapsed time.Duration
	Rows    []RowOutcome
}

// Config tunes a run. Zero values fall back to the defaults above.
type Config struct {
	BatchSize       int
	MaxBatchChars   int
	RequestInterval time.Duration
	SourceLang      string
	TargetLang      string
	// Overwrite retranslates rows that already have a non-empty target.
	Overwrite bool
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxBatchChars <= 0 {
		c.MaxBatchChars = DefaultMaxBatchChars
	}
	if c.RequestInterval <= 0 {
		c.RequestInterval = DefaultRequestInterval
	}
	return c
}

// Pipeline runs batches against one translation service.
type Pipeline struct {
	svc    translator.Service
	masker *placeholder.Masker
	val    *qa.Validator
	cfg    Config

	sleep func(time.Duration)
	log   *slog.Logger
}

func New(svc translator.Service, masker *placeholder.Masker, val *qa.Validator, cfg Config) *Pipeline {
	return &Pipeline{
		svc:    svc,
		masker: masker,
		val:    val,
		cfg:    cfg.withDefaults(),
		sleep:  time.Sleep,
		log:    slog.Default(),
	}
}

// unit is one row prepared for translation: placeholders replaced by opaque
// markers, with the original tokens kept for restoration.
type unit struct {
	row    int // index into tbl.Rows
	masked string
	tokens []string
}

// Run translates every eligible row of tbl in place and returns the summary.
// A fatal service error (quota, auth) aborts the run; rows translated before
// the abort keep their results. The returned error is non-nil only when the
// context is cancelled.
func (p *Pipeline) Run(ctx context.Context, tbl *table.Table) (*Summary, error) {
	start := time.Now()
	sum := &Summary{TotalRows: len(tbl.Rows)}

	units := p.collect(tbl, sum)
	sum.Eligible = len(units)
	batches := splitBatches(units, p.cfg.BatchSize, p.cfg.MaxBatchChars)

	p.log.Info("starting translation run",
		"rows", sum.TotalRows, "eligible", sum.Eligible, "batches", len(batches),
		"provider", p.svc.Name(), "target", p.cfg.TargetLang)

	for i, batch := range batches {
		if i > 0 {
			if err := p.pause(ctx); err != nil {
				sum.Elapsed = time.Since(start)
				return sum, err
			}
		}

		texts := make([]string, len(batch))
		for j, u := range batch {
			texts[j] = u.masked
		}

		out, err := p.svc.TranslateBatch(ctx, texts, p.cfg.SourceLang, p.cfg.TargetLang)
		if err != nil {
			if ctx.Err() != nil {
				sum.Elapsed = time.Since(start)
				return sum, ctx.Err()
			}
			if apperrors.IsFatal(err) {
				sum.Aborted = true
				sum.AbortBatch = i + 1
				sum.AbortReason = err.Error()
				p.log.Error("aborting run, remaining rows left untranslated",
					"batch", i+1, "of", len(batches), "error", err)
				break
			}
			// Non-fatal batch failure: leave these rows empty so a later
			// run picks them up, and keep going.
			for _, u := range batch {
				sum.Errors++
				sum.Rows = append(sum.Rows, RowOutcome{
					Row:     u.row + 1,
					Source:  tbl.Source(u.row),
					Outcome: OutcomeError,
					Detail:  err.Error(),
				})
			}
			p.log.Warn("batch failed", "batch", i+1, "rows", len(batch), "error", err)
			continue
		}

		for j, u := range batch {
			p.accept(tbl, sum, u, out[j])
		}
		p.log.Info("batch done", "batch", i+1, "of", len(batches), "rows", len(batch))
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

// collect gathers the rows that need translation, masking their placeholders
// on the way, and records skips for rows already translated.
func (p *Pipeline) collect(tbl *table.Table, sum *Summary) []unit {
	var units []unit
	for i := range tbl.Rows {
		src := tbl.Source(i)
		if src == "" {
			continue
		}
		if !p.cfg.Overwrite && tbl.HasTranslation(i) {
			sum.Skipped++
			sum.Rows = append(sum.Rows, RowOutcome{
				Row:     i + 1,
				Source:  src,
				Outcome: OutcomeSkipped,
			})
			continue
		}
		masked, tokens := p.masker.Mask(src)
		units = append(units, unit{row: i, masked: masked, tokens: tokens})
	}
	return units
}

// accept restores placeholders in one candidate, validates it, and writes it
// into the table when it passes.
func (p *Pipeline) accept(tbl *table.Table, sum *Summary, u unit, candidate string) {
	src := tbl.Source(u.row)
	restored := placeholder.Restore(candidate, u.tokens)

	res := p.val.Validate(src, restored)
	if !res.OK {
		sum.QAFailed++
		sum.Rows = append(sum.Rows, RowOutcome{
			Row:     u.row + 1,
			Source:  src,
			Outcome: OutcomeQAFailed,
			Detail:  fmt.Sprintf("%s: %s", res.Reason, res.Detail),
		})
		p.log.Warn("translation rejected", "row", u.row+1, "reason", res.Reason, "detail", res.Detail)
		return
	}

	tbl.SetTarget(u.row, restored)
	sum.Translated++
	sum.Rows = append(sum.Rows, RowOutcome{
		Row:     u.row + 1,
		Source:  src,
		Outcome: OutcomeTranslated,
	})
}

func (p *Pipeline) pause(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.sleep(p.cfg.RequestInterval)
	return nil
}

// splitBatches groups units by count and by total character budget. A single
// oversized unit still gets its own batch rather than being dropped.
func splitBatches(units []unit, maxCount, maxChars int) [][]unit {
	var batches [][]unit
	var cur []unit
	chars := 0

	for _, u := range units {
		n := len(u.masked)
		if len(cur) > 0 && (len(cur) >= maxCount || chars+n > maxChars) {
			batches = append(batches, cur)
			cur = nil
			chars = 0
		}
		cur = append(cur, u)
		chars += n
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// RunFile reads a TSV file, runs the pipeline over it, and writes the result
// to outPath. The output is written to a temp file in the destination
// directory and renamed into place, so a crash mid-write never leaves a
// truncated file behind.
func (p *Pipeline) RunFile(ctx context.Context, inPath, outPath string) (*Summary, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inPath, err)
	}
	tbl, err := table.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inPath, err)
	}

	sum, runErr := p.Run(ctx, tbl)
	if sum != nil && (runErr == nil || sum.Translated > 0) {
		serialized, err := tbl.Serialize()
		if err != nil {
			return sum, fmt.Errorf("failed to serialize %s: %w", outPath, err)
		}
		if err := writeAtomic(outPath, serialized); err != nil {
			return sum, err
		}
	}
	return sum, runErr
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
