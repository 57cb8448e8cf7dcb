// Package runner executes benchmark passes over every discovered batch.
//
// Each batch is one task on a bounded worker pool. Within a task the baseline
// codec runs first, then the structured codec when the batch resolves to a
// schema. Codec sessions never leave the worker that opened them; trained
// models are shared across workers through a session.ModelCache.
//
// A batch moves through Discovered, CodecResolved, Warming, Measuring,
// Verified and Reported, or ends in Skipped or Failed. Skips and failures are
// collected as diagnostics and never abort the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/codecbench/compress"
	"github.com/arloliu/codecbench/corpus"
	"github.com/arloliu/codecbench/dispatch"
	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/internal/hash"
	"github.com/arloliu/codecbench/internal/options"
	"github.com/arloliu/codecbench/internal/telemetry"
	"github.com/arloliu/codecbench/report"
	"github.com/arloliu/codecbench/session"
)

// DefaultIterations is the number of timed passes per codec.
const DefaultIterations = 3

// FilterAll disables batch filtering.
const FilterAll = "all"

// Option configures a Runner.
type Option = options.Option[*Runner]

// WithWorkers sets the worker pool size. The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return options.Named("workers", func(r *Runner) error {
		if n < 1 {
			return fmt.Errorf("must be at least 1, got %d", n)
		}
		r.workers = n

		return nil
	})
}

// WithIterations sets the number of timed passes.
func WithIterations(n int) Option {
	return options.Named("iterations", func(r *Runner) error {
		if n < 1 {
			return fmt.Errorf("must be at least 1, got %d", n)
		}
		r.iterations = n

		return nil
	})
}

// WithWarmup sets the number of untimed passes run before measuring.
func WithWarmup(n int) Option {
	return options.Named("warmup", func(r *Runner) error {
		if n < 0 {
			return fmt.Errorf("must not be negative, got %d", n)
		}
		r.warmup = n

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(r *Runner) {
		if logger != nil {
			r.logger = logger.Sugar()
		}
	})
}

// WithTelemetry sets the metrics recorder.
func WithTelemetry(rec *telemetry.Recorder) Option {
	return options.NoError(func(r *Runner) {
		if rec != nil {
			r.telemetry = rec
		}
	})
}

// WithClusteringTag sets the tag passed to model-bound compressors.
func WithClusteringTag(tag int) Option {
	return options.Named("clustering tag", func(r *Runner) error {
		if tag < engine.NoClusteringTag {
			return fmt.Errorf("invalid tag %d", tag)
		}
		r.clusteringTag = tag

		return nil
	})
}

// WithFilter keeps only batches whose directory name contains filter.
// An empty filter or "all" keeps everything.
func WithFilter(filter string) Option {
	return options.NoError(func(r *Runner) {
		r.filter = filter
	})
}

// WithBaseline sets the generic compressor every batch is measured with.
func WithBaseline(b compress.Baseline) Option {
	return options.Named("baseline", func(r *Runner) error {
		if _, err := b.New(); err != nil {
			return err
		}
		r.baseline = b

		return nil
	})
}

// Runner benchmarks a corpus.
type Runner struct {
	registry *corpus.Registry
	store    *dispatch.Store
	mgr      *session.Manager

	baseline      compress.Baseline
	workers       int
	iterations    int
	warmup        int
	clusteringTag int
	filter        string

	logger    *zap.SugaredLogger
	telemetry *telemetry.Recorder
}

// New returns a Runner reading batches from registry, models from store and
// running structured codecs through mgr.
func New(registry *corpus.Registry, store *dispatch.Store, mgr *session.Manager, opts ...Option) (*Runner, error) {
	r := &Runner{
		registry:   registry,
		store:      store,
		mgr:        mgr,
		baseline:   compress.DefaultBaseline,
		workers:    runtime.GOMAXPROCS(0),
		iterations: DefaultIterations,
		filter:     FilterAll,
		logger:     zap.NewNop().Sugar(),
		telemetry:  telemetry.Noop(),
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Outcome is the result of a run.
type Outcome struct {
	// Results are ordered by dataset, batch size and label.
	Results  []report.BenchmarkResult
	Skipped  []Diagnostic
	Failures []Diagnostic
}

// Mismatches returns the failures caused by round-trip mismatches.
func (o *Outcome) Mismatches() []Diagnostic {
	var out []Diagnostic
	for _, d := range o.Failures {
		var mm *RoundTripMismatchError
		if errors.As(d.Err, &mm) {
			out = append(out, d)
		}
	}

	return out
}

// collector gathers per-batch output from concurrent workers.
type collector struct {
	mu      sync.Mutex
	outcome Outcome
}

func (c *collector) result(r report.BenchmarkResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome.Results = append(c.outcome.Results, r)
}

func (c *collector) skip(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome.Skipped = append(c.outcome.Skipped, d)
}

func (c *collector) fail(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome.Failures = append(c.outcome.Failures, d)
}

// Selected reports whether the batch directory name passes the filter.
func (r *Runner) Selected(name string) bool {
	if r.filter == "" || r.filter == FilterAll {
		return true
	}

	return strings.Contains(name, r.filter)
}

// Run benchmarks every selected batch. It fails only when discovery of the
// root fails, when ctx is canceled, or with ErrNoResults when nothing was
// measured; the outcome is returned in every case but the first.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	dirs, err := r.registry.DiscoverBatches()
	if err != nil {
		return nil, err
	}

	baseline, err := r.baseline.New()
	if err != nil {
		return nil, err
	}

	cache := session.NewModelCache(r.mgr)
	defer cache.Close()

	var selected []corpus.BatchDir
	for _, d := range dirs {
		if r.Selected(d.Name) {
			selected = append(selected, d)
		}
	}
	if lo, hi := r.baseline.SharedLevels(); lo != hi {
		r.logger.Warnw("baseline level is not applied exactly; levels sharing an encoder give identical results",
			"baseline", r.baseline.Label(),
			"encoder", r.baseline.Encoder(),
			"levels", fmt.Sprintf("%d-%d", lo, hi),
		)
	}
	r.logger.Infow("starting benchmark",
		"batches", len(selected),
		"discovered", len(dirs),
		"workers", r.workers,
		"iterations", r.iterations,
		"warmup", r.warmup,
		"baseline", r.baseline.Label(),
		"engine", r.mgr.EngineName(),
	)

	col := &collector{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, d := range selected {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r.runBatch(gctx, d, baseline, cache, col)

			return nil
		})
	}
	_ = g.Wait()

	out := &col.outcome
	report.SortResults(out.Results)
	sortDiagnostics(out.Skipped)
	sortDiagnostics(out.Failures)

	r.logger.Infow("benchmark finished",
		"results", len(out.Results),
		"skipped", len(out.Skipped),
		"failures", len(out.Failures),
	)

	if err := ctx.Err(); err != nil {
		return out, err
	}
	if len(out.Results) == 0 {
		return out, ErrNoResults
	}

	return out, nil
}

func sortDiagnostics(ds []Diagnostic) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		if c := strings.Compare(a.Batch, b.Batch); c != 0 {
			return c
		}

		return strings.Compare(a.Codec, b.Codec)
	})
}

func (r *Runner) logState(batch, codec string, s State) {
	r.logger.Debugw("batch state", "batch", batch, "codec", codec, "state", s.String())
}

// runBatch takes one batch directory through its lifecycle.
func (r *Runner) runBatch(ctx context.Context, dir corpus.BatchDir, baseline compress.Codec, cache *session.ModelCache, col *collector) {
	r.logState(dir.Name, "", Discovered)

	batch, err := r.registry.Load(dir)
	if err != nil {
		r.skipBatch(ctx, col, Diagnostic{Batch: dir.Name, Stage: Discovered, Err: err})
		return
	}
	if err := batch.Validate(); err != nil {
		r.failBatch(ctx, col, Diagnostic{Batch: dir.Name, Stage: Discovered, Err: err})
		return
	}

	assignment, err := r.store.Resolve(batch.Descriptor)
	if err != nil {
		r.skipBatch(ctx, col, Diagnostic{Batch: dir.Name, Stage: Discovered, Err: err})
		return
	}
	r.logState(dir.Name, "", CodecResolved)

	result := report.BenchmarkResult{
		Dataset:                batch.Descriptor.Dataset,
		BatchSize:              batch.Descriptor.BatchSize,
		Format:                 batch.Descriptor.Format,
		Compressor:             assignment.Label,
		NumPayloads:            len(batch.Payloads),
		Iterations:             r.iterations,
		TotalUncompressedBytes: batch.TotalBytes,
		TotalDataPoints:        batch.Points,
		BaselineAlgorithm:      r.baseline.Algorithm.Slug(),
		BaselineLevel:          r.baseline.Level,
		BaselineEncoder:        r.baseline.Encoder(),
		Fingerprint:            hash.Hex(batch.Fingerprint),
	}
	if !assignment.BaselineOnly {
		result.Schema = assignment.Schema.String()
		result.Engine = r.mgr.EngineName()
	}

	// Baseline first: a batch without a baseline row is not reportable.
	bc := &baselineCodec{name: r.baseline.Label(), codec: baseline}
	res, stage, err := r.measure(ctx, batch, bc)
	if err != nil {
		r.failBatch(ctx, col, Diagnostic{Batch: dir.Name, Codec: bc.Name(), Stage: stage, Err: err})
		return
	}
	result.Baseline = res
	r.telemetry.RecordOutcome(ctx, bc.Name(), telemetry.OutcomeMeasured)
	r.logger.Infow("codec measured",
		"batch", dir.Name,
		"codec", bc.Name(),
		"ratio", res.CompressionRatio,
		"compress_ms", res.Compression.AvgMs,
		"decompress_ms", res.Decompression.AvgMs,
	)

	if assignment.NeedsModel() {
		if structured, diag := r.measureStructured(ctx, batch, assignment, cache); diag != nil {
			r.failCodec(ctx, col, *diag)
		} else {
			result.Structured = &structured
		}
	}

	col.result(result)
	r.logState(dir.Name, "", Reported)
}

func (r *Runner) measureStructured(ctx context.Context, batch *corpus.BatchCorpus, a dispatch.Assignment, cache *session.ModelCache) (report.CodecResult, *Diagnostic) {
	name := batch.Descriptor.Name()
	codecName := r.mgr.EngineName()

	model, err := cache.Get(a.Schema, a.Model)
	if err != nil {
		return report.CodecResult{}, &Diagnostic{Batch: name, Codec: codecName, Stage: CodecResolved, Err: err}
	}
	defer model.Release()

	sc, err := openStructured(r.mgr, model, r.clusteringTag)
	if err != nil {
		return report.CodecResult{}, &Diagnostic{Batch: name, Codec: codecName, Stage: CodecResolved, Err: err}
	}
	defer sc.Close()

	res, stage, err := r.measure(ctx, batch, sc)
	if err != nil {
		return report.CodecResult{}, &Diagnostic{Batch: name, Codec: codecName, Stage: stage, Err: err}
	}

	r.telemetry.RecordOutcome(ctx, codecName, telemetry.OutcomeMeasured)
	r.logger.Infow("codec measured",
		"batch", name,
		"codec", codecName,
		"schema", a.Schema.String(),
		"ratio", res.CompressionRatio,
		"compress_ms", res.Compression.AvgMs,
		"decompress_ms", res.Decompression.AvgMs,
	)

	return res, nil
}

func (r *Runner) skipBatch(ctx context.Context, col *collector, d Diagnostic) {
	r.logger.Warnw("skipping batch", "batch", d.Batch, "stage", d.Stage.String(), "error", d.Err)
	r.logState(d.Batch, d.Codec, Skipped)
	r.telemetry.RecordOutcome(ctx, d.Codec, telemetry.OutcomeSkipped)
	col.skip(d)
}

func (r *Runner) failBatch(ctx context.Context, col *collector, d Diagnostic) {
	r.recordFailure(ctx, d)
	r.logState(d.Batch, d.Codec, Failed)
	col.fail(d)
}

// failCodec records a structured codec failure; the batch keeps its
// baseline row.
func (r *Runner) failCodec(ctx context.Context, col *collector, d Diagnostic) {
	r.recordFailure(ctx, d)
	col.fail(d)
}

func (r *Runner) recordFailure(ctx context.Context, d Diagnostic) {
	outcome := telemetry.OutcomeFailed
	var mm *RoundTripMismatchError
	if errors.As(d.Err, &mm) {
		outcome = telemetry.OutcomeMismatch
		r.logger.Errorw("round-trip mismatch",
			"batch", d.Batch,
			"codec", d.Codec,
			"payload", mm.Index,
			"original_bytes", mm.OriginalLen,
			"decompressed_bytes", mm.DecompressedLen,
		)
	} else {
		r.logger.Errorw("codec failed", "batch", d.Batch, "codec", d.Codec, "stage", d.Stage.String(), "error", d.Err)
	}
	r.telemetry.RecordOutcome(ctx, d.Codec, outcome)
}
