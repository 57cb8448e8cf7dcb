package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/codecbench/config"
	"github.com/arloliu/codecbench/corpus"
	"github.com/arloliu/codecbench/dispatch"
	"github.com/arloliu/codecbench/internal/logging"
	"github.com/arloliu/codecbench/internal/telemetry"
	"github.com/arloliu/codecbench/report"
	"github.com/arloliu/codecbench/runner"
	"github.com/arloliu/codecbench/session"
)

// ErrRoundTrip is returned by the run command when any payload failed
// round-trip verification.
var ErrRoundTrip = errors.New("round-trip verification failed")

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark every batch under the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), afero.NewOsFs())
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.String("data-dir", d.DataDir, "root of the generated batch directories")
	f.String("model-dir", d.ModelDir, "root of the trained models (<dir>/<schema>/trained.zlc)")
	f.String("output-dir", d.OutputDir, "directory the result document is written to")
	f.String("output-format", d.OutputFormat, "result document format: json or yaml")
	f.String("filter", d.Filter, `only run batches whose name contains this ("all" runs everything)`)
	f.Int("iterations", d.Iterations, "timed passes per codec")
	f.Int("warmup", d.Warmup, "untimed passes before measuring")
	f.Int("workers", d.Workers, "batches benchmarked in parallel")
	f.Int("clustering-tag", d.ClusteringTag, "clustering tag passed to trained models")
	f.String("engine", d.Engine, "structured compression engine")
	f.String("baseline", d.Baseline.Algorithm, "baseline algorithm: zstd, s2, lz4 or none")
	f.Int("level", d.Baseline.Level, "zstd level of the baseline")
	f.String("telemetry", d.Telemetry.Exporter, "metrics exporter: none, stdout or prometheus")
	f.String("telemetry-listen", d.Telemetry.Listen, "listen address of the prometheus endpoint")

	for key, flag := range map[string]string{
		"data_dir":           "data-dir",
		"model_dir":          "model-dir",
		"output_dir":         "output-dir",
		"output_format":      "output-format",
		"filter":             "filter",
		"iterations":         "iterations",
		"warmup":             "warmup",
		"workers":            "workers",
		"clustering_tag":     "clustering-tag",
		"engine":             "engine",
		"baseline.algorithm": "baseline",
		"baseline.level":     "level",
		"telemetry.exporter": "telemetry",
		"telemetry.listen":   "telemetry-listen",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}

	return cmd
}

func (a *app) run(ctx context.Context, fsys afero.Fs) error {
	cfg := a.cfg

	logger, err := logging.New("codecbench", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	prov, err := telemetry.Setup(cfg.Telemetry.Exporter)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := prov.Shutdown(shutdownCtx); err != nil {
			logger.Sugar().Warnw("telemetry shutdown failed", "error", err)
		}
	}()
	if h := prov.Handler(); h != nil {
		stop, err := serveMetrics(cfg.Telemetry.Listen, h, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return err
	}
	mgr, err := session.NewManager(eng, session.WithLogger(logger))
	if err != nil {
		return err
	}
	registry, err := corpus.NewRegistry(fsys, cfg.DataDir, corpus.WithLogger(logger))
	if err != nil {
		return err
	}
	baseline, err := cfg.BaselineSpec()
	if err != nil {
		return err
	}

	r, err := runner.New(registry, dispatch.NewStore(fsys, cfg.ModelDir), mgr,
		runner.WithWorkers(cfg.Workers),
		runner.WithIterations(cfg.Iterations),
		runner.WithWarmup(cfg.Warmup),
		runner.WithClusteringTag(cfg.ClusteringTag),
		runner.WithFilter(cfg.Filter),
		runner.WithBaseline(baseline),
		runner.WithLogger(logger),
		runner.WithTelemetry(prov.Recorder),
	)
	if err != nil {
		return err
	}

	out, runErr := r.Run(ctx)
	if out == nil {
		return runErr
	}

	a.printDiagnostics(out)

	if len(out.Results) > 0 {
		if err := report.PrintComparison(a.stdout, report.GroupResults(out.Results)); err != nil {
			return err
		}

		suite := &report.Suite{GeneratedAt: time.Now().UTC(), Filter: cfg.Filter, Results: out.Results}
		enc := cfg.Encoding()
		name := report.FileName(cfg.Filter, baseline.Algorithm.Slug(), baseline.Level, cfg.Iterations, enc)
		path, err := report.Write(fsys, cfg.OutputDir, name, suite, enc)
		if err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		fmt.Fprintf(a.stdout, "\nresults written to %s\n", path)
	}

	if runErr != nil {
		return runErr
	}
	if mm := out.Mismatches(); len(mm) > 0 {
		return fmt.Errorf("%w: %d codec(s), first: %v", ErrRoundTrip, len(mm), mm[0].Err)
	}

	return nil
}

var (
	skippedLabel = color.New(color.FgYellow).SprintFunc()
	failedLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
)

func (a *app) printDiagnostics(out *runner.Outcome) {
	for _, d := range out.Skipped {
		fmt.Fprintf(a.stderr, "%s %s\n", skippedLabel("skipped"), d)
	}
	for _, d := range out.Failures {
		fmt.Fprintf(a.stderr, "%s  %s\n", failedLabel("failed"), d)
	}
}

// serveMetrics exposes h on addr until the returned stop function is called.
func serveMetrics(addr string, h http.Handler, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Warnw("metrics server stopped", "error", err)
		}
	}()
	logger.Sugar().Infow("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
