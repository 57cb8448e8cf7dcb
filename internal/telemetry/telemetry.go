// Package telemetry exposes benchmark pass latencies and batch outcomes as
// OpenTelemetry metrics.
//
// The default Recorder is backed by a no-op meter provider. Setup builds a
// real provider with a stdout or Prometheus exporter.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/arloliu/codecbench"

// Exporter names accepted by Setup.
const (
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
)

// ErrUnknownExporter is returned by Setup for an unrecognized exporter name.
var ErrUnknownExporter = errors.New("unknown metric exporter")

// Outcome labels recorded by RecordOutcome.
const (
	OutcomeMeasured = "measured"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeMismatch = "mismatch"
)

// Recorder records benchmark metrics. The zero value is not usable; use
// Noop or NewRecorder.
type Recorder struct {
	passLatency metric.Float64Histogram
	passBytes   metric.Int64Counter
	outcomes    metric.Int64Counter
}

// Noop returns a Recorder that discards everything.
func Noop() *Recorder {
	r, _ := NewRecorder(noop.NewMeterProvider())
	return r
}

// NewRecorder creates the benchmark instruments on mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(meterName)

	latency, err := meter.Float64Histogram(
		"codecbench.pass.duration",
		metric.WithDescription("Wall-clock time of one full compression or decompression pass over a batch"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pass histogram: %w", err)
	}

	bytes, err := meter.Int64Counter(
		"codecbench.pass.bytes",
		metric.WithDescription("Uncompressed bytes processed by timed passes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create bytes counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		"codecbench.batch.outcomes",
		metric.WithDescription("Benchmark outcomes per batch and codec"),
	)
	if err != nil {
		return nil, fmt.Errorf("create outcome counter: %w", err)
	}

	return &Recorder{passLatency: latency, passBytes: bytes, outcomes: outcomes}, nil
}

// RecordPass records one timed pass. direction is "compress" or "decompress".
func (r *Recorder) RecordPass(ctx context.Context, dataset, codec, direction string, d time.Duration, bytes int) {
	attrs := metric.WithAttributes(
		attribute.String("dataset", dataset),
		attribute.String("codec", codec),
		attribute.String("direction", direction),
	)
	r.passLatency.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	r.passBytes.Add(ctx, int64(bytes), attrs)
}

// RecordOutcome counts the outcome of one (batch, codec).
func (r *Recorder) RecordOutcome(ctx context.Context, codec, outcome string) {
	r.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("codec", codec),
		attribute.String("outcome", outcome),
	))
}

// Provider owns the meter provider built by Setup.
type Provider struct {
	Recorder *Recorder

	mp      *sdkmetric.MeterProvider
	handler http.Handler
}

// Handler returns the /metrics handler of the Prometheus exporter, or nil.
func (p *Provider) Handler() http.Handler {
	return p.handler
}

// Shutdown flushes and stops the exporter. It is a no-op for "none".
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.mp == nil {
		return nil
	}

	return p.mp.Shutdown(ctx)
}

// Setup builds a Provider for exporter.
func Setup(exporter string) (*Provider, error) {
	var (
		reader  sdkmetric.Reader
		handler http.Handler
	)

	switch strings.ToLower(strings.TrimSpace(exporter)) {
	case "", ExporterNone:
		return &Provider{Recorder: Noop()}, nil
	case ExporterStdout:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case ExporterPrometheus:
		registry := prometheus.NewRegistry()
		exp, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		reader = exp
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, exporter)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec, err := NewRecorder(mp)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}

	return &Provider{Recorder: rec, mp: mp, handler: handler}, nil
}
