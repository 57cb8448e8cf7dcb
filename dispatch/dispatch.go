// Package dispatch maps batch descriptors to the codec configuration they are
// measured with.
//
// Resolution is a declarative rule table evaluated in order. Baseline-only
// formats are columnar encodings with no structured-compression graph and are
// measured against the baseline compressor alone. The remaining formats map
// onto a small closed set of schemas; several format variants of the same
// wire representation share one schema and therefore one trained model, but
// are still reported as separate rows.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/codecbench/corpus"
	"github.com/arloliu/codecbench/format"
)

var (
	// ErrUnsupportedFormat reports a (dataset, format) pair no rule matches.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrModelNotFound reports a schema whose trained model is absent from the store.
	ErrModelNotFound = errors.New("trained model not found")
)

// ResolutionError wraps ErrUnsupportedFormat or ErrModelNotFound with the
// descriptor that failed to resolve. It never aborts a run.
type ResolutionError struct {
	Descriptor corpus.Descriptor
	Schema     format.Schema
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.Schema != format.SchemaUnknown {
		return fmt.Sprintf("resolve %s: %s: %v", e.Descriptor, e.Schema, e.Err)
	}

	return fmt.Sprintf("resolve %s: %v", e.Descriptor, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Assignment is the codec configuration of one batch.
type Assignment struct {
	// Schema is SchemaUnknown for baseline-only formats.
	Schema format.Schema
	// BaselineOnly is true when no structured codec applies.
	BaselineOnly bool
	// Label names the benchmark row: the schema for a canonical format, the
	// format itself for variants and baseline-only formats.
	Label string
	// Model is the trained-model artifact; nil for baseline-only formats and
	// before Store.Attach.
	Model []byte
}

// NeedsModel reports whether the assignment requires a trained model.
func (a Assignment) NeedsModel() bool {
	return !a.BaselineOnly
}

type datasetMatch int

const (
	anyDataset datasetMatch = iota
	datasetContains
	datasetPrefix
)

// rule maps a format, optionally constrained by dataset, to an assignment.
type rule struct {
	format      string
	match       datasetMatch
	dataset     string
	schema      format.Schema
	baseline    bool
	labelFormat bool
}

func (r rule) matches(d corpus.Descriptor) bool {
	if r.format != d.Format {
		return false
	}

	switch r.match {
	case datasetContains:
		return strings.Contains(d.Dataset, r.dataset)
	case datasetPrefix:
		return strings.HasPrefix(d.Dataset, r.dataset)
	default:
		return true
	}
}

// rules is evaluated top to bottom; the first match wins.
var rules = []rule{
	{format: "arrow", match: datasetPrefix, dataset: "tpch-", baseline: true},
	{format: "arrownodict", match: datasetPrefix, dataset: "tpch-", baseline: true},
	{format: "arrowdictperfile", match: datasetPrefix, dataset: "tpch-", baseline: true},
	{format: "otap", baseline: true},
	{format: "otapnodict", baseline: true},
	{format: "otapdictperfile", baseline: true},
	{format: "otapnosort", baseline: true},
	{format: "otapnodedup", baseline: true},

	{format: "otlp", match: datasetContains, dataset: "otelmetrics", schema: format.SchemaOTLPMetrics},
	{format: "otlp", match: datasetContains, dataset: "oteltraces", schema: format.SchemaOTLPTraces},
	{format: "otlpmetricsdict", schema: format.SchemaOTLPMetrics, labelFormat: true},
	{format: "otlptracesdict", schema: format.SchemaOTLPTraces, labelFormat: true},
	{format: "proto", match: datasetPrefix, dataset: "tpch-", schema: format.SchemaTPCHProto},
}

// Resolve applies the rule table to d. The returned assignment carries no
// model bytes; see Store.Attach. Unmatched descriptors yield a
// *ResolutionError wrapping ErrUnsupportedFormat.
func Resolve(d corpus.Descriptor) (Assignment, error) {
	for _, r := range rules {
		if !r.matches(d) {
			continue
		}
		if r.baseline {
			return Assignment{BaselineOnly: true, Label: d.Format}, nil
		}

		label := r.schema.String()
		if r.labelFormat {
			label = d.Format
		}

		return Assignment{Schema: r.schema, Label: label}, nil
	}

	return Assignment{}, &ResolutionError{Descriptor: d, Err: ErrUnsupportedFormat}
}

// IsBaselineOnly reports whether d resolves to a baseline-only format.
func IsBaselineOnly(d corpus.Descriptor) bool {
	a, err := Resolve(d)
	return err == nil && a.BaselineOnly
}
