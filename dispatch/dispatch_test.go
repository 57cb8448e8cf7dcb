package dispatch

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/codecbench/corpus"
	"github.com/arloliu/codecbench/format"
)

func desc(dataset, fmtName string) corpus.Descriptor {
	return corpus.Descriptor{Dataset: dataset, Format: fmtName, BatchSize: 1000}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		d        corpus.Descriptor
		schema   format.Schema
		baseline bool
		label    string
	}{
		{name: "otlp metrics", d: desc("astronomy-otelmetrics", "otlp"), schema: format.SchemaOTLPMetrics, label: "otlp_metrics"},
		{name: "otlp traces", d: desc("astronomy-oteltraces", "otlp"), schema: format.SchemaOTLPTraces, label: "otlp_traces"},
		{name: "metrics dict shares schema", d: desc("astronomy-otelmetrics", "otlpmetricsdict"), schema: format.SchemaOTLPMetrics, label: "otlpmetricsdict"},
		{name: "traces dict shares schema", d: desc("hipster-oteltraces", "otlptracesdict"), schema: format.SchemaOTLPTraces, label: "otlptracesdict"},
		{name: "tpch proto", d: desc("tpch-sf1", "proto"), schema: format.SchemaTPCHProto, label: "tpch_proto"},
		{name: "tpch arrow", d: desc("tpch-sf1", "arrow"), baseline: true, label: "arrow"},
		{name: "tpch arrownodict", d: desc("tpch-sf1", "arrownodict"), baseline: true, label: "arrownodict"},
		{name: "tpch arrowdictperfile", d: desc("tpch-sf1", "arrowdictperfile"), baseline: true, label: "arrowdictperfile"},
		{name: "otap", d: desc("astronomy-otelmetrics", "otap"), baseline: true, label: "otap"},
		{name: "otapnodict", d: desc("astronomy-otelmetrics", "otapnodict"), baseline: true, label: "otapnodict"},
		{name: "otapdictperfile", d: desc("astronomy-otelmetrics", "otapdictperfile"), baseline: true, label: "otapdictperfile"},
		{name: "otapnosort", d: desc("astronomy-oteltraces", "otapnosort"), baseline: true, label: "otapnosort"},
		{name: "otapnodedup", d: desc("astronomy-oteltraces", "otapnodedup"), baseline: true, label: "otapnodedup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Resolve(tt.d)
			require.NoError(t, err)
			require.Equal(t, tt.schema, a.Schema)
			require.Equal(t, tt.baseline, a.BaselineOnly)
			require.Equal(t, tt.label, a.Label)
			require.Equal(t, !tt.baseline, a.NeedsModel())
			require.Nil(t, a.Model)
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	tests := []corpus.Descriptor{
		desc("astronomy-logs", "otlp"),
		desc("astronomy-otelmetrics", "arrow"),
		desc("nyc-taxi", "proto"),
		desc("tpch-sf1", "parquet"),
	}

	for _, d := range tests {
		t.Run(d.Name(), func(t *testing.T) {
			_, err := Resolve(d)
			require.ErrorIs(t, err, ErrUnsupportedFormat)
			var rerr *ResolutionError
			require.ErrorAs(t, err, &rerr)
			require.Equal(t, d, rerr.Descriptor)
			require.False(t, IsBaselineOnly(d))
		})
	}
}

func TestStore(t *testing.T) {
	fsys := afero.NewMemMapFs()
	root := "/models"
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(root, "otlp_metrics", ModelFile), []byte("metrics-model"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(root, "tpch_proto", ModelFile), []byte("tpch-model"), 0o644))

	s := NewStore(fsys, root)
	require.Equal(t, []format.Schema{format.SchemaOTLPMetrics, format.SchemaTPCHProto}, s.Available())

	t.Run("attaches model", func(t *testing.T) {
		a, err := s.Resolve(desc("astronomy-otelmetrics", "otlpmetricsdict"))
		require.NoError(t, err)
		require.Equal(t, []byte("metrics-model"), a.Model)
	})

	t.Run("missing model", func(t *testing.T) {
		d := desc("astronomy-oteltraces", "otlp")
		_, err := s.Resolve(d)
		require.ErrorIs(t, err, ErrModelNotFound)
		var rerr *ResolutionError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, format.SchemaOTLPTraces, rerr.Schema)
		require.Contains(t, err.Error(), "otlp_traces")
	})

	t.Run("baseline only needs nothing", func(t *testing.T) {
		a, err := s.Resolve(desc("astronomy-oteltraces", "otap"))
		require.NoError(t, err)
		require.True(t, a.BaselineOnly)
		require.Nil(t, a.Model)
	})

	t.Run("unsupported passes through", func(t *testing.T) {
		_, err := s.Resolve(desc("x", "csv"))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}
