package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"

	"github.com/arloliu/codecbench/format"
)

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func TestSemanticEqual_WireFields(t *testing.T) {
	var a []byte
	a = appendVarintField(a, 1, 42)
	a = appendStringField(a, 2, "BUILDING")
	a = appendVarintField(a, 3, 7)
	a = appendVarintField(a, 1, 43)

	var reordered []byte
	reordered = appendVarintField(reordered, 1, 42)
	reordered = appendVarintField(reordered, 1, 43)
	reordered = appendStringField(reordered, 2, "BUILDING")
	reordered = appendVarintField(reordered, 3, 7)

	var swappedRepeats []byte
	swappedRepeats = appendVarintField(swappedRepeats, 1, 43)
	swappedRepeats = appendVarintField(swappedRepeats, 1, 42)
	swappedRepeats = appendStringField(swappedRepeats, 2, "BUILDING")
	swappedRepeats = appendVarintField(swappedRepeats, 3, 7)

	tests := []struct {
		name string
		b    []byte
		want bool
	}{
		{name: "identical", b: a, want: true},
		{name: "fields regrouped", b: reordered, want: true},
		{name: "repeated order changed", b: swappedRepeats, want: false},
		{name: "field dropped", b: reordered[:len(reordered)-2], want: false},
		{name: "not protobuf", b: []byte{0xFF, 0xFF, 0xFF}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SemanticEqual(format.SchemaTPCHProto, a, tt.b))
		})
	}
}

func TestSemanticEqual_OTLPMetrics(t *testing.T) {
	req := &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{{
			Resource: &resourcepb.Resource{Attributes: []*commonpb.KeyValue{{
				Key:   "service.name",
				Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: "checkout"}},
			}}},
			ScopeMetrics: []*metricspb.ScopeMetrics{{
				Metrics: []*metricspb.Metric{{Name: "http.server.duration"}},
			}},
		}},
	}

	a, err := proto.Marshal(req)
	require.NoError(t, err)
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(req)
	require.NoError(t, err)
	require.True(t, SemanticEqual(format.SchemaOTLPMetrics, a, b))

	req.ResourceMetrics[0].ScopeMetrics[0].Metrics[0].Name = "rpc.duration"
	c, err := proto.Marshal(req)
	require.NoError(t, err)
	require.False(t, SemanticEqual(format.SchemaOTLPMetrics, a, c))
	require.False(t, SemanticEqual(format.SchemaOTLPTraces, a, []byte{0xFF}))
}

func TestSemanticEqual_UnknownSchemaNeedsBytes(t *testing.T) {
	require.True(t, SemanticEqual(format.SchemaUnknown, []byte("abc"), []byte("abc")))
	require.False(t, SemanticEqual(format.SchemaUnknown, []byte("abc"), []byte("abd")))
}

func TestWireFields(t *testing.T) {
	var buf []byte
	buf = appendVarintField(buf, 5, 1)
	buf = appendStringField(buf, 2, "x")

	fields, ok := WireFields(buf)
	require.True(t, ok)
	require.Len(t, fields, 2)
	require.Equal(t, protowire.Number(5), fields[0].Number)
	require.Equal(t, protowire.Number(2), fields[1].Number)

	_, ok = WireFields([]byte{0x08})
	require.False(t, ok)
}
