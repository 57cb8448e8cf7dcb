package engine

import (
	"bytes"

	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"

	"github.com/arloliu/codecbench/format"
)

// SemanticEqual reports whether a and b encode the same value of schema.
//
// Protobuf serializers are free to emit fields in any order, so structured
// engines may return a payload that is not byte-identical to its input.
// OTLP payloads are decoded and compared with proto.Equal. Other protobuf
// schemas compare their top-level fields grouped by field number, keeping the
// order of repeated occurrences. Unknown schemas require byte equality.
func SemanticEqual(schema format.Schema, a, b []byte) bool {
	if bytes.Equal(a, b) {
		return true
	}

	switch schema {
	case format.SchemaOTLPMetrics:
		return otlpEqual(&colmetricspb.ExportMetricsServiceRequest{}, &colmetricspb.ExportMetricsServiceRequest{}, a, b)
	case format.SchemaOTLPTraces:
		return otlpEqual(&coltracepb.ExportTraceServiceRequest{}, &coltracepb.ExportTraceServiceRequest{}, a, b)
	case format.SchemaTPCHProto:
		return wireFieldsEqual(a, b)
	default:
		return false
	}
}

func otlpEqual(ma, mb proto.Message, a, b []byte) bool {
	if err := proto.Unmarshal(a, ma); err != nil {
		return false
	}
	if err := proto.Unmarshal(b, mb); err != nil {
		return false
	}

	return proto.Equal(ma, mb)
}

// WireFields splits a protobuf message into its top-level fields, each kept
// as its raw tag+value encoding, in the order they appear. The boolean is
// false if buf is not a well-formed message.
func WireFields(buf []byte) ([]WireField, bool) {
	var fields []WireField
	for len(buf) > 0 {
		num, _, n := protowire.ConsumeField(buf)
		if n < 0 {
			return nil, false
		}
		fields = append(fields, WireField{Number: num, Raw: buf[:n]})
		buf = buf[n:]
	}

	return fields, true
}

// WireField is one top-level field of an encoded protobuf message.
type WireField struct {
	Number protowire.Number
	Raw    []byte
}

func wireFieldsEqual(a, b []byte) bool {
	fa, ok := WireFields(a)
	if !ok {
		return false
	}
	fb, ok := WireFields(b)
	if !ok || len(fa) != len(fb) {
		return false
	}

	byNum := make(map[protowire.Number][][]byte)
	for _, f := range fa {
		byNum[f.Number] = append(byNum[f.Number], f.Raw)
	}

	seen := make(map[protowire.Number]int)
	for _, f := range fb {
		want := byNum[f.Number]
		i := seen[f.Number]
		if i >= len(want) || !bytes.Equal(want[i], f.Raw) {
			return false
		}
		seen[f.Number] = i + 1
	}

	return true
}
