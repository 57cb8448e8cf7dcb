// Package format defines the small closed enumerations shared across codecbench:
// the generic byte-stream compression algorithms used as a baseline and the
// schema tags understood by the structured compressor.
package format

import "strings"

type (
	CompressionType uint8
	Schema          uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

const (
	SchemaUnknown     Schema = 0x0 // SchemaUnknown is the zero value, never a valid assignment.
	SchemaOTLPMetrics Schema = 0x1 // SchemaOTLPMetrics is an OTLP ExportMetricsServiceRequest.
	SchemaOTLPTraces  Schema = 0x2 // SchemaOTLPTraces is an OTLP ExportTraceServiceRequest.
	SchemaTPCHProto   Schema = 0x3 // SchemaTPCHProto is a protobuf-encoded TPC-H record batch.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Slug returns the lower-case token used in file names and configuration.
func (c CompressionType) Slug() string {
	return strings.ToLower(c.String())
}

// ParseCompressionType maps a configuration token ("zstd", "s2", "lz4", "none")
// to a CompressionType. The boolean is false for unrecognized names.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "noop":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

// String returns the schema name, which is also the name of the trained-model
// directory in the model store.
func (s Schema) String() string {
	switch s {
	case SchemaOTLPMetrics:
		return "otlp_metrics"
	case SchemaOTLPTraces:
		return "otlp_traces"
	case SchemaTPCHProto:
		return "tpch_proto"
	default:
		return "unknown"
	}
}

// Schemas lists every schema with a structured-compression graph.
func Schemas() []Schema {
	return []Schema{SchemaOTLPMetrics, SchemaOTLPTraces, SchemaTPCHProto}
}

// ParseSchema maps a schema name back to its tag.
func ParseSchema(name string) (Schema, bool) {
	for _, s := range Schemas() {
		if s.String() == name {
			return s, true
		}
	}

	return SchemaUnknown, false
}
