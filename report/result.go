// Package report holds benchmark results, orders them for presentation,
// persists them as JSON or YAML and renders them as terminal tables.
package report

import (
	"time"

	"github.com/arloliu/codecbench/stats"
)

// CodecResult is the measurement of one codec over one batch.
type CodecResult struct {
	// TotalBytes is the compressed size of the batch, from the first timed pass.
	TotalBytes       int               `json:"total_bytes" yaml:"total_bytes"`
	CompressionRatio float64           `json:"compression_ratio" yaml:"compression_ratio"`
	Compression      stats.TimingStats `json:"compression" yaml:"compression"`
	Decompression    stats.TimingStats `json:"decompression" yaml:"decompression"`
}

// BenchmarkResult is one (dataset, batch size, format) row.
type BenchmarkResult struct {
	Dataset   string `json:"dataset" yaml:"dataset"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
	Format    string `json:"format" yaml:"format"`
	// Compressor is the row label: the schema name for canonical formats,
	// otherwise the format name.
	Compressor string `json:"compressor" yaml:"compressor"`
	// Schema is empty for baseline-only formats.
	Schema                 string `json:"schema,omitempty" yaml:"schema,omitempty"`
	NumPayloads            int    `json:"num_payloads" yaml:"num_payloads"`
	Iterations             int    `json:"iterations" yaml:"iterations"`
	TotalUncompressedBytes int    `json:"total_uncompressed_bytes" yaml:"total_uncompressed_bytes"`
	TotalDataPoints        int    `json:"total_data_points" yaml:"total_data_points"`
	BaselineAlgorithm      string `json:"baseline_algorithm" yaml:"baseline_algorithm"`
	BaselineLevel          int    `json:"baseline_level" yaml:"baseline_level"`
	// BaselineEncoder is the encoder the baseline level resolved to, e.g.
	// "klauspost/default" for zstd levels 3-5.
	BaselineEncoder string `json:"baseline_encoder,omitempty" yaml:"baseline_encoder,omitempty"`
	Engine          string `json:"engine,omitempty" yaml:"engine,omitempty"`
	Fingerprint     string `json:"fingerprint" yaml:"fingerprint"`

	Baseline CodecResult `json:"baseline" yaml:"baseline"`
	// Structured is nil for baseline-only formats and for rows whose
	// structured codec failed.
	Structured *CodecResult `json:"structured,omitempty" yaml:"structured,omitempty"`
}

// Suite is the persisted document of one run.
type Suite struct {
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Filter      string            `json:"filter" yaml:"filter"`
	Results     []BenchmarkResult `json:"results" yaml:"results"`
}

// Ratio returns uncompressed/compressed, or 0 when compressed is zero.
func Ratio(uncompressed, compressed int) float64 {
	if compressed <= 0 {
		return 0
	}

	return float64(uncompressed) / float64(compressed)
}

// PerPoint returns bytes per data point, or 0 when points is zero.
func PerPoint(bytes, points int) float64 {
	if points <= 0 {
		return 0
	}

	return float64(bytes) / float64(points)
}
