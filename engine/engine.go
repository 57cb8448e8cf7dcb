// Package engine defines the boundary to the structured compression engine.
//
// An engine loads trained models, hands out compression and decompression
// handles, and judges whether two payloads of a schema are semantically
// equivalent. Handles wrap engine-owned resources and must be released with
// Free exactly once; the session package layers reference counting and
// idempotent close on top of this contract.
//
// Two implementations exist: the in-process reference engine in engine/zlref
// and a cgo binding to the OpenZL C library in engine/openzl (build tag openzl).
package engine

import (
	"github.com/arloliu/codecbench/format"
)

// NoClusteringTag marks a compress call that carries no clustering metadata.
const NoClusteringTag = -1

// CompressBound returns the worst-case compressed size for n input bytes.
func CompressBound(n int) int {
	return 2*n + 520
}

// ModelHandle is a loaded, read-only trained model.
//
// A ModelHandle is safe for concurrent use by many compressor handles.
type ModelHandle interface {
	Schema() format.Schema
	Free()
}

// CompressorHandle compresses payloads. It is not safe for concurrent use.
type CompressorHandle interface {
	// Compress compresses src. clusteringTag selects the model's encoding path
	// for single-stream inputs and is ignored by handles without a model.
	Compress(src []byte, clusteringTag int) ([]byte, error)
	Free()
}

// DecompressorHandle decompresses self-describing frames. It is not safe for
// concurrent use.
type DecompressorHandle interface {
	Decompress(src []byte) ([]byte, error)
	Free()
}

// Engine is a structured compression engine.
type Engine interface {
	Name() string
	// LoadModel deserializes a trained model artifact.
	LoadModel(artifact []byte) (ModelHandle, error)
	// NewCompressor returns a compressor bound to model, or a generic
	// compressor when model is nil.
	NewCompressor(model ModelHandle) (CompressorHandle, error)
	NewDecompressor() (DecompressorHandle, error)
	// Equivalent reports whether a and b encode the same value of schema.
	Equivalent(schema format.Schema, a, b []byte) bool
}
