// Package compress provides the generic byte-stream codecs used as the
// baseline in a benchmark run.
//
// Supported algorithms:
//   - None: payloads pass through unchanged
//   - Zstd: configurable level (1-22), default 4. The pure-Go encoder folds
//     levels into four speeds (see Baseline.SharedLevels); build with the
//     gozstd tag for libzstd, which applies every level as requested.
//   - S2: block format, no level
//   - LZ4: length-prefixed block format, no level
//
// The pure-Go zstd implementation from klauspost/compress is used by default.
// Building with the gozstd tag switches zstd to the cgo binding of the
// reference C library, which is closer to what the structured engine links
// against:
//
//	go build -tags gozstd ./...
//
// Every codec is stateless from the caller's point of view and safe for
// concurrent use; encoders and decoders are pooled internally.
//
//	codec, err := compress.CreateCodec(format.CompressionZstd, 4)
//	if err != nil {
//		return err
//	}
//	compressed, err := codec.Compress(payload)
package compress
