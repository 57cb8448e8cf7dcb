package compress

import (
	"fmt"

	"github.com/arloliu/codecbench/format"
)

// Compressor compresses one payload into a newly allocated slice.
//
// Implementations must be safe for concurrent use: the benchmark runner calls
// a single baseline codec from every worker.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// Decompress returns an error if the data is corrupted or was produced by a
// different algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Baseline describes the generic byte-stream compressor a run compares against.
type Baseline struct {
	Algorithm format.CompressionType
	// Level is only meaningful for zstd; other algorithms ignore it.
	Level int
}

// DefaultBaseline is zstd at level 4.
var DefaultBaseline = Baseline{Algorithm: format.CompressionZstd, Level: DefaultZstdLevel}

// Label returns "zstd4", "s2", "lz4" or "none".
func (b Baseline) Label() string {
	if b.Algorithm == format.CompressionZstd {
		return fmt.Sprintf("%s%d", b.Algorithm.Slug(), b.Level)
	}

	return b.Algorithm.Slug()
}

// Encoder names what actually compresses for b. For zstd that is the encoder
// configuration the level resolves to: "klauspost/default" for levels 3-5 in
// pure-Go builds, "libzstd" in gozstd builds. Other algorithms report their
// slug.
func (b Baseline) Encoder() string {
	if b.Algorithm != format.CompressionZstd {
		return b.Algorithm.Slug()
	}
	name, _, _ := zstdEncoderFor(b.Level)

	return name
}

// SharedLevels returns the range of zstd levels that run with the same
// encoder as b and therefore produce identical output. lo == hi means the
// level is applied as requested. Algorithms without levels return b.Level
// twice.
func (b Baseline) SharedLevels() (lo, hi int) {
	if b.Algorithm != format.CompressionZstd {
		return b.Level, b.Level
	}
	_, lo, hi = zstdEncoderFor(b.Level)

	return lo, hi
}

// CreateCodec creates a Codec for the specified compression type and level.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//   - level: zstd level in [1, 22]; ignored by the other algorithms
//
// Returns:
//   - Codec: Compressor instance for the specified type
//   - error: Invalid compression type or zstd level
func CreateCodec(compressionType format.CompressionType, level int) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		if level < MinZstdLevel || level > MaxZstdLevel {
			return nil, fmt.Errorf("invalid zstd level %d: must be in [%d, %d]", level, MinZstdLevel, MaxZstdLevel)
		}

		return NewZstdCompressorLevel(level), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid baseline compression: %s", compressionType)
	}
}

// New creates the codec described by b.
func (b Baseline) New() (Codec, error) {
	return CreateCodec(b.Algorithm, b.Level)
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec with default settings for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
