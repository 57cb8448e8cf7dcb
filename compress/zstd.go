package compress

const (
	MinZstdLevel = 1
	MaxZstdLevel = 22
	// DefaultZstdLevel is the level the benchmark reports are normally produced with.
	DefaultZstdLevel = 4
)

// ZstdCompressor provides Zstandard compression at a fixed level.
//
// Higher levels trade compression speed for ratio; decompression speed is
// roughly constant across levels.
type ZstdCompressor struct {
	level int
}

var _ Codec = ZstdCompressor{}

// NewZstdCompressor creates a Zstd compressor at DefaultZstdLevel.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{level: DefaultZstdLevel}
}

// NewZstdCompressorLevel creates a Zstd compressor at the given level.
// Levels outside [MinZstdLevel, MaxZstdLevel] are clamped.
//
// Example:
//
//	compressor := NewZstdCompressorLevel(9)
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressorLevel(level int) ZstdCompressor {
	return ZstdCompressor{level: min(max(level, MinZstdLevel), MaxZstdLevel)}
}

// Level returns the zstd compression level.
func (c ZstdCompressor) Level() int {
	return c.level
}
