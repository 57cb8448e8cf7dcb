//go:build gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// libzstd applies every level as requested.
func zstdEncoderFor(level int) (name string, lo, hi int) {
	level = min(max(level, MinZstdLevel), MaxZstdLevel)

	return "libzstd", level, level
}

// Compress compresses the input data with the reference C zstd library.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, c.level), nil
}

func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return out, nil
}
