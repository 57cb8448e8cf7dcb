//go:build !gozstd

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool pools zstd decoders for reuse.
// Decoders are level-agnostic, so one pool serves every ZstdCompressor.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

// zstdSpeedLevels lists the zstd levels each pure-Go encoder speed serves,
// following zstd.EncoderLevelFromZstd. The encoder has four speeds, so no
// level is applied exactly.
var zstdSpeedLevels = map[zstd.EncoderLevel][2]int{
	zstd.SpeedFastest:           {MinZstdLevel, 2},
	zstd.SpeedDefault:           {3, 5},
	zstd.SpeedBetterCompression: {6, 9},
	zstd.SpeedBestCompression:   {10, MaxZstdLevel},
}

func zstdSpeed(level int) zstd.EncoderLevel {
	return zstd.EncoderLevelFromZstd(min(max(level, MinZstdLevel), MaxZstdLevel))
}

func zstdEncoderFor(level int) (name string, lo, hi int) {
	speed := zstdSpeed(level)
	r := zstdSpeedLevels[speed]

	return "klauspost/" + speed.String(), r[0], r[1]
}

// zstdEncoderPools holds one *sync.Pool of encoders per encoder speed.
var zstdEncoderPools sync.Map

func encoderPool(level int) *sync.Pool {
	speed := zstdSpeed(level)
	if p, ok := zstdEncoderPools.Load(speed); ok {
		return p.(*sync.Pool)
	}

	p := &sync.Pool{
		New: func() any {
			encoder, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(speed),
				zstd.WithEncoderCRC(false),
			)
			if err != nil {
				panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
			}

			return encoder
		},
	}
	actual, _ := zstdEncoderPools.LoadOrStore(speed, p)

	return actual.(*sync.Pool)
}

// Compress compresses the input data using a pooled encoder for c's level.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	pool := encoderPool(c.level)
	encoder, _ := pool.Get().(*zstd.Encoder)
	defer pool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses Zstd-compressed data using a pooled decoder.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return decompressed, nil
}
