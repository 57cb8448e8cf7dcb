//go:build gozstd

package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/codecbench/format"
)

func TestZstdEncoderFor_ExactLevels(t *testing.T) {
	for _, level := range []int{1, 4, 9, 19, 22} {
		b := Baseline{Algorithm: format.CompressionZstd, Level: level}
		require.Equal(t, "libzstd", b.Encoder())
		lo, hi := b.SharedLevels()
		require.Equal(t, level, lo)
		require.Equal(t, level, hi)
	}
}

func TestZstd_DistinctLevelsDiffer(t *testing.T) {
	data := generateBenchmarkData(128*1024, "semi_compressible")

	l10, err := NewZstdCompressorLevel(10).Compress(data)
	require.NoError(t, err)
	l19, err := NewZstdCompressorLevel(19).Compress(data)
	require.NoError(t, err)

	require.False(t, bytes.Equal(l10, l19))
}
