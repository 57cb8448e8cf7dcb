package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionType_String(t *testing.T) {
	tests := []struct {
		name     string
		cType    CompressionType
		expected string
	}{
		{name: "none compression", cType: CompressionNone, expected: "None"},
		{name: "zstd compression", cType: CompressionZstd, expected: "Zstd"},
		{name: "s2 compression", cType: CompressionS2, expected: "S2"},
		{name: "lz4 compression", cType: CompressionLZ4, expected: "LZ4"},
		{name: "unknown compression", cType: CompressionType(0xFF), expected: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cType.String())
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	c, ok := ParseCompressionType("ZSTD")
	require.True(t, ok)
	require.Equal(t, CompressionZstd, c)
	require.Equal(t, "zstd", c.Slug())

	c, ok = ParseCompressionType(" lz4 ")
	require.True(t, ok)
	require.Equal(t, CompressionLZ4, c)

	_, ok = ParseCompressionType("brotli")
	require.False(t, ok)
}

func TestSchema_RoundTrip(t *testing.T) {
	for _, s := range Schemas() {
		parsed, ok := ParseSchema(s.String())
		require.True(t, ok)
		require.Equal(t, s, parsed)
	}

	_, ok := ParseSchema("otap")
	require.False(t, ok)
	require.Equal(t, "unknown", SchemaUnknown.String())
}
