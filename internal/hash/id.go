// Package hash wraps xxHash64 for the identifiers codecbench derives from
// content: model cache keys and corpus fingerprints.
package hash

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Bytes computes the xxHash64 of the given bytes.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Fingerprint accumulates a streaming xxHash64 over many byte slices.
//
// The zero value is not usable; call NewFingerprint.
type Fingerprint struct {
	d *xxhash.Digest
}

// NewFingerprint returns an empty fingerprint.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{d: xxhash.New()}
}

// Add mixes part into the fingerprint. The length is mixed in first so that
// ["ab","c"] and ["a","bc"] differ.
func (f *Fingerprint) Add(part []byte) {
	var lenBuf [8]byte
	n := uint64(len(part))
	for i := range lenBuf {
		lenBuf[i] = byte(n >> (8 * i))
	}
	_, _ = f.d.Write(lenBuf[:])
	_, _ = f.d.Write(part)
}

// Sum64 returns the current hash value.
func (f *Fingerprint) Sum64() uint64 {
	return f.d.Sum64()
}

// Hex returns the hash as a fixed-width, 16 character hexadecimal string.
func Hex(v uint64) string {
	s := strconv.FormatUint(v, 16)
	for len(s) < 16 {
		s = "0" + s
	}

	return s
}
