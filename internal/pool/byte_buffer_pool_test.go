package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len(), "new buffer should have zero length")
	assert.Equal(t, 1024, bb.Cap(), "new buffer should have specified capacity")
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(8)

	n, err := bb.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, []byte("hello world"), bb.Bytes())

	capBefore := bb.Cap()
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, capBefore, bb.Cap(), "reset keeps the allocation")
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity is a no-op", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(32)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffer grows by step", func(t *testing.T) {
		bb := NewByteBuffer(16)
		_, _ = bb.Write([]byte("0123456789abcdef"))
		bb.Grow(1)
		require.Equal(t, 16+scratchGrowStep, bb.Cap())
		require.Equal(t, []byte("0123456789abcdef"), bb.Bytes())
	})

	t.Run("large request wins", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(scratchGrowStep * 3)
		require.GreaterOrEqual(t, bb.Cap(), scratchGrowStep*3)
	})
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("payload"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, "payload", out.String())
}

func TestByteBuffer_Detach(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("abc"))

	detached := bb.Detach()
	bb.Reset()
	_, _ = bb.Write([]byte("xyz"))

	require.Equal(t, []byte("abc"), detached, "detached copy must not alias the pooled buffer")
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(16, 32)

	bb := p.Get()
	bb.Grow(1024)
	require.Greater(t, bb.Cap(), 32)
	p.Put(bb)
	p.Put(nil)

	fresh := p.Get()
	require.LessOrEqual(t, fresh.Cap(), 32)
}

func TestScratchPool_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bb := GetScratchBuffer()
			defer PutScratchBuffer(bb)
			_, _ = bb.Write(bytes.Repeat([]byte{byte(i)}, 128))
			assert.Equal(t, 128, bb.Len())
		}(i)
	}
	wg.Wait()
}
