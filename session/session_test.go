package session

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/engine/zlref"
	"github.com/arloliu/codecbench/format"
)

// countingEngine counts LoadModel calls on top of the reference engine.
type countingEngine struct {
	*zlref.Engine
	loads atomic.Int64
}

func (c *countingEngine) LoadModel(artifact []byte) (engine.ModelHandle, error) {
	c.loads.Add(1)
	return c.Engine.LoadModel(artifact)
}

func newTestManager(t *testing.T) (*Manager, *countingEngine) {
	t.Helper()
	ref, err := zlref.New()
	require.NoError(t, err)
	eng := &countingEngine{Engine: ref}
	mgr, err := NewManager(eng)
	require.NoError(t, err)

	return mgr, eng
}

func metricsArtifact(clusters int) []byte {
	return zlref.MarshalModel(zlref.ModelSpec{
		Schema:   format.SchemaOTLPMetrics,
		Backend:  format.CompressionZstd,
		Level:    4,
		Clusters: clusters,
	})
}

func samplePayload() []byte {
	var b []byte
	for i := range 128 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, "resource")
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(i))
	}

	return b
}

func TestSharedModel_ByteIdenticalOutput(t *testing.T) {
	mgr, _ := newTestManager(t)
	m, err := mgr.LoadModel(format.SchemaOTLPMetrics, metricsArtifact(1))
	require.NoError(t, err)
	defer m.Release()

	enc1, err := mgr.OpenEncoder(m)
	require.NoError(t, err)
	defer enc1.Close()
	enc2, err := mgr.OpenEncoder(m)
	require.NoError(t, err)
	defer enc2.Close()

	payload := samplePayload()
	a, err := enc1.Compress(payload, 0)
	require.NoError(t, err)
	b, err := enc2.Compress(payload, 0)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRoundTrip_Semantic(t *testing.T) {
	mgr, _ := newTestManager(t)
	artifact := zlref.MarshalModel(zlref.ModelSpec{Schema: format.SchemaTPCHProto, Backend: format.CompressionS2})
	m, err := mgr.LoadModel(format.SchemaTPCHProto, artifact)
	require.NoError(t, err)
	defer m.Release()

	enc, err := mgr.OpenEncoder(m)
	require.NoError(t, err)
	defer enc.Close()
	dec, err := mgr.OpenDecoder()
	require.NoError(t, err)
	defer dec.Close()

	payload := samplePayload()
	frame, err := enc.Compress(payload, engine.NoClusteringTag)
	require.NoError(t, err)
	out, err := dec.Decompress(frame)
	require.NoError(t, err)
	require.NotEqual(t, payload, out, "fields come back grouped")
	require.True(t, mgr.Equivalent(format.SchemaTPCHProto, payload, out))
}

func TestModel_ReferenceCounting(t *testing.T) {
	mgr, eng := newTestManager(t)
	m, err := mgr.LoadModel(format.SchemaOTLPMetrics, metricsArtifact(0))
	require.NoError(t, err)
	require.Equal(t, int64(1), m.Refs())

	enc1, err := mgr.OpenEncoder(m)
	require.NoError(t, err)
	enc2, err := mgr.OpenEncoder(m)
	require.NoError(t, err)
	require.Equal(t, int64(3), m.Refs())
	require.Equal(t, int64(3), eng.Live(), "model plus two compressors")

	// The loader lets go first; the model must survive its encoders.
	m.Release()
	require.Equal(t, int64(2), m.Refs())
	_, err = enc1.Compress(samplePayload(), 0)
	require.NoError(t, err)

	require.NoError(t, enc1.Close())
	require.NoError(t, enc1.Close())
	require.Equal(t, int64(1), m.Refs())

	require.NoError(t, enc2.Close())
	require.Zero(t, m.Refs())
	require.Zero(t, eng.Live())

	m.Release()
	require.Zero(t, m.Refs(), "over-release is a no-op")
	require.ErrorIs(t, m.Retain(), ErrClosed)

	_, err = mgr.OpenEncoder(m)
	require.ErrorIs(t, err, ErrClosed)
}

func TestUseAfterClose(t *testing.T) {
	mgr, eng := newTestManager(t)

	enc, err := mgr.OpenEncoder(nil)
	require.NoError(t, err)
	dec, err := mgr.OpenDecoder()
	require.NoError(t, err)

	require.NoError(t, enc.Close())
	require.NoError(t, dec.Close())
	require.NoError(t, dec.Close())
	require.Zero(t, eng.Live())

	_, err = enc.Compress([]byte("x"), engine.NoClusteringTag)
	require.ErrorIs(t, err, ErrClosed)
	_, err = dec.Decompress([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)
}

func TestErrors_CarryEngineCode(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.LoadModel(format.SchemaTPCHProto, []byte("garbage"))
	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, engine.CodeInvalidModel, loadErr.Code)
	require.Equal(t, format.SchemaTPCHProto, loadErr.Schema)

	m, err := mgr.LoadModel(format.SchemaOTLPMetrics, metricsArtifact(2))
	require.NoError(t, err)
	defer m.Release()
	enc, err := mgr.OpenEncoder(m)
	require.NoError(t, err)
	defer enc.Close()

	_, err = enc.Compress(samplePayload(), engine.NoClusteringTag)
	var compErr *CompressionError
	require.ErrorAs(t, err, &compErr)
	require.Equal(t, engine.CodeMissingClusteringTag, compErr.Code)

	dec, err := mgr.OpenDecoder()
	require.NoError(t, err)
	defer dec.Close()
	_, err = dec.Decompress([]byte("short"))
	var decErr *DecompressionError
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, engine.CodeSrcSizeTooSmall, decErr.Code)
}

func TestLoadModel_SchemaMismatch(t *testing.T) {
	mgr, eng := newTestManager(t)
	traces := zlref.MarshalModel(zlref.ModelSpec{Schema: format.SchemaOTLPTraces, Backend: format.CompressionZstd, Level: 4})

	_, err := mgr.LoadModel(format.SchemaOTLPMetrics, traces)
	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, engine.CodeInvalidModel, loadErr.Code)
	require.Equal(t, format.SchemaOTLPMetrics, loadErr.Schema)
	require.Contains(t, err.Error(), "otlp_traces")
	require.Zero(t, eng.Live(), "rejected model must be freed")

	m, err := mgr.LoadModel(format.SchemaOTLPTraces, traces)
	require.NoError(t, err)
	require.Equal(t, format.SchemaOTLPTraces, m.Schema())
	m.Release()
	require.Zero(t, eng.Live())
}

func TestConcurrentEncodersShareModel(t *testing.T) {
	mgr, eng := newTestManager(t)
	m, err := mgr.LoadModel(format.SchemaOTLPMetrics, metricsArtifact(1))
	require.NoError(t, err)

	payload := samplePayload()
	want, err := func() ([]byte, error) {
		enc, err := mgr.OpenEncoder(m)
		if err != nil {
			return nil, err
		}
		defer enc.Close()

		return enc.Compress(payload, 0)
	}()
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc, err := mgr.OpenEncoder(m)
			if err != nil {
				errs <- err
				return
			}
			defer enc.Close()
			dec, err := mgr.OpenDecoder()
			if err != nil {
				errs <- err
				return
			}
			defer dec.Close()

			for range 20 {
				frame, err := enc.Compress(payload, 0)
				if err != nil {
					errs <- err
					return
				}
				if !bytes.Equal(frame, want) {
					errs <- ErrClosed
					return
				}
				if _, err := dec.Decompress(frame); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	m.Release()
	require.Zero(t, eng.Live())
}
