// Package session owns the lifecycle of structured codec resources.
//
// A Manager wraps an engine.Engine. It loads trained models into reference
// counted Models and opens Encoders and Decoders, each of which owns exactly
// one engine handle and releases it on Close. Encoders and Decoders are
// confined to the goroutine that uses them; Models are shared freely.
//
//	m, err := mgr.LoadModel(format.SchemaOTLPMetrics, artifact)
//	if err != nil {
//		return err
//	}
//	defer m.Release()
//
//	enc, err := mgr.OpenEncoder(m)
//	if err != nil {
//		return err
//	}
//	defer enc.Close()
//	frame, err := enc.Compress(payload, 0)
package session

import (
	"go.uber.org/zap"

	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/format"
	"github.com/arloliu/codecbench/internal/hash"
	"github.com/arloliu/codecbench/internal/options"
)

// Option configures a Manager.
type Option = options.Option[*Manager]

// WithLogger sets the logger used for model lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(m *Manager) {
		if logger != nil {
			m.logger = logger.Sugar()
		}
	})
}

// Manager creates sessions on an engine. It is safe for concurrent use.
type Manager struct {
	engine engine.Engine
	logger *zap.SugaredLogger
}

// NewManager returns a Manager for eng.
func NewManager(eng engine.Engine, opts ...Option) (*Manager, error) {
	m := &Manager{engine: eng, logger: zap.NewNop().Sugar()}
	if err := options.Apply(m, opts...); err != nil {
		return nil, err
	}

	return m, nil
}

// EngineName returns the name of the underlying engine.
func (m *Manager) EngineName() string {
	return m.engine.Name()
}

// LoadModel deserializes a trained-model artifact for schema. The returned
// Model holds one reference owned by the caller.
func (m *Manager) LoadModel(schema format.Schema, artifact []byte) (*Model, error) {
	handle, err := m.engine.LoadModel(artifact)
	if err != nil {
		return nil, &ModelLoadError{Schema: schema, Code: engine.CodeOf(err), Err: err}
	}
	// Engines that cannot tell the schema of an artifact report SchemaUnknown.
	if got := handle.Schema(); got != format.SchemaUnknown && got != schema {
		handle.Free()
		err := engine.Errorf("load model", engine.CodeInvalidModel, "artifact is a %s model", got)

		return nil, &ModelLoadError{Schema: schema, Code: engine.CodeInvalidModel, Err: err}
	}

	fp := hash.Bytes(artifact)
	m.logger.Debugw("model loaded", "schema", schema.String(), "bytes", len(artifact), "fingerprint", hash.Hex(fp))

	return newModel(handle, schema, fp), nil
}

// OpenEncoder opens a compression session. With a nil model the encoder uses
// the engine's generic graph and ignores clustering tags.
func (m *Manager) OpenEncoder(model *Model) (*Encoder, error) {
	var mh engine.ModelHandle
	if model != nil {
		if err := model.Retain(); err != nil {
			return nil, err
		}
		mh = model.handle
	}

	h, err := m.engine.NewCompressor(mh)
	if err != nil {
		if model != nil {
			model.Release()
		}

		return nil, &CompressionError{Code: engine.CodeOf(err), Err: err}
	}

	return &Encoder{handle: h, model: model}, nil
}

// OpenDecoder opens a decompression session. Frames are self-describing, so
// no model is needed.
func (m *Manager) OpenDecoder() (*Decoder, error) {
	h, err := m.engine.NewDecompressor()
	if err != nil {
		return nil, &DecompressionError{Code: engine.CodeOf(err), Err: err}
	}

	return &Decoder{handle: h}, nil
}

// Equivalent reports whether two payloads of schema are semantically equal.
func (m *Manager) Equivalent(schema format.Schema, a, b []byte) bool {
	return m.engine.Equivalent(schema, a, b)
}

// Encoder is a single-goroutine compression session.
type Encoder struct {
	handle engine.CompressorHandle
	model  *Model
}

// Compress compresses one payload.
func (e *Encoder) Compress(payload []byte, clusteringTag int) ([]byte, error) {
	if e.handle == nil {
		return nil, ErrClosed
	}

	out, err := e.handle.Compress(payload, clusteringTag)
	if err != nil {
		return nil, &CompressionError{Code: engine.CodeOf(err), Err: err}
	}

	return out, nil
}

// Close frees the engine handle and drops the encoder's model reference.
// It is safe to call more than once.
func (e *Encoder) Close() error {
	if e.handle == nil {
		return nil
	}
	e.handle.Free()
	e.handle = nil

	if e.model != nil {
		e.model.Release()
		e.model = nil
	}

	return nil
}

// Decoder is a single-goroutine decompression session.
type Decoder struct {
	handle engine.DecompressorHandle
}

// Decompress restores one payload.
func (d *Decoder) Decompress(frame []byte) ([]byte, error) {
	if d.handle == nil {
		return nil, ErrClosed
	}

	out, err := d.handle.Decompress(frame)
	if err != nil {
		return nil, &DecompressionError{Code: engine.CodeOf(err), Err: err}
	}

	return out, nil
}

// Close frees the engine handle. It is safe to call more than once.
func (d *Decoder) Close() error {
	if d.handle == nil {
		return nil
	}
	d.handle.Free()
	d.handle = nil

	return nil
}
