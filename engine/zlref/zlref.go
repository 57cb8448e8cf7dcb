// Package zlref is an in-process reference implementation of engine.Engine.
//
// It reproduces the observable contract of the native structured compressor
// without linking it: trained models are small protowire artifacts naming a
// schema and a backend codec, compressed frames are self-describing so that
// decompression never needs the model, and model-bound compressors enforce
// clustering tags and input size limits with the same error codes the native
// engine reports. Model-bound compression groups the top-level protobuf fields
// of a payload by field number before handing it to the backend, so a round
// trip yields a semantically equal but reordered payload.
package zlref

import (
	"bytes"
	"sync/atomic"

	"github.com/arloliu/codecbench/compress"
	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/format"
	"github.com/arloliu/codecbench/internal/options"
	"github.com/arloliu/codecbench/internal/pool"
)

// Name is the engine name reported in results.
const Name = "zlref"

// Option configures an Engine.
type Option = options.Option[*Engine]

// WithGenericBackend sets the codec used by compressors created without a model.
func WithGenericBackend(b compress.Baseline) Option {
	return options.Named("generic backend", func(e *Engine) error {
		codec, err := b.New()
		if err != nil {
			return err
		}
		e.generic = codec
		e.genericType = b.Algorithm

		return nil
	})
}

// WithFieldGrouping toggles protobuf field grouping for model-bound compressors.
func WithFieldGrouping(enabled bool) Option {
	return options.NoError(func(e *Engine) {
		e.grouping = enabled
	})
}

// Engine is the reference engine. It is safe for concurrent use; the handles
// it returns follow the engine.Engine concurrency contract.
type Engine struct {
	generic     compress.Codec
	genericType format.CompressionType
	grouping    bool

	live atomic.Int64
}

var _ engine.Engine = (*Engine)(nil)

// New creates a reference engine. By default generic compressors use zstd
// at level 3 and field grouping is enabled.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		generic:     compress.NewZstdCompressorLevel(3),
		genericType: format.CompressionZstd,
		grouping:    true,
	}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) Name() string {
	return Name
}

// Live returns the number of handles that have been created and not freed.
func (e *Engine) Live() int64 {
	return e.live.Load()
}

func (e *Engine) LoadModel(artifact []byte) (engine.ModelHandle, error) {
	spec, err := UnmarshalModel(artifact)
	if err != nil {
		return nil, &engine.Error{Op: "load model", Code: engine.CodeInvalidModel, Detail: err.Error()}
	}

	codec, err := compress.CreateCodec(spec.Backend, spec.Level)
	if err != nil {
		return nil, &engine.Error{Op: "load model", Code: engine.CodeInvalidModel, Detail: err.Error()}
	}

	e.live.Add(1)

	return &model{engine: e, spec: spec, codec: codec}, nil
}

func (e *Engine) NewCompressor(m engine.ModelHandle) (engine.CompressorHandle, error) {
	c := &compressor{engine: e}
	if m != nil {
		zm, ok := m.(*model)
		if !ok || zm.engine != e {
			return nil, engine.Errorf("create compressor", engine.CodeInvalidModel, "model was not loaded by this engine")
		}
		if zm.freed.Load() {
			return nil, engine.Errorf("create compressor", engine.CodeInvalidModel, "model already freed")
		}
		c.model = zm
	}
	e.live.Add(1)

	return c, nil
}

func (e *Engine) NewDecompressor() (engine.DecompressorHandle, error) {
	e.live.Add(1)
	return &decompressor{engine: e}, nil
}

func (e *Engine) Equivalent(schema format.Schema, a, b []byte) bool {
	return engine.SemanticEqual(schema, a, b)
}

type model struct {
	engine *Engine
	spec   ModelSpec
	codec  compress.Codec
	freed  atomic.Bool
}

func (m *model) Schema() format.Schema {
	return m.spec.Schema
}

// Spec returns the decoded artifact.
func (m *model) Spec() ModelSpec {
	return m.spec
}

func (m *model) Free() {
	if m.freed.CompareAndSwap(false, true) {
		m.engine.live.Add(-1)
	}
}

type compressor struct {
	engine *Engine
	model  *model
	freed  bool
}

func (c *compressor) Compress(src []byte, clusteringTag int) ([]byte, error) {
	if c.freed {
		return nil, engine.Errorf("compress", engine.CodeGeneric, "compressor already freed")
	}
	if len(src) == 0 {
		return nil, nil
	}

	codec, backend := c.engine.generic, c.engine.genericType
	hdr := frameHeader{tag: int32(engine.NoClusteringTag), size: uint64(len(src))}
	body := src

	if m := c.model; m != nil {
		if m.freed.Load() {
			return nil, engine.Errorf("compress", engine.CodeInvalidModel, "model freed while in use")
		}
		if m.spec.MaxInput > 0 && len(src) > m.spec.MaxInput {
			return nil, engine.Errorf("compress", engine.CodeSrcSizeTooLarge, "%d bytes exceeds model limit %d", len(src), m.spec.MaxInput)
		}
		if m.spec.Clusters > 0 && (clusteringTag < 0 || clusteringTag >= m.spec.Clusters) {
			return nil, engine.Errorf("compress", engine.CodeMissingClusteringTag, "tag %d not in [0, %d)", clusteringTag, m.spec.Clusters)
		}
		codec, backend = m.codec, m.spec.Backend
		hdr.tag = int32(clusteringTag)

		if c.engine.grouping {
			// The grouped copy only lives until the backend has consumed it.
			scratch := pool.GetScratchBuffer()
			defer pool.PutScratchBuffer(scratch)

			if grouped, ok := groupFields(scratch.B[:0], src); ok {
				scratch.B = grouped
				body = grouped
				hdr.flags |= flagGrouped
			}
		}
	}
	hdr.backend = backend

	stream, err := codec.Compress(body)
	if err != nil {
		return nil, engine.Errorf("compress", engine.CodeGeneric, "%s backend: %v", backend, err)
	}

	if frameHeaderSize+len(stream) > engine.CompressBound(len(src)) {
		return nil, engine.Errorf("compress", engine.CodeDstCapacityTooSmall, "frame exceeds bound %d", engine.CompressBound(len(src)))
	}

	frame := make([]byte, 0, frameHeaderSize+len(stream))
	frame = hdr.appendTo(frame)

	return append(frame, stream...), nil
}

func (c *compressor) Free() {
	if c.freed {
		return
	}
	c.freed = true
	c.engine.live.Add(-1)
}

type decompressor struct {
	engine *Engine
	freed  bool
}

func (d *decompressor) Decompress(src []byte) ([]byte, error) {
	if d.freed {
		return nil, engine.Errorf("decompress", engine.CodeGeneric, "decompressor already freed")
	}
	if len(src) == 0 {
		return nil, nil
	}

	hdr, stream, err := parseFrameHeader(src)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(hdr.backend)
	if err != nil {
		return nil, engine.Errorf("decompress", engine.CodeCorruption, "unknown backend %d", uint8(hdr.backend))
	}

	out, err := codec.Decompress(stream)
	if err != nil {
		return nil, engine.Errorf("decompress", engine.CodeCorruption, "%v", err)
	}
	if uint64(len(out)) != hdr.size {
		return nil, engine.Errorf("decompress", engine.CodeCorruption, "decoded %d bytes, header declares %d", len(out), hdr.size)
	}
	if hdr.backend == format.CompressionNone {
		out = bytes.Clone(out)
	}

	return out, nil
}

func (d *decompressor) Free() {
	if d.freed {
		return
	}
	d.freed = true
	d.engine.live.Add(-1)
}
