package runner

import (
	"bytes"

	"github.com/arloliu/codecbench/compress"
	"github.com/arloliu/codecbench/format"
	"github.com/arloliu/codecbench/session"
)

// passCodec is one codec as seen by the pass loop. Implementations are owned
// by a single worker.
type passCodec interface {
	Name() string
	Compress(payload []byte) ([]byte, error)
	Decompress(frame []byte) ([]byte, error)
	// Equivalent reports whether got is an acceptable restoration of orig.
	Equivalent(orig, got []byte) bool
	Close() error
}

// baselineCodec wraps a generic byte compressor. Round trips must be exact.
type baselineCodec struct {
	name  string
	codec compress.Codec
}

func (c *baselineCodec) Name() string { return c.name }

func (c *baselineCodec) Compress(payload []byte) ([]byte, error) {
	return c.codec.Compress(payload)
}

func (c *baselineCodec) Decompress(frame []byte) ([]byte, error) {
	return c.codec.Decompress(frame)
}

func (c *baselineCodec) Equivalent(orig, got []byte) bool {
	return bytes.Equal(orig, got)
}

func (c *baselineCodec) Close() error { return nil }

// structuredCodec owns one encoder and one decoder session on a shared model.
type structuredCodec struct {
	name   string
	schema format.Schema
	tag    int
	mgr    *session.Manager
	enc    *session.Encoder
	dec    *session.Decoder
}

func openStructured(mgr *session.Manager, model *session.Model, tag int) (*structuredCodec, error) {
	enc, err := mgr.OpenEncoder(model)
	if err != nil {
		return nil, err
	}

	dec, err := mgr.OpenDecoder()
	if err != nil {
		_ = enc.Close()
		return nil, err
	}

	return &structuredCodec{
		name:   mgr.EngineName(),
		schema: model.Schema(),
		tag:    tag,
		mgr:    mgr,
		enc:    enc,
		dec:    dec,
	}, nil
}

func (c *structuredCodec) Name() string { return c.name }

func (c *structuredCodec) Compress(payload []byte) ([]byte, error) {
	return c.enc.Compress(payload, c.tag)
}

func (c *structuredCodec) Decompress(frame []byte) ([]byte, error) {
	return c.dec.Decompress(frame)
}

func (c *structuredCodec) Equivalent(orig, got []byte) bool {
	return c.mgr.Equivalent(c.schema, orig, got)
}

func (c *structuredCodec) Close() error {
	_ = c.dec.Close()
	return c.enc.Close()
}
