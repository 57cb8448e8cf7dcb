package session

import (
	"sync/atomic"

	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/format"
)

// Model is a loaded trained model shared by any number of encoders.
//
// A Model is reference counted. LoadModel returns it holding one reference,
// every encoder opened on it holds another, and the engine handle is freed
// when the last reference is released. Retain fails once the count has
// reached zero, so a released model can never be revived.
type Model struct {
	handle      engine.ModelHandle
	schema      format.Schema
	fingerprint uint64
	refs        atomic.Int64
}

func newModel(handle engine.ModelHandle, schema format.Schema, fingerprint uint64) *Model {
	m := &Model{handle: handle, schema: schema, fingerprint: fingerprint}
	m.refs.Store(1)

	return m
}

// Schema returns the schema the model was loaded for.
func (m *Model) Schema() format.Schema {
	return m.schema
}

// Fingerprint returns the xxhash of the artifact the model was loaded from.
func (m *Model) Fingerprint() uint64 {
	return m.fingerprint
}

// Refs returns the current reference count.
func (m *Model) Refs() int64 {
	return m.refs.Load()
}

// Retain adds a reference. It returns ErrClosed if the model was already released.
func (m *Model) Retain() error {
	for {
		n := m.refs.Load()
		if n <= 0 {
			return ErrClosed
		}
		if m.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference and frees the engine handle when it was the last.
// Releasing an already released model is a no-op.
func (m *Model) Release() {
	for {
		n := m.refs.Load()
		if n <= 0 {
			return
		}
		if m.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				m.handle.Free()
			}

			return
		}
	}
}
