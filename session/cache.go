package session

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arloliu/codecbench/format"
	"github.com/arloliu/codecbench/internal/hash"
)

// ModelCache loads each distinct trained-model artifact once and shares it.
//
// Entries are keyed by schema and the xxhash of the artifact bytes. Concurrent
// requests for the same key wait on a single load. The cache holds one
// reference per entry until Close.
type ModelCache struct {
	mgr    *Manager
	group  singleflight.Group
	mu     sync.Mutex
	models map[string]*Model
	closed bool
}

// NewModelCache returns an empty cache that loads through mgr.
func NewModelCache(mgr *Manager) *ModelCache {
	return &ModelCache{mgr: mgr, models: make(map[string]*Model)}
}

func cacheKey(schema format.Schema, artifact []byte) string {
	return fmt.Sprintf("%s/%s", schema, hash.Hex(hash.Bytes(artifact)))
}

// Get returns the Model for (schema, artifact) with a reference owned by the
// caller, loading it on first use. Callers must Release the result.
func (c *ModelCache) Get(schema format.Schema, artifact []byte) (*Model, error) {
	key := cacheKey(schema, artifact)

	if m, err := c.lookup(key); m != nil || err != nil {
		return m, err
	}

	_, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		_, loaded := c.models[key]
		c.mu.Unlock()
		if loaded {
			return nil, nil
		}

		m, err := c.mgr.LoadModel(schema, artifact)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			m.Release()
			return nil, ErrClosed
		}
		c.models[key] = m

		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	m, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrClosed
	}

	return m, nil
}

// lookup returns a retained cached model, or nil if absent.
func (c *ModelCache) lookup(key string) (*Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	m, ok := c.models[key]
	if !ok {
		return nil, nil
	}
	if err := m.Retain(); err != nil {
		return nil, err
	}

	return m, nil
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.models)
}

// Close drops the cache's references. Models still held by callers stay
// alive until they are released. Close is idempotent.
func (c *ModelCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	for key, m := range c.models {
		m.Release()
		delete(c.models, key)
	}

	return nil
}
