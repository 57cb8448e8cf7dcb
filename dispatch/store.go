package dispatch

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arloliu/codecbench/corpus"
	"github.com/arloliu/codecbench/format"
)

// ModelFile is the artifact name inside each schema directory.
const ModelFile = "trained.zlc"

// Store locates trained-model artifacts laid out as <root>/<schema>/trained.zlc.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a model store rooted at root on fsys.
func NewStore(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root}
}

// Path returns the artifact path for schema.
func (s *Store) Path(schema format.Schema) string {
	return filepath.Join(s.root, schema.String(), ModelFile)
}

// Available lists the schemas whose artifact exists, in schema order.
func (s *Store) Available() []format.Schema {
	var out []format.Schema
	for _, schema := range format.Schemas() {
		if ok, _ := afero.Exists(s.fs, s.Path(schema)); ok {
			out = append(out, schema)
		}
	}

	return out
}

// Load reads the artifact for schema. A missing file yields ErrModelNotFound.
func (s *Store) Load(schema format.Schema) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.Path(schema))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Attach fills in the model bytes of a resolved assignment. Baseline-only
// assignments are returned unchanged. A missing artifact yields a
// *ResolutionError wrapping ErrModelNotFound.
func (s *Store) Attach(d corpus.Descriptor, a Assignment) (Assignment, error) {
	if !a.NeedsModel() {
		return a, nil
	}

	data, err := s.Load(a.Schema)
	if err != nil {
		return a, &ResolutionError{Descriptor: d, Schema: a.Schema, Err: err}
	}
	a.Model = data

	return a, nil
}

// Resolve runs the rule table and attaches the model in one step.
func (s *Store) Resolve(d corpus.Descriptor) (Assignment, error) {
	a, err := Resolve(d)
	if err != nil {
		return a, err
	}

	return s.Attach(d, a)
}
