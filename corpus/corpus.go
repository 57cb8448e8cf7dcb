// Package corpus discovers benchmark batches on disk and loads their payloads.
//
// A corpus root contains one directory per batch, named
// {dataset}-{format}-{batch_size}. Each batch directory holds payload files
// named payload_<index>.<ext> and an optional metadata.json sidecar giving
// the number of semantic data points the batch represents:
//
//	data/generated/
//	  astronomy-otelmetrics-otlp-1000/
//	    metadata.json        {"total_data_points": 48210, "num_payloads": 12}
//	    payload_0000.bin
//	    payload_0001.bin
//
// Payloads are always read in file name order so that every run iterates a
// batch identically.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/arloliu/codecbench/internal/hash"
	"github.com/arloliu/codecbench/internal/options"
)

// MetadataFile is the name of the per-batch sidecar.
const MetadataFile = "metadata.json"

// PayloadPrefix starts every payload file name.
const PayloadPrefix = "payload_"

// payloadExts are the recognized payload file extensions.
var payloadExts = []string{".bin", ".pb", ".arrow", ".ipc"}

// ErrEmptyCorpus reports a batch directory without payload files.
var ErrEmptyCorpus = errors.New("batch has no payload files")

// DiscoveryError reports an unreadable corpus root or batch directory.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ErrInvalidMetadata reports a metadata.json that does not match its schema.
var ErrInvalidMetadata = errors.New("invalid batch metadata")

// metadataSchema constrains metadata.json. Unknown keys are allowed so newer
// generators can add fields.
var metadataSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []string{"total_data_points"},
	"properties": map[string]any{
		"total_data_points": map[string]any{"type": "integer", "minimum": 0},
		"num_payloads":      map[string]any{"type": "integer", "minimum": 0},
	},
})

// Metadata is the content of metadata.json.
type Metadata struct {
	TotalDataPoints int `json:"total_data_points"`
	NumPayloads     int `json:"num_payloads"`
}

// BatchDir is a discovered, not yet loaded, batch directory.
type BatchDir struct {
	Name string
	Path string
}

// BatchCorpus is a fully loaded batch. It is not modified after Load.
type BatchCorpus struct {
	Descriptor Descriptor
	Dir        string
	// Points is zero when the batch has no metadata sidecar.
	Points     int
	Payloads   [][]byte
	TotalBytes int
	// Fingerprint is an xxhash over the payloads in order.
	Fingerprint uint64
}

// Validate rejects a batch that has no payloads.
func (b *BatchCorpus) Validate() error {
	if len(b.Payloads) == 0 {
		return fmt.Errorf("%s: %w", b.Dir, ErrEmptyCorpus)
	}

	return nil
}

// IsPayloadFile reports whether name follows the payload naming convention.
func IsPayloadFile(name string) bool {
	if !strings.HasPrefix(name, PayloadPrefix) {
		return false
	}

	return slices.Contains(payloadExts, filepath.Ext(name))
}

// Option configures a Registry.
type Option = options.Option[*Registry]

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(r *Registry) {
		if logger != nil {
			r.logger = logger.Sugar()
		}
	})
}

// Registry reads batches below a root directory of an afero filesystem.
type Registry struct {
	fs     afero.Fs
	root   string
	logger *zap.SugaredLogger
}

// NewRegistry returns a registry rooted at root on fsys.
func NewRegistry(fsys afero.Fs, root string, opts ...Option) (*Registry, error) {
	r := &Registry{fs: fsys, root: root, logger: zap.NewNop().Sugar()}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Root returns the corpus root.
func (r *Registry) Root() string {
	return r.root
}

// DiscoverBatches lists the subdirectories of the root that contain at least
// one payload file, sorted by name.
func (r *Registry) DiscoverBatches() ([]BatchDir, error) {
	entries, err := afero.ReadDir(r.fs, r.root)
	if err != nil {
		return nil, &DiscoveryError{Path: r.root, Err: err}
	}

	var dirs []BatchDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.root, entry.Name())

		names, err := r.payloadNames(dir)
		if err != nil {
			r.logger.Warnw("skipping unreadable batch directory", "dir", dir, "error", err)
			continue
		}
		if len(names) == 0 {
			continue
		}
		dirs = append(dirs, BatchDir{Name: entry.Name(), Path: dir})
	}

	slices.SortFunc(dirs, func(a, b BatchDir) int {
		return strings.Compare(a.Name, b.Name)
	})

	return dirs, nil
}

func (r *Registry) payloadNames(dir string) ([]string, error) {
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.Mode().IsRegular() && IsPayloadFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	return names, nil
}

// ReadPayloads reads every payload file of dir in file name order.
// An empty result is not an error here.
func (r *Registry) ReadPayloads(dir string) ([][]byte, error) {
	names, err := r.payloadNames(dir)
	if err != nil {
		return nil, &DiscoveryError{Path: dir, Err: err}
	}

	payloads := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := afero.ReadFile(r.fs, filepath.Join(dir, name))
		if err != nil {
			return nil, &DiscoveryError{Path: filepath.Join(dir, name), Err: err}
		}
		payloads = append(payloads, data)
	}

	return payloads, nil
}

// ReadMetadata reads the metadata.json sidecar of dir.
func (r *Registry) ReadMetadata(dir string) (Metadata, error) {
	var md Metadata

	data, err := afero.ReadFile(r.fs, filepath.Join(dir, MetadataFile))
	if err != nil {
		return md, err
	}
	if err := validateMetadata(data); err != nil {
		return md, fmt.Errorf("%s: %w", filepath.Join(dir, MetadataFile), err)
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return md, fmt.Errorf("parse %s: %w", filepath.Join(dir, MetadataFile), err)
	}

	return md, nil
}

func validateMetadata(data []byte) error {
	result, err := gojsonschema.Validate(metadataSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(msgs, "; "))
}

// ReadPointCount returns the number of semantic data points in dir.
func (r *Registry) ReadPointCount(dir string) (int, error) {
	md, err := r.ReadMetadata(dir)
	if err != nil {
		return 0, err
	}

	return md.TotalDataPoints, nil
}

// Load parses the directory name and reads payloads and metadata.
// A missing sidecar leaves Points at zero; a malformed one is an error.
func (r *Registry) Load(bd BatchDir) (*BatchCorpus, error) {
	desc, err := ParseDescriptor(bd.Name)
	if err != nil {
		return nil, err
	}

	payloads, err := r.ReadPayloads(bd.Path)
	if err != nil {
		return nil, err
	}

	points, err := r.ReadPointCount(bd.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Warnw("batch has no metadata sidecar", "batch", bd.Name)
	case err != nil:
		return nil, &DiscoveryError{Path: bd.Path, Err: err}
	}

	fp := hash.NewFingerprint()
	total := 0
	for _, p := range payloads {
		fp.Add(p)
		total += len(p)
	}

	return &BatchCorpus{
		Descriptor:  desc,
		Dir:         bd.Path,
		Points:      points,
		Payloads:    payloads,
		TotalBytes:  total,
		Fingerprint: fp.Sum64(),
	}, nil
}
