package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Encoding selects the persisted document format.
type Encoding string

const (
	JSON Encoding = "json"
	YAML Encoding = "yaml"
)

// ParseEncoding accepts "json", "yaml" or "yml".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// EncodingFromPath infers the encoding from a file extension.
func EncodingFromPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// maxSuffix bounds the search for a free output file name.
const maxSuffix = 1000

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and collapses anything outside [a-z0-9] into "-".
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "all"
	}

	return s
}

// FileName encodes a run's configuration into its output file name:
// benchmark_<filter>_<algorithm><level>_iter<N>.<ext>. The level is omitted
// for algorithms without levels.
func FileName(filter, algorithm string, level, iterations int, enc Encoding) string {
	codec := algorithm
	if algorithm == "zstd" {
		codec = fmt.Sprintf("%s%d", algorithm, level)
	}

	return fmt.Sprintf("benchmark_%s_%s_iter%d.%s", Slugify(filter), codec, iterations, enc)
}

// Encode serializes suite.
func Encode(suite *Suite, enc Encoding) ([]byte, error) {
	switch enc {
	case YAML:
		var buf bytes.Buffer
		e := yaml.NewEncoder(&buf)
		e.SetIndent(2)
		if err := e.Encode(suite); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := e.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}

		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(suite, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}

		return append(data, '\n'), nil
	}
}

// Decode parses a suite.
func Decode(data []byte, enc Encoding) (*Suite, error) {
	var suite Suite
	switch enc {
	case YAML:
		if err := yaml.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}

	return &suite, nil
}

// Write persists suite as dir/name. An existing file is never replaced: the
// first free name among name, name-1, name-2, ... is used. The path written
// is returned.
func Write(fsys afero.Fs, dir, name string, suite *Suite, enc Encoding) (string, error) {
	data, err := Encode(suite, enc)
	if err != nil {
		return "", err
	}

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := range maxSuffix {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}

		return path, nil
	}

	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// Read loads a suite, choosing the decoder from the file extension.
func Read(fsys afero.Fs, path string) (*Suite, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	return Decode(data, EncodingFromPath(path))
}
