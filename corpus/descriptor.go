package corpus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedName is matched by every *NameParseError.
var ErrMalformedName = errors.New("malformed batch directory name")

// NameParseError reports a directory name that does not follow
// {dataset}-{format}-{batch_size}.
type NameParseError struct {
	Name   string
	Reason string
}

func (e *NameParseError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedName, e.Name, e.Reason)
}

func (e *NameParseError) Is(target error) bool {
	return target == ErrMalformedName
}

// Descriptor identifies a batch directory.
type Descriptor struct {
	// Dataset may itself contain hyphens, e.g. "astronomy-otelmetrics".
	Dataset   string `json:"dataset" yaml:"dataset"`
	Format    string `json:"format" yaml:"format"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
}

// Name returns the directory name the descriptor was parsed from.
func (d Descriptor) Name() string {
	return fmt.Sprintf("%s-%s-%d", d.Dataset, d.Format, d.BatchSize)
}

func (d Descriptor) String() string {
	return d.Name()
}

// ParseDescriptor parses a batch directory name from the right: the last
// hyphen-separated token is the batch size, the one before it the format,
// and everything before that the dataset.
//
//	ParseDescriptor("astronomy-otelmetrics-otapdictperfile-1000")
//	// Descriptor{Dataset: "astronomy-otelmetrics", Format: "otapdictperfile", BatchSize: 1000}
func ParseDescriptor(name string) (Descriptor, error) {
	sizeAt := strings.LastIndexByte(name, '-')
	if sizeAt < 0 {
		return Descriptor{}, &NameParseError{Name: name, Reason: "expected {dataset}-{format}-{batch_size}"}
	}
	formatAt := strings.LastIndexByte(name[:sizeAt], '-')
	if formatAt < 0 {
		return Descriptor{}, &NameParseError{Name: name, Reason: "expected {dataset}-{format}-{batch_size}"}
	}

	dataset, format, sizeTok := name[:formatAt], name[formatAt+1:sizeAt], name[sizeAt+1:]
	if dataset == "" || format == "" {
		return Descriptor{}, &NameParseError{Name: name, Reason: "empty dataset or format"}
	}

	size, err := strconv.Atoi(sizeTok)
	if err != nil || size <= 0 {
		return Descriptor{}, &NameParseError{Name: name, Reason: fmt.Sprintf("batch size %q is not a positive integer", sizeTok)}
	}

	return Descriptor{Dataset: dataset, Format: format, BatchSize: size}, nil
}
