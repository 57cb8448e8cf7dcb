package zlref

import (
	"bytes"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/codecbench/format"
)

// modelMagic prefixes every serialized model artifact.
var modelMagic = []byte("ZLRM")

const (
	fieldSchema   protowire.Number = 1
	fieldBackend  protowire.Number = 2
	fieldLevel    protowire.Number = 3
	fieldClusters protowire.Number = 4
	fieldMaxInput protowire.Number = 5
)

var errModelFormat = errors.New("malformed model artifact")

// ModelSpec is the decoded content of a trained-model artifact.
type ModelSpec struct {
	Schema  format.Schema
	Backend format.CompressionType
	// Level is the backend level; only zstd uses it.
	Level int
	// Clusters is the number of clustering tags the model was trained with.
	// Zero means the model accepts any tag, including none.
	Clusters int
	// MaxInput is the largest payload the model accepts; zero means unbounded.
	MaxInput int
}

// MarshalModel serializes spec into an artifact LoadModel accepts.
func MarshalModel(spec ModelSpec) []byte {
	b := append([]byte(nil), modelMagic...)
	b = protowire.AppendTag(b, fieldSchema, protowire.BytesType)
	b = protowire.AppendString(b, spec.Schema.String())
	b = protowire.AppendTag(b, fieldBackend, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(spec.Backend))
	b = protowire.AppendTag(b, fieldLevel, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(spec.Level))
	b = protowire.AppendTag(b, fieldClusters, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(spec.Clusters))
	b = protowire.AppendTag(b, fieldMaxInput, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(spec.MaxInput))

	return b
}

// UnmarshalModel decodes an artifact produced by MarshalModel.
// Unknown fields are skipped.
func UnmarshalModel(artifact []byte) (ModelSpec, error) {
	var spec ModelSpec
	if !bytes.HasPrefix(artifact, modelMagic) {
		return spec, fmt.Errorf("%w: missing magic", errModelFormat)
	}

	buf := artifact[len(modelMagic):]
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return spec, fmt.Errorf("%w: %w", errModelFormat, protowire.ParseError(n))
		}
		buf = buf[n:]

		switch {
		case num == fieldSchema && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(buf)
			if m < 0 {
				return spec, fmt.Errorf("%w: schema: %w", errModelFormat, protowire.ParseError(m))
			}
			schema, ok := format.ParseSchema(v)
			if !ok {
				return spec, fmt.Errorf("%w: unknown schema %q", errModelFormat, v)
			}
			spec.Schema = schema
			n = m
		case typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(buf)
			if m < 0 {
				return spec, fmt.Errorf("%w: field %d: %w", errModelFormat, num, protowire.ParseError(m))
			}
			setVarintField(&spec, num, v)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return spec, fmt.Errorf("%w: field %d: %w", errModelFormat, num, protowire.ParseError(n))
			}
		}
		buf = buf[n:]
	}

	if spec.Schema == format.SchemaUnknown {
		return spec, fmt.Errorf("%w: schema not set", errModelFormat)
	}
	if spec.Backend == 0 {
		return spec, fmt.Errorf("%w: backend not set", errModelFormat)
	}

	return spec, nil
}

func setVarintField(spec *ModelSpec, num protowire.Number, v uint64) {
	switch num {
	case fieldBackend:
		spec.Backend = format.CompressionType(v)
	case fieldLevel:
		spec.Level = int(v)
	case fieldClusters:
		spec.Clusters = int(v)
	case fieldMaxInput:
		spec.MaxInput = int(v)
	}
}
