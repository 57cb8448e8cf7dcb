package zlref

import (
	"slices"

	"github.com/arloliu/codecbench/engine"
)

// groupFields reorders the top-level fields of a protobuf message so that all
// occurrences of a field number are adjacent, in ascending field order.
// Occurrences of the same field keep their relative order.
//
// Columns of like values compress better than interleaved records. The
// result is semantically equal to the input but usually not byte-identical.
// The grouped message is appended to dst. The boolean is false when buf is not
// a protobuf message or is already grouped.
func groupFields(dst, buf []byte) ([]byte, bool) {
	fields, ok := engine.WireFields(buf)
	if !ok || len(fields) < 2 {
		return nil, false
	}

	sorted := slices.IsSortedFunc(fields, func(a, b engine.WireField) int {
		return int(a.Number) - int(b.Number)
	})
	if sorted {
		return nil, false
	}

	slices.SortStableFunc(fields, func(a, b engine.WireField) int {
		return int(a.Number) - int(b.Number)
	})

	dst = slices.Grow(dst, len(buf))
	for _, f := range fields {
		dst = append(dst, f.Raw...)
	}

	return dst, true
}
