package engine

import (
	"errors"
	"fmt"
)

// Code is a native engine error code.
type Code int

const (
	CodeNone Code = iota
	CodeGeneric
	CodeCorruption
	CodeSrcSizeTooLarge
	CodeSrcSizeTooSmall
	CodeDstCapacityTooSmall
	CodeMissingClusteringTag
	CodeInvalidModel
	CodeUnknownSize
	CodeAllocation
)

var codeNames = [...]string{
	CodeNone:                 "no_error",
	CodeGeneric:              "generic",
	CodeCorruption:           "corruption",
	CodeSrcSizeTooLarge:      "srcSize_tooLarge",
	CodeSrcSizeTooSmall:      "srcSize_tooSmall",
	CodeDstCapacityTooSmall:  "dstCapacity_tooSmall",
	CodeMissingClusteringTag: "missing_clustering_tag",
	CodeInvalidModel:         "invalid_model",
	CodeUnknownSize:          "unknown_size",
	CodeAllocation:           "allocation",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("code(%d)", int(c))
	}

	return codeNames[c]
}

// Error is a failed engine call. It is the only form in which native result
// codes leave an engine implementation.
type Error struct {
	Op   string
	Code Code
	// Detail is optional context supplied by the engine.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("engine %s: %s", e.Op, e.Code)
	}

	return fmt.Sprintf("engine %s: %s: %s", e.Op, e.Code, e.Detail)
}

// Errorf builds an *Error with a formatted detail message.
func Errorf(op string, code Code, format string, args ...any) *Error {
	return &Error{Op: op, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the engine code from err. It returns CodeNone for a nil
// error and CodeGeneric for errors that did not originate in an engine.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeGeneric
}
