package session

import (
	"errors"
	"fmt"

	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/format"
)

// ErrClosed is returned when a closed session or released model is used.
var ErrClosed = errors.New("session: use after close")

// ModelLoadError reports a trained-model artifact the engine rejected.
type ModelLoadError struct {
	Schema format.Schema
	Code   engine.Code
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load %s model: %s: %v", e.Schema, e.Code, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// CompressionError reports a payload the engine refused to compress.
type CompressionError struct {
	Code engine.Code
	Err  error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("compress: %s: %v", e.Code, e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

// DecompressionError reports a frame the engine could not decode.
type DecompressionError struct {
	Code engine.Code
	Err  error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("decompress: %s: %v", e.Code, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }
