package runner

import (
	"errors"
	"fmt"
)

// ErrNoResults is returned by Run when no batch produced a result.
var ErrNoResults = errors.New("benchmark produced no results")

// RoundTripMismatchError reports a payload that did not survive a round trip.
// It always indicates a correctness bug and is never retried.
type RoundTripMismatchError struct {
	Batch           string
	Codec           string
	Index           int
	OriginalLen     int
	DecompressedLen int
}

func (e *RoundTripMismatchError) Error() string {
	return fmt.Sprintf("round-trip mismatch in %s (%s) at payload %d: original %d bytes, decompressed %d bytes",
		e.Batch, e.Codec, e.Index, e.OriginalLen, e.DecompressedLen)
}

// State is the lifecycle position of one batch.
type State int

const (
	Discovered State = iota
	CodecResolved
	Warming
	Measuring
	Verified
	Reported
	Skipped
	Failed
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case CodecResolved:
		return "codec-resolved"
	case Warming:
		return "warming"
	case Measuring:
		return "measuring"
	case Verified:
		return "verified"
	case Reported:
		return "reported"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Diagnostic explains why a batch or one of its codecs produced no row.
type Diagnostic struct {
	Batch string
	// Codec is empty when the whole batch was skipped.
	Codec string
	// Stage is the state the batch was in when the error occurred.
	Stage State
	Err   error
}

func (d Diagnostic) String() string {
	if d.Codec == "" {
		return fmt.Sprintf("%s [%s]: %v", d.Batch, d.Stage, d.Err)
	}

	return fmt.Sprintf("%s/%s [%s]: %v", d.Batch, d.Codec, d.Stage, d.Err)
}
