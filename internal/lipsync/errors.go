package lipsync

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFrameInterval is returned when the milliseconds-per-frame
	// interval is zero or negative.
	ErrInvalidFrameInterval = errors.New("frame interval must be a positive number of milliseconds")

	// ErrInvalidDuration is returned for a negative or non-finite sound duration.
	ErrInvalidDuration = errors.New("sound duration must be a finite, non-negative number of seconds")

	// ErrInvalidCueFile is returned when lip-sync metadata cannot be decoded.
	ErrInvalidCueFile = errors.New("invalid lip-sync cue file")
)

// CueError reports a malformed cue in a decoded cue file.
type CueError struct {
	Index int
	Cue   Cue
	Cause error
}

// Error implements the error interface
func (e *CueError) Error() string {
	return fmt.Sprintf("cue %d (%.3f-%.3f %q): %v", e.Index, e.Cue.Start, e.Cue.End, e.Cue.Value, e.Cause)
}

// Unwrap returns the underlying error
func (e *CueError) Unwrap() error {
	return e.Cause
}
