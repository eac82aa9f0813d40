// Package track holds animation tracks: one byte per axis per frame.
package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAxisOutOfRange is returned when an axis index is not part of the track.
	ErrAxisOutOfRange = errors.New("axis out of range")

	// ErrNegativeOffset is returned when a splice starts before frame 0.
	ErrNegativeOffset = errors.New("frame offset must not be negative")

	// ErrNoAxes is returned when creating a track without any axis.
	ErrNoAxes = errors.New("track needs at least one axis")
)

// Track is one creature's motion for an animation. Frames[i][axis] is the
// position of that axis during frame i.
type Track struct {
	ID          uuid.UUID
	CreatureID  string
	AnimationID string
	Axes        int
	Frames      [][]byte
	UpdatedAt   time.Time
}

// New creates a track of the given length with every axis at 0.
func New(creatureID, animationID string, axes, frames int) (*Track, error) {
	if axes <= 0 {
		return nil, ErrNoAxes
	}
	if frames < 0 {
		frames = 0
	}

	t := &Track{
		ID:          uuid.New(),
		CreatureID:  creatureID,
		AnimationID: animationID,
		Axes:        axes,
		Frames:      make([][]byte, frames),
		UpdatedAt:   time.Now(),
	}
	for i := range t.Frames {
		t.Frames[i] = make([]byte, axes)
	}
	return t, nil
}

// Len returns the number of frames.
func (t *Track) Len() int {
	return len(t.Frames)
}

// ReplaceAxis overwrites one axis channel with data, starting at frame start.
// The covered frames take data's values on that axis; other axes and frames
// are left as they were. Frames needed past the current end are appended with
// every other axis at 0.
func (t *Track) ReplaceAxis(axis, start int, data []byte) error {
	if axis < 0 || axis >= t.Axes {
		return fmt.Errorf("%w: axis %d, track has %d", ErrAxisOutOfRange, axis, t.Axes)
	}
	if start < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeOffset, start)
	}

	for need := start + len(data); len(t.Frames) < need; {
		t.Frames = append(t.Frames, make([]byte, t.Axes))
	}

	for i, v := range data {
		t.Frames[start+i][axis] = v
	}
	t.UpdatedAt = time.Now()
	return nil
}

// Axis returns a copy of one axis channel.
func (t *Track) Axis(axis int) ([]byte, error) {
	if axis < 0 || axis >= t.Axes {
		return nil, fmt.Errorf("%w: axis %d, track has %d", ErrAxisOutOfRange, axis, t.Axes)
	}

	out := make([]byte, len(t.Frames))
	for i, frame := range t.Frames {
		if axis < len(frame) {
			out[i] = frame[axis]
		}
	}
	return out, nil
}
