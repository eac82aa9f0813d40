package lipsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	errCueOrder     = errors.New("start must be before end")
	errCueNegative  = errors.New("times must not be negative")
	errCueNotFinite = errors.New("times must be finite")
)

// Decode reads a Rhubarb Lip Sync JSON document and validates it.
func Decode(r io.Reader) (*SoundData, error) {
	var data SoundData
	dec := json.NewDecoder(r)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCueFile, err)
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// LoadFile decodes the cue file at path.
func LoadFile(path string) (*SoundData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open cue file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	data, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Validate checks the sound duration and every cue.
func (d *SoundData) Validate() error {
	dur := d.Metadata.Duration
	if dur <= 0 || math.IsNaN(dur) || math.IsInf(dur, 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidCueFile, dur)
	}

	for i, cue := range d.MouthCues {
		var cause error
		switch {
		case !finite(cue.Start) || !finite(cue.End):
			cause = errCueNotFinite
		case cue.Start < 0 || cue.End < 0:
			cause = errCueNegative
		case cue.Start >= cue.End:
			cause = errCueOrder
		}
		if cause != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCueFile, &CueError{Index: i, Cue: cue, Cause: cause})
		}
	}
	return nil
}

// Resample resamples the decoded cues at msPerFrame.
func (d *SoundData) Resample(msPerFrame int) (Result, error) {
	return Resample(d.Metadata, d.MouthCues, msPerFrame)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
