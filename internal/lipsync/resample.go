package lipsync

import (
	"fmt"
	"math"
)

// Result is the output of Resample.
type Result struct {
	// Frames holds one intensity per frame.
	Frames []byte

	// MsPerFrame is the interval the frames were sampled at.
	MsPerFrame int

	// Clamped counts cues whose frame range extended outside the output and
	// was cut to fit.
	Clamped int

	// Empty counts cues that covered no frames at all.
	Empty int
}

// MaxFrames bounds the output of Resample.
const MaxFrames = 1 << 28

// maxMillis is the largest millisecond value converted to an integer. Larger
// times saturate to it.
const maxMillis = 1 << 52

// FrameCount returns the number of frames needed for a sound of the given
// duration: floor(duration * 1000) / msPerFrame, using integer division.
// Durations needing more than MaxFrames frames are rejected.
func FrameCount(duration float64, msPerFrame int) (int, error) {
	if msPerFrame <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidFrameInterval, msPerFrame)
	}
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidDuration, duration)
	}

	ms := math.Floor(duration * 1000)
	if ms > maxMillis || ms/float64(msPerFrame) >= MaxFrames+1 {
		return 0, fmt.Errorf("%w: %v seconds needs more than %d frames", ErrInvalidDuration, duration, MaxFrames)
	}
	return int(int64(ms) / int64(msPerFrame)), nil
}

// Resample converts a sparse list of cues into a dense byte sequence with one
// entry per msPerFrame interval of the sound. Frames not covered by any cue
// are 0.
//
// Cues are applied once each, in list order, without sorting: where two cues
// overlap, the later one in the list wins. Each cue covers
// [floor(start*1000)/msPerFrame, floor(end*1000)/msPerFrame). Ranges running
// past either end of the output are clamped and counted in Result.Clamped.
func Resample(meta SoundMetadata, cues []Cue, msPerFrame int) (Result, error) {
	n, err := FrameCount(meta.Duration, msPerFrame)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Frames:     make([]byte, n),
		MsPerFrame: msPerFrame,
	}

	for _, cue := range cues {
		if math.IsNaN(cue.Start) || math.IsNaN(cue.End) {
			res.Empty++
			continue
		}

		start := toMillis(cue.Start) / int64(msPerFrame)
		end := toMillis(cue.End) / int64(msPerFrame)

		if end <= start {
			res.Empty++
			continue
		}

		clamped := false
		if start < 0 {
			start = 0
			clamped = true
		}
		if end > int64(n) {
			end = int64(n)
			clamped = true
		}
		if clamped {
			res.Clamped++
		}
		if start >= end {
			res.Empty++
			continue
		}

		v := cue.Intensity()
		for i := start; i < end; i++ {
			res.Frames[i] = v
		}
	}

	return res, nil
}

// toMillis truncates seconds to whole milliseconds, rounding toward negative
// infinity. Values beyond ±maxMillis, including infinities, saturate.
func toMillis(seconds float64) int64 {
	ms := math.Floor(seconds * 1000)
	switch {
	case ms > maxMillis:
		return maxMillis
	case ms < -maxMillis:
		return -maxMillis
	}
	return int64(ms)
}
