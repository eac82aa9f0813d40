// Package joystick streams joystick samples published over MQTT and limits
// how often the console redraws them.
package joystick

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Sample is one reading of the joystick: every axis position and a bitmask of
// pressed buttons.
type Sample struct {
	Axes    []uint8   `json:"axes"`
	Buttons uint32    `json:"buttons"`
	At      time.Time `json:"at"`
}

// DecodeSample parses a JSON sample. A missing timestamp is set to now.
func DecodeSample(data []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return Sample{}, fmt.Errorf("decode joystick sample: %w", err)
	}
	if s.At.IsZero() {
		s.At = time.Now()
	}
	return s, nil
}

// Pressed reports whether button n is held.
func (s Sample) Pressed(n int) bool {
	if n < 0 || n >= 32 {
		return false
	}
	return s.Buttons&(1<<uint(n)) != 0
}

// SameState reports whether two samples have identical axes and buttons.
func (s Sample) SameState(o Sample) bool {
	return s.Buttons == o.Buttons && bytes.Equal(s.Axes, o.Axes)
}

// String renders the sample for a terminal line.
func (s Sample) String() string {
	var b strings.Builder
	b.WriteString("axes=[")
	for i, a := range s.Axes {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%3d", a)
	}
	fmt.Fprintf(&b, "] buttons=%032b", s.Buttons)
	return b.String()
}

// Throttle decides which samples are worth redrawing. Every sample is still
// delivered to the consumer; the throttle only limits output.
type Throttle struct {
	limiter *rate.Limiter
	last    Sample
	pending bool
}

// NewThrottle allows at most hz redraws per second.
func NewThrottle(hz float64) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(hz), 1)}
}

// Offer records s and reports whether it should be shown now. Samples that
// do not change the state are never shown twice in a row.
func (t *Throttle) Offer(s Sample) bool {
	if t.pending || !s.SameState(t.last) {
		t.pending = true
	}
	t.last = s

	if !t.pending || !t.limiter.Allow() {
		return false
	}
	t.pending = false
	return true
}
