// SPDX-License-Identifier: EPL-2.0

package waveform

import (
	"math"
	"sync"

	"github.com/ik5/multitrack/audio"
)

// DefaultMinGap is the smallest start/end separation in percentage points.
const DefaultMinGap = 5

// Trim holds start and end handles as percentages of a track's duration.
// The handles never come closer than the minimum gap.
type Trim struct {
	mu     sync.Mutex
	start  float64
	end    float64
	minGap float64
}

// NewTrim returns a trim covering the whole track.
func NewTrim(minGap float64) (*Trim, error) {
	if math.IsNaN(minGap) || minGap < 0 || minGap > 100 {
		return nil, ErrInvalidGap
	}
	return &Trim{start: 0, end: 100, minGap: minGap}, nil
}

func (t *Trim) Start() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start
}

func (t *Trim) End() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.end
}

// SetStart moves the start handle, clamped to [0, end-gap], and returns
// where it landed.
func (t *Trim) SetStart(pct float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if math.IsNaN(pct) {
		return t.start
	}
	t.start = max(0, min(pct, t.end-t.minGap))
	return t.start
}

// SetEnd moves the end handle, clamped to [start+gap, 100], and returns
// where it landed.
func (t *Trim) SetEnd(pct float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if math.IsNaN(pct) {
		return t.end
	}
	t.end = min(100, max(pct, t.start+t.minGap))
	return t.end
}

// Window maps the handles onto a duration in seconds.
func (t *Trim) Window(duration float64) (from, to float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return duration * t.start / 100, duration * t.end / 100
}

// Apply returns the trimmed part of buf as a new buffer.
func (t *Trim) Apply(buf *audio.Buffer) *audio.Buffer {
	from, to := t.Window(buf.Duration())
	return buf.Slice(from, to)
}
