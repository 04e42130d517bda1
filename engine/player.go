// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"math"
	"sync"
	"time"

	"github.com/ik5/multitrack/audio"
)

// Player is the playback element a TrackNode drives. Positions and
// durations are in seconds.
type Player interface {
	Play() error
	Pause()
	Seek(seconds float64)
	Position() float64
	Duration() float64
	Playing() bool
	// Ended reports that playback ran to the end of the media.
	Ended() bool
	// SetGains receives the node's post-gain, post-pan channel gains.
	SetGains(left, right float64)
}

// BufferPlayer plays a decoded buffer against a clock. Its position advances
// with wall time while playing and stops at the end of the buffer. A player
// positioned at its end stays ended until it is seeked back.
type BufferPlayer struct {
	buf      *audio.Buffer
	duration float64
	now      func() time.Time

	mu      sync.Mutex
	playing bool
	ended   bool
	offset  float64 // position when the clock was last anchored
	anchor  time.Time

	left  *atomicFloat64
	right *atomicFloat64
}

type PlayerOption func(*BufferPlayer)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) PlayerOption {
	return func(p *BufferPlayer) {
		if now != nil {
			p.now = now
		}
	}
}

func NewBufferPlayer(buf *audio.Buffer, opts ...PlayerOption) *BufferPlayer {
	p := &BufferPlayer{
		buf:      buf,
		duration: buf.Duration(),
		now:      time.Now,
		left:     newAtomicFloat64(1),
		right:    newAtomicFloat64(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *BufferPlayer) Buffer() *audio.Buffer { return p.buf }
func (p *BufferPlayer) Duration() float64     { return p.duration }

func (p *BufferPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return nil
	}
	if p.offset >= p.duration {
		p.ended = true
		return nil
	}
	p.ended = false
	p.playing = true
	p.anchor = p.now()

	return nil
}

func (p *BufferPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	p.offset = p.positionLocked()
	p.playing = false
}

func (p *BufferPlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	p.offset = min(seconds, p.duration)
	p.anchor = p.now()
	p.ended = p.offset >= p.duration
	if p.ended {
		p.playing = false
	}
}

func (p *BufferPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.positionLocked()
}

func (p *BufferPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positionLocked()
	return p.playing
}

func (p *BufferPlayer) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positionLocked()
	return p.ended
}

func (p *BufferPlayer) SetGains(left, right float64) {
	p.left.Store(left)
	p.right.Store(right)
}

// Gains returns the last channel gains set on the player.
func (p *BufferPlayer) Gains() (left, right float64) {
	return p.left.Load(), p.right.Load()
}

// positionLocked advances the clock and latches the end of the media.
func (p *BufferPlayer) positionLocked() float64 {
	if !p.playing {
		return p.offset
	}

	pos := p.offset + p.now().Sub(p.anchor).Seconds()
	if pos >= p.duration {
		p.playing = false
		p.ended = true
		p.offset = p.duration
		return p.duration
	}
	return pos
}
