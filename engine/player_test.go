// SPDX-License-Identifier: EPL-2.0

package engine_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ik5/multitrack/engine"
	"github.com/ik5/multitrack/internal/audiotest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestBufferPlayer(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	buf := audiotest.Buffer(1000, 1, 2000, func(int, int) float32 { return 0 })
	p := engine.NewBufferPlayer(buf, engine.WithClock(clock.Now))

	if got := p.Duration(); got != 2 {
		t.Fatalf("Duration() = %v, want 2", got)
	}

	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.Advance(500 * time.Millisecond)
	if got := p.Position(); got != 0.5 {
		t.Errorf("Position() = %v, want 0.5", got)
	}

	p.Pause()
	clock.Advance(time.Second)
	if got := p.Position(); got != 0.5 {
		t.Errorf("Position() paused = %v, want 0.5", got)
	}

	p.Seek(1.75)
	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.Advance(time.Second)
	if got := p.Position(); got != 2 {
		t.Errorf("Position() past end = %v, want 2", got)
	}
	if !p.Ended() || p.Playing() {
		t.Errorf("Ended() = %v, Playing() = %v, want ended and stopped", p.Ended(), p.Playing())
	}

	// An ended player stays at its end until seeked back.
	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.Advance(time.Second)
	if got := p.Position(); got != 2 {
		t.Errorf("Position() after Play() at end = %v, want 2", got)
	}
	if !p.Ended() || p.Playing() {
		t.Errorf("Ended() = %v, Playing() = %v, want ended and stopped", p.Ended(), p.Playing())
	}

	p.Seek(0)
	if p.Ended() {
		t.Error("Ended() after Seek(0) = true, want false")
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.Advance(250 * time.Millisecond)
	if got := p.Position(); got != 0.25 {
		t.Errorf("Position() after rewind = %v, want 0.25", got)
	}
}

func TestBufferPlayer_SeekPastEndStaysEnded(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := engine.NewBufferPlayer(
		audiotest.Buffer(100, 1, 400, func(int, int) float32 { return 0 }),
		engine.WithClock(clock.Now))

	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	p.Seek(6)
	if !p.Ended() || p.Playing() {
		t.Errorf("after Seek(6): Ended() = %v, Playing() = %v, want ended and stopped", p.Ended(), p.Playing())
	}
	if got := p.Position(); got != 4 {
		t.Errorf("Position() = %v, want 4", got)
	}
}

func TestBufferPlayer_SeekClamps(t *testing.T) {
	t.Parallel()

	p := engine.NewBufferPlayer(audiotest.Buffer(100, 2, 100, func(int, int) float32 { return 0 }))

	tests := []struct {
		seek, want float64
	}{
		{-1, 0},
		{math.NaN(), 0},
		{0.4, 0.4},
		{9, 1},
	}
	for _, tt := range tests {
		p.Seek(tt.seek)
		if got := p.Position(); got != tt.want {
			t.Errorf("Seek(%v) position = %v, want %v", tt.seek, got, tt.want)
		}
	}
}

func TestBufferPlayer_Gains(t *testing.T) {
	t.Parallel()

	p := engine.NewBufferPlayer(audiotest.Buffer(100, 1, 10, func(int, int) float32 { return 0 }))
	if l, r := p.Gains(); l != 1 || r != 1 {
		t.Errorf("default Gains() = (%v, %v), want unity", l, r)
	}

	p.SetGains(0.25, 0.75)
	if l, r := p.Gains(); l != 0.25 || r != 0.75 {
		t.Errorf("Gains() = (%v, %v), want (0.25, 0.75)", l, r)
	}
}
