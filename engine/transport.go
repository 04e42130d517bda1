// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is one display frame at 60 Hz.
const DefaultPollInterval = 16 * time.Millisecond

// State is the transport state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Update is a transport time sample delivered to subscribers.
type Update struct {
	State       State
	Time        float64
	Duration    float64
	ReferenceID string
}

// Transport drives every loaded track's player together. Each player runs
// on its own, the shared time is read from a reference track: the first
// loaded track in order that has not ended.
type Transport struct {
	ens      *ensemble
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	state   State
	current float64
	refID   string
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool

	subMu   sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

func newTransport(ens *ensemble, interval time.Duration, log *zap.Logger) *Transport {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Transport{
		ens:      ens,
		interval: interval,
		log:      log,
		subs:     make(map[int]chan Update),
	}
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// CurrentTime is the last polled or seeked position in seconds.
func (t *Transport) CurrentTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Duration is the longest loaded track.
func (t *Transport) Duration() float64 {
	return t.ens.duration()
}

// ReferenceID is the id of the track the time was last read from.
func (t *Transport) ReferenceID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refID
}

// Snapshot returns the current state as an Update.
func (t *Transport) Snapshot() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateLocked()
}

// Play starts every loaded track from the current time. Playing at the end
// restarts from zero. It is a no-op while already playing.
func (t *Transport) Play() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrSessionClosed
	}
	if t.state == Playing {
		t.mu.Unlock()
		return nil
	}

	nodes := t.ens.loaded()
	if len(nodes) == 0 {
		t.mu.Unlock()
		return ErrNoLoadedTracks
	}

	if t.current >= t.ens.duration() {
		t.current = 0
	}
	for _, n := range nodes {
		n.Player().Seek(t.current)
	}
	for _, n := range nodes {
		if err := n.Player().Play(); err != nil {
			t.log.Warn("player failed to start",
				zap.String("track", n.ID()), zap.Error(err))
		}
	}

	t.state = Playing
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.poll(ctx, t.done)

	u := t.updateLocked()
	t.mu.Unlock()

	t.publish(u)
	return nil
}

// Pause halts every player and keeps the current time.
func (t *Transport) Pause() {
	t.mu.Lock()
	if t.state != Playing {
		t.mu.Unlock()
		return
	}

	nodes := t.ens.loaded()
	if ref := reference(nodes); ref != nil {
		t.current = min(ref.Player().Position(), t.ens.duration())
	}
	for _, n := range nodes {
		n.Player().Pause()
	}
	t.state = Paused
	done := t.stopPollLocked()
	u := t.updateLocked()
	t.mu.Unlock()

	wait(done)
	t.publish(u)
}

// Stop halts every player and rewinds to zero.
func (t *Transport) Stop() {
	t.mu.Lock()
	done := t.stopLocked()
	u := t.updateLocked()
	t.mu.Unlock()

	wait(done)
	t.publish(u)
}

// Seek clamps seconds to [0, Duration], moves every loaded track there and
// returns the clamped time. Playing tracks keep playing from the new time.
func (t *Transport) Seek(seconds float64) float64 {
	t.mu.Lock()
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	seconds = min(seconds, t.ens.duration())

	t.current = seconds
	for _, n := range t.ens.loaded() {
		p := n.Player()
		p.Seek(seconds)
		if t.state == Playing && !p.Playing() {
			if err := p.Play(); err != nil {
				t.log.Warn("player failed to resume after seek",
					zap.String("track", n.ID()), zap.Error(err))
			}
		}
	}
	u := t.updateLocked()
	t.mu.Unlock()

	t.publish(u)
	return seconds
}

// Subscribe returns a channel of time updates holding up to size pending
// values. Updates are dropped for a subscriber that falls behind. The
// returned func unsubscribes and closes the channel.
func (t *Transport) Subscribe(size int) (<-chan Update, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Update, size)

	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subMu.Lock()
			defer t.subMu.Unlock()

			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
}

// Close stops playback and closes every subscription.
func (t *Transport) Close() {
	t.mu.Lock()
	t.closed = true
	done := t.stopLocked()
	t.mu.Unlock()

	wait(done)

	t.subMu.Lock()
	defer t.subMu.Unlock()

	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

// attach brings a track that finished loading in line with the transport.
func (t *Transport) attach(n *TrackNode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := n.Player()
	if p == nil {
		return
	}

	pos := t.current
	if t.state == Playing {
		// Read the live time, the polled one can be an interval old.
		for _, other := range t.ens.loaded() {
			if other != n && !other.Player().Ended() {
				pos = other.Player().Position()
				break
			}
		}
	}
	p.Seek(pos)
	if t.state == Playing {
		if err := p.Play(); err != nil {
			t.log.Warn("late track failed to start",
				zap.String("track", n.ID()), zap.Error(err))
		}
	}
}

func (t *Transport) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Transport) tick() {
	t.mu.Lock()
	if t.state != Playing {
		t.mu.Unlock()
		return
	}

	ref := reference(t.ens.loaded())
	if ref == nil {
		t.log.Debug("playback reached the end")
		t.stopLocked()
	} else {
		t.refID = ref.ID()
		t.current = min(ref.Player().Position(), t.ens.duration())
	}
	u := t.updateLocked()
	t.mu.Unlock()

	t.publish(u)
}

// stopLocked rewinds every player and returns the poll loop's done channel.
// The caller waits on it after releasing the lock.
func (t *Transport) stopLocked() chan struct{} {
	for _, n := range t.ens.loaded() {
		p := n.Player()
		p.Pause()
		p.Seek(0)
	}
	t.state = Stopped
	t.current = 0
	return t.stopPollLocked()
}

func (t *Transport) stopPollLocked() chan struct{} {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	t.cancel = nil
	done := t.done
	t.done = nil
	return done
}

func (t *Transport) updateLocked() Update {
	return Update{
		State:       t.state,
		Time:        t.current,
		Duration:    t.ens.duration(),
		ReferenceID: t.refID,
	}
}

func (t *Transport) publish(u Update) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for _, ch := range t.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// reference is the first track whose player has not ended.
func reference(nodes []*TrackNode) *TrackNode {
	for _, n := range nodes {
		if !n.Player().Ended() {
			return n
		}
	}
	return nil
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}
