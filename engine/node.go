// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/loader"
)

// Status is the load state of a track.
type Status int

const (
	StatusUnloaded Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// TrackNode is the live state of one track: its mix settings, its decoded
// audio and the player it drives. All methods are safe for concurrent use.
type TrackNode struct {
	ensemble *ensemble

	mu     sync.Mutex
	record TrackRecord
	status Status
	err    error
	volume float64
	pan    float64
	muted  bool
	soloed bool

	buffer   *audio.Buffer
	duration loader.Duration
	player   Player
}

func newTrackNode(rec TrackRecord, ens *ensemble) *TrackNode {
	return &TrackNode{
		ensemble: ens,
		record:   rec,
		volume:   audio.ClampVolume(rec.Volume),
		pan:      audio.ClampPan(rec.Pan),
		muted:    rec.Muted,
	}
}

func (n *TrackNode) ID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.record.ID
}

// Record returns the track record with the node's current settings applied.
func (n *TrackNode) Record() TrackRecord {
	n.mu.Lock()
	defer n.mu.Unlock()

	rec := n.record
	rec.Volume = n.volume
	rec.Pan = n.pan
	rec.Muted = n.muted
	if n.duration.Seconds > 0 {
		rec.Duration = n.duration.Seconds
	}
	return rec
}

func (n *TrackNode) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// Err is the load failure of a track in StatusError.
func (n *TrackNode) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *TrackNode) Buffer() *audio.Buffer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.buffer
}

func (n *TrackNode) Duration() loader.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.duration
}

func (n *TrackNode) Player() Player {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.player
}

func (n *TrackNode) Volume() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.volume
}

func (n *TrackNode) Pan() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pan
}

func (n *TrackNode) Muted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.muted
}

func (n *TrackNode) Soloed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.soloed
}

// SetVolume clamps v to [0, 1], stores it and returns the stored value.
// A muted track keeps its volume and stays silent.
func (n *TrackNode) SetVolume(v float64) float64 {
	n.mu.Lock()
	n.volume = audio.ClampVolume(v)
	v = n.volume
	n.mu.Unlock()

	n.applyGains()
	return v
}

// SetPan clamps p to [-1, 1], stores it and returns the stored value.
func (n *TrackNode) SetPan(p float64) float64 {
	n.mu.Lock()
	n.pan = audio.ClampPan(p)
	p = n.pan
	n.mu.Unlock()

	n.applyGains()
	return p
}

// ToggleMute flips the mute flag and returns the new value.
func (n *TrackNode) ToggleMute() bool {
	n.mu.Lock()
	n.muted = !n.muted
	muted := n.muted
	n.mu.Unlock()

	n.applyGains()
	return muted
}

// SetMuted sets the mute flag.
func (n *TrackNode) SetMuted(muted bool) {
	n.mu.Lock()
	n.muted = muted
	n.mu.Unlock()

	n.applyGains()
}

// ToggleSolo flips the solo flag and returns the new value. Every track's
// gain is recomputed since solo is an ensemble property.
func (n *TrackNode) ToggleSolo() bool {
	n.mu.Lock()
	n.soloed = !n.soloed
	soloed := n.soloed
	n.mu.Unlock()

	if n.ensemble != nil {
		n.ensemble.recount()
	} else {
		n.applyGains()
	}
	return soloed
}

// EffectiveGain is the gain the track plays at. With any track soloed only
// soloed tracks are heard, at their stored volume. Otherwise a muted track
// is silent.
func (n *TrackNode) EffectiveGain() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.effectiveGainLocked()
}

func (n *TrackNode) effectiveGainLocked() float64 {
	if n.status == StatusError {
		return 0
	}
	if n.ensemble != nil && n.ensemble.soloActive() {
		if n.soloed {
			return n.volume
		}
		return 0
	}
	if n.muted {
		return 0
	}
	return n.volume
}

// Silent reports whether the track contributes nothing to the mix.
func (n *TrackNode) Silent() bool {
	return n.EffectiveGain() == 0
}

// ChannelGains splits the effective gain with the linear pan law.
func (n *TrackNode) ChannelGains() (left, right float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.channelGainsLocked()
}

func (n *TrackNode) channelGainsLocked() (left, right float64) {
	g := n.effectiveGainLocked()
	l, r := audio.LinearPan(n.pan)
	return g * l, g * r
}

// Bind connects a player to the node. A node holds at most one player.
func (n *TrackNode) Bind(p Player) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.player != nil {
		return ErrAlreadyBound
	}
	n.player = p
	p.SetGains(n.channelGainsLocked())
	return nil
}

// Unbind pauses and detaches the player, returning it. It is a no-op on an
// unbound node.
func (n *TrackNode) Unbind() Player {
	n.mu.Lock()
	p := n.player
	n.player = nil
	n.mu.Unlock()

	if p != nil {
		p.Pause()
	}
	return p
}

func (n *TrackNode) applyGains() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.player != nil {
		n.player.SetGains(n.channelGainsLocked())
	}
}

func (n *TrackNode) setLoading() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.status = StatusLoading
	n.err = nil
}

func (n *TrackNode) setLoaded(res *loader.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.status = StatusLoaded
	n.err = nil
	n.buffer = res.Buffer
	n.duration = res.Duration
}

func (n *TrackNode) setFailed(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.status = StatusError
	n.err = err
	n.buffer = nil
}

func (n *TrackNode) setRecord(rec TrackRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.record.Title = rec.Title
	n.record.AudioURL = rec.AudioURL
	n.record.Duration = rec.Duration
}

func (n *TrackNode) trackNumber() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.record.TrackNumber
}

// length is the resolved duration, or the buffer's when none resolved.
func (n *TrackNode) length() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.duration.Seconds > 0 {
		return n.duration.Seconds
	}
	if n.buffer != nil {
		return n.buffer.Duration()
	}
	return 0
}
