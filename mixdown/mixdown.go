// SPDX-License-Identifier: EPL-2.0

package mixdown

import (
	"bytes"
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/formats/wav"
	"github.com/ik5/multitrack/loader"
	"github.com/ik5/multitrack/utils"
)

// Channels is the channel count of every mix.
const Channels = 2

// Input is one track as it enters the mix.
type Input struct {
	ID     string
	URL    string
	Volume float64
	Pan    float64
	Muted  bool
	// Buffer is reused when set, otherwise URL is loaded.
	Buffer *audio.Buffer
	// Duration is a known length in seconds. It sizes an all-muted mix
	// without decoding.
	Duration float64
}

// Loader loads a track that has no decoded buffer yet.
type Loader interface {
	Load(ctx context.Context, req loader.Request) (*loader.Result, error)
}

// Mix is a rendered stereo mix of interleaved 16-bit samples.
type Mix struct {
	SampleRate int
	Samples    []int16
}

func (m *Mix) Frames() int {
	return len(m.Samples) / Channels
}

func (m *Mix) Duration() float64 {
	if m.SampleRate <= 0 {
		return 0
	}
	return float64(m.Frames()) / float64(m.SampleRate)
}

// WAV encodes the mix as a 16-bit stereo RIFF/WAVE file.
func (m *Mix) WAV() ([]byte, error) {
	var out bytes.Buffer
	out.Grow(44 + len(m.Samples)*2)

	if err := wav.WriteWAV16(&out, m.SampleRate, Channels, m.Samples); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Renderer mixes tracks offline. It keeps no state between renders and is
// safe for concurrent use.
type Renderer struct {
	loader     Loader
	sampleRate int
	log        *zap.Logger
}

type Option func(*Renderer)

func WithSampleRate(rate int) Option {
	return func(r *Renderer) {
		if rate > 0 {
			r.sampleRate = rate
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRenderer creates a renderer. l may be nil when every input carries a
// decoded buffer.
func NewRenderer(l Loader, opts ...Option) *Renderer {
	r := &Renderer{
		loader:     l,
		sampleRate: loader.DefaultSampleRate,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) SampleRate() int { return r.sampleRate }

type track struct {
	buf         *audio.Buffer
	left, right float64
}

// Render mixes the un-muted inputs into one stereo buffer as long as the
// longest of them. With every input muted the result is silence as long as
// the longest muted input, and with no inputs it is empty.
func (r *Renderer) Render(ctx context.Context, inputs []Input) (*Mix, error) {
	var (
		tracks []track
		frames int
	)
	for _, in := range inputs {
		if in.Muted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: "render", Err: err}
		}

		buf, err := r.prepare(ctx, in)
		if err != nil {
			return nil, err
		}

		left, right := audio.LinearPan(in.Pan)
		vol := audio.ClampVolume(in.Volume)
		tracks = append(tracks, track{buf: buf, left: vol * left, right: vol * right})
		frames = max(frames, buf.Frames())
	}

	if len(tracks) == 0 {
		n, err := r.silentLength(ctx, inputs)
		if err != nil {
			return nil, err
		}
		r.log.Debug("all inputs muted, rendering silence", zap.Int("frames", n))
		return &Mix{SampleRate: r.sampleRate, Samples: make([]int16, n*Channels)}, nil
	}

	mix := &Mix{
		SampleRate: r.sampleRate,
		Samples:    make([]int16, frames*Channels),
	}
	for i := range frames {
		var left, right float64
		for _, t := range tracks {
			if i >= t.buf.Frames() {
				continue
			}
			l, rr := frameLR(t.buf, i)
			left += l * t.left
			right += rr * t.right
		}
		mix.Samples[i*Channels] = utils.Float64ToInt16(left)
		mix.Samples[i*Channels+1] = utils.Float64ToInt16(right)
	}

	r.log.Debug("mix rendered",
		zap.Int("inputs", len(inputs)),
		zap.Int("mixed", len(tracks)),
		zap.Int("frames", frames))

	return mix, nil
}

// RenderWAV renders and encodes in one step.
func (r *Renderer) RenderWAV(ctx context.Context, inputs []Input) ([]byte, error) {
	mix, err := r.Render(ctx, inputs)
	if err != nil {
		return nil, err
	}

	data, err := mix.WAV()
	if err != nil {
		return nil, &Error{Op: "encode", Err: err}
	}
	return data, nil
}

// prepare returns the input's audio at the render rate with one or two
// channels.
func (r *Renderer) prepare(ctx context.Context, in Input) (*audio.Buffer, error) {
	buf := in.Buffer
	if buf == nil {
		res, err := r.load(ctx, in)
		if err != nil {
			return nil, err
		}
		buf = res.Buffer
	}

	if buf.Channels > 2 {
		mono, err := buf.Mono()
		if err != nil {
			return nil, &Error{Op: "downmix", TrackID: in.ID, Err: err}
		}
		buf = mono
	}

	out, err := buf.Resample(r.sampleRate)
	if err != nil {
		return nil, &Error{Op: "resample", TrackID: in.ID, Err: err}
	}
	return out, nil
}

func (r *Renderer) load(ctx context.Context, in Input) (*loader.Result, error) {
	if in.URL == "" {
		return nil, &Error{Op: "load", TrackID: in.ID, Err: ErrNoAudio}
	}
	if r.loader == nil {
		return nil, &Error{Op: "load", TrackID: in.ID, Err: ErrNoLoader}
	}

	res, err := r.loader.Load(ctx, loader.Request{URL: in.URL, PersistedDuration: in.Duration})
	if err != nil {
		return nil, &Error{Op: "load", TrackID: in.ID, Err: err}
	}
	return res, nil
}

// silentLength is the frame count of the longest muted input.
func (r *Renderer) silentLength(ctx context.Context, inputs []Input) (int, error) {
	var longest float64
	for _, in := range inputs {
		var d float64
		switch {
		case in.Buffer != nil:
			d = in.Buffer.Duration()
		case in.Duration > 0 && !math.IsInf(in.Duration, 0):
			d = in.Duration
		default:
			res, err := r.load(ctx, in)
			if err != nil {
				return 0, err
			}
			d = res.Buffer.Duration()
		}
		longest = max(longest, d)
	}
	return int(math.Round(longest * float64(r.sampleRate))), nil
}

// frameLR reads frame i of a mono or stereo buffer as a left/right pair.
func frameLR(buf *audio.Buffer, i int) (left, right float64) {
	if buf.Channels == 1 {
		v := float64(buf.Samples[i])
		return v, v
	}
	base := i * buf.Channels
	return float64(buf.Samples[base]), float64(buf.Samples[base+1])
}
