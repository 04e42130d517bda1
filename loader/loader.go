// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ik5/multitrack/audio"
)

const (
	DefaultSampleRate = 44100
	// DefaultAssumedBitrate backs the size-based duration estimate.
	DefaultAssumedBitrate = 128000
)

// Request names one track to load.
type Request struct {
	URL string
	// PersistedDuration is the stored duration in seconds, 0 when unknown.
	PersistedDuration float64
}

// Result is a decoded track at the loader's sample rate.
type Result struct {
	Buffer   *audio.Buffer
	Duration Duration
	Format   string
	Size     int
}

// Loader fetches, decodes and resamples tracks, and resolves their duration.
// It is safe for concurrent use.
type Loader struct {
	registry   *audio.Registry
	fetcher    Fetcher
	sampleRate int
	bitrate    int
	log        *zap.Logger
}

type Option func(*Loader)

// WithSampleRate sets the rate every decoded buffer is converted to.
func WithSampleRate(rate int) Option {
	return func(l *Loader) {
		if rate > 0 {
			l.sampleRate = rate
		}
	}
}

// WithAssumedBitrate sets the bits per second used for size-based estimates.
func WithAssumedBitrate(bps int) Option {
	return func(l *Loader) {
		if bps > 0 {
			l.bitrate = bps
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

func New(registry *audio.Registry, fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		registry:   registry,
		fetcher:    fetcher,
		sampleRate: DefaultSampleRate,
		bitrate:    DefaultAssumedBitrate,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SampleRate is the rate of every buffer the loader returns.
func (l *Loader) SampleRate() int { return l.sampleRate }

// Load fetches and decodes one track.
//
// Fetch failures are *NetworkError, anything after that is *DecodeError.
// A container that does not declare a usable duration never fails the load:
// the duration falls back to req.PersistedDuration, then to a size estimate.
func (l *Loader) Load(ctx context.Context, req Request) (*Result, error) {
	data, err := l.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, &NetworkError{URL: req.URL, Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{URL: req.URL, Err: ErrEmptyPayload}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, format, err := l.Decode(req.URL, data)
	if err != nil {
		return nil, &DecodeError{URL: req.URL, Format: format, Err: err}
	}

	// Sources that declare nothing are measured from their decoded frames.
	reporter, declares := src.(audio.DurationReporter)
	declared := 0.0
	if declares {
		declared = reporter.Duration()
	}

	buf, err := audio.ReadAll(src)
	if err != nil {
		return nil, &DecodeError{URL: req.URL, Format: format, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	native := buf.Duration()
	if declares {
		native = declared
	}

	buf, err = buf.Resample(l.sampleRate)
	if err != nil {
		return nil, &DecodeError{URL: req.URL, Format: format, Err: fmt.Errorf("resampling: %w", err)}
	}

	d := ResolveDuration(
		Native(native),
		Persisted(req.PersistedDuration),
		Estimated(len(data), l.bitrate),
	)

	l.log.Debug("track decoded",
		zap.String("url", req.URL),
		zap.String("format", format),
		zap.Int("bytes", len(data)),
		zap.Int("frames", buf.Frames()),
		zap.Float64("duration", d.Seconds),
		zap.Stringer("duration_source", d.Source),
	)

	return &Result{Buffer: buf, Duration: d, Format: format, Size: len(data)}, nil
}

// Decode picks a decoder by content, then by the URL extension.
func (l *Loader) Decode(ref string, data []byte) (audio.Source, string, error) {
	format := Sniff(data)
	if format == "" {
		format = FormatFromURL(ref)
	}
	if format == "" {
		return nil, "", ErrUnsupportedFormat
	}

	dec, ok := l.registry.Get(format)
	if !ok {
		return nil, format, fmt.Errorf("%w: no decoder for %s", ErrUnsupportedFormat, format)
	}

	src, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, err
	}

	return src, format, nil
}
