// SPDX-License-Identifier: EPL-2.0

package waveform

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/loader"
)

// DefaultBuckets fits a track lane at common widths.
const DefaultBuckets = 200

// Extract reduces buf to buckets envelope values in [0, 1].
//
// Each bucket is the mean absolute sample over its frame range across all
// channels, divided by the loudest bucket. Silence and a nil or empty buffer
// give all zeros. Buckets beyond the last frame stay zero.
func Extract(buf *audio.Buffer, buckets int) ([]float32, error) {
	if buckets <= 0 {
		return nil, ErrInvalidBuckets
	}

	env := make([]float32, buckets)
	if buf == nil || buf.Frames() == 0 {
		return env, nil
	}

	frames := buf.Frames()
	var peak float64
	for b := range buckets {
		from := b * frames / buckets
		to := (b + 1) * frames / buckets
		if to <= from {
			continue
		}

		var sum float64
		for _, s := range buf.Samples[from*buf.Channels : to*buf.Channels] {
			sum += math.Abs(float64(s))
		}
		mean := sum / float64((to-from)*buf.Channels)
		env[b] = float32(mean)
		peak = max(peak, mean)
	}

	if peak == 0 {
		return env, nil
	}
	for i, v := range env {
		env[i] = float32(float64(v) / peak)
	}
	return env, nil
}

// Loader decodes the audio behind a url.
type Loader interface {
	Load(ctx context.Context, req loader.Request) (*loader.Result, error)
}

// Cache keeps computed envelopes by url and bucket count.
type Cache interface {
	Get(ctx context.Context, url string, buckets int) ([]float32, bool, error)
	Set(ctx context.Context, url string, buckets int, env []float32) error
}

// Extractor computes envelopes for remote tracks.
type Extractor struct {
	loader  Loader
	cache   Cache
	buckets int
	log     *zap.Logger
}

type Option func(*Extractor)

// WithCache stores envelopes in c. Cache failures are logged and never fail
// an extraction.
func WithCache(c Cache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

func WithBuckets(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.buckets = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

func NewExtractor(l Loader, opts ...Option) *Extractor {
	e := &Extractor{
		loader:  l,
		buckets: DefaultBuckets,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Buckets() int { return e.buckets }

// FromURL loads url and extracts its envelope.
func (e *Extractor) FromURL(ctx context.Context, url string) ([]float32, error) {
	if e.cache != nil {
		env, ok, err := e.cache.Get(ctx, url, e.buckets)
		switch {
		case err != nil:
			e.log.Warn("waveform cache read failed", zap.String("url", url), zap.Error(err))
		case ok && len(env) == e.buckets:
			return env, nil
		}
	}

	res, err := e.loader.Load(ctx, loader.Request{URL: url})
	if err != nil {
		return nil, fmt.Errorf("loading waveform source: %w", err)
	}

	env, err := Extract(res.Buffer, e.buckets)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, url, e.buckets, env); err != nil {
			e.log.Warn("waveform cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return env, nil
}
