// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"
	"math"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/multitrack/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 * s.channels }

// Duration is NaN when oggvorbis could not seek to the last page.
func (s *source) Duration() float64 {
	n := s.dec.Length()
	if n <= 0 || s.sampleRate <= 0 {
		return math.NaN()
	}
	return float64(n) / float64(s.sampleRate)
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) < s.channels {
		return 0, nil
	}

	// oggvorbis fills whole frames and returns values, not frames.
	n, err := s.dec.Read(dst[:len(dst)-len(dst)%s.channels])
	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis decode: %w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
