// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"
	"math"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/utils"
)

// go-mp3 always emits 16-bit little-endian stereo.
const (
	outChannels    = 2
	bytesPerSample = 2
	bytesPerFrame  = outChannels * bytesPerSample
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return outChannels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / bytesPerSample }

// Duration is NaN when the input could not be seeked to measure it.
func (s *source) Duration() float64 {
	n := s.dec.Length()
	if n < 0 || s.sampleRate <= 0 {
		return math.NaN()
	}
	return float64(n/bytesPerFrame) / float64(s.sampleRate)
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	bytesNeeded := len(dst) * bytesPerSample
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		return 0, err
	}

	samples := n / bytesPerSample
	for i := range samples {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = utils.Int16ToFloat32(v)
	}

	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
