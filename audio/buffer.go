// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"
)

// Buffer holds a fully decoded track: interleaved float32 samples at a fixed
// sample rate and channel count. A Buffer is treated as immutable once built;
// helpers that change the shape return a new Buffer.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// NewBuffer returns a zeroed buffer of the given shape.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    make([]float32, frames*channels),
	}
}

// Frames is the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration is the measured length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Frame returns the samples of frame i, or nil when out of range.
func (b *Buffer) Frame(i int) []float32 {
	if i < 0 || i >= b.Frames() {
		return nil
	}
	return b.Samples[i*b.Channels : (i+1)*b.Channels]
}

// FrameAt converts a time in seconds to a frame index clamped to [0, Frames()].
func (b *Buffer) FrameAt(seconds float64) int {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	f := int(math.Round(seconds * float64(b.SampleRate)))
	return min(f, b.Frames())
}

// Slice returns the [from, to) window in seconds as a new buffer sharing
// no memory with b. The bounds are clamped to the buffer.
func (b *Buffer) Slice(from, to float64) *Buffer {
	start, end := b.FrameAt(from), b.FrameAt(to)
	if end < start {
		end = start
	}

	out := NewBuffer(b.SampleRate, b.Channels, end-start)
	copy(out.Samples, b.Samples[start*b.Channels:end*b.Channels])

	return out
}

// Source returns a reader over the buffer, starting at frame 0.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

// Mono folds every channel into one by averaging them.
func (b *Buffer) Mono() (*Buffer, error) {
	if b.Channels == 1 {
		return b, nil
	}
	return ReadAll(NewMonoMixer(b.Source()))
}

// Resample converts the buffer to rate using the cubic Resampler.
func (b *Buffer) Resample(rate int) (*Buffer, error) {
	if rate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if rate == b.SampleRate {
		return b, nil
	}
	return ReadAll(NewResampler(b.Source(), rate))
}

// ReadAll drains src into a Buffer and closes it.
func ReadAll(src Source) (*Buffer, error) {
	defer src.Close()

	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	size := src.BufSize()
	if size <= 0 {
		size = 4096
	}
	// Whole frames only; Resampler rejects anything else.
	size -= size % channels
	if size == 0 {
		size = channels
	}

	out := &Buffer{
		SampleRate: rate,
		Channels:   channels,
		Samples:    make([]float32, 0, rate*channels),
	}
	buf := make([]float32, size)
	idle := 0

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out.Samples = append(out.Samples, buf[:n]...)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
		if n > 0 {
			idle = 0
			continue
		}
		// A source that stops making progress without signalling EOF is done.
		if idle++; idle >= maxIdleReads {
			break
		}
	}

	// Drop a trailing partial frame.
	out.Samples = out.Samples[:len(out.Samples)-len(out.Samples)%channels]

	return out, nil
}

const maxIdleReads = 8

type bufferSource struct {
	buf *Buffer
	pos int
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels }
func (s *bufferSource) BufSize() int    { return 4096 * s.buf.Channels }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.buf.Samples) {
		return 0, io.EOF
	}

	n := copy(dst, s.buf.Samples[s.pos:])
	s.pos += n

	if s.pos >= len(s.buf.Samples) {
		return n, io.EOF
	}
	return n, nil
}
