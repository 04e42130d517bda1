// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/multitrack/audio"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE

	// Streaming writers leave the data size at one of these until they finish.
	streamedSizeZero = 0
	streamedSizeMax  = 0xFFFFFFFF
)

// wavReader is the part of go-audio's wav.Decoder the source needs; tests fake it.
type wavReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        wavReader
	sampleRate int
	channels   int
	bitDepth   int
	duration   float64
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int   { return s.sampleRate }
func (s *source) Channels() int     { return s.channels }
func (s *source) Close() error      { return nil }
func (s *source) Duration() float64 { return s.duration }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	// go-audio reports the end of the data chunk as 0, nil.
	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("reading wav pcm: %w", err)
		}
		return 0, io.EOF
	}

	scale, offset := sampleScale(s.bitDepth)
	for i := range n {
		dst[i] = (float32(s.intBuf.Data[i]) - offset) / scale
	}

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("reading wav pcm: %w", err)
	}
	return n, nil
}

// sampleScale maps integer PCM to [-1, 1). 8-bit WAV is unsigned.
func sampleScale(bitDepth int) (scale, offset float32) {
	switch bitDepth {
	case 8:
		return 128, 128
	case 24:
		return 8388608, 0
	case 32:
		return 2147483648, 0
	default:
		return 32768, 0
	}
}

// Decoder decodes RIFF/WAVE integer PCM (8, 16, 24 or 32 bit, any channel
// count) through github.com/go-audio/wav.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio needs to seek across chunks
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	// go-audio swallows io.EOF, so a missing fmt chunk only shows as zero channels.
	if dec.NumChans < 1 {
		return nil, ErrNotWavFile
	}
	if dec.SampleRate == 0 {
		return nil, ErrUnsupportedWavLayout
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingDataChunk, err)
	}
	if dec.PCMChunk == nil {
		return nil, ErrMissingDataChunk
	}

	return &source{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
		duration:   declaredDuration(int64(dec.PCMSize), int(dec.SampleRate), int(dec.NumChans), int(dec.BitDepth)),
	}, nil
}

// declaredDuration derives seconds from the data chunk size. It is NaN when the
// writer never patched the size in.
func declaredDuration(dataSize int64, sampleRate, channels, bitDepth int) float64 {
	if dataSize == streamedSizeZero || dataSize == streamedSizeMax {
		return math.NaN()
	}

	frameBytes := int64(channels * bitDepth / 8)
	if frameBytes <= 0 || sampleRate <= 0 {
		return math.NaN()
	}

	return float64(dataSize/frameBytes) / float64(sampleRate)
}
