// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"io"
	"math"
	"testing"
)

// mockOggReader simulates oggvorbis.Reader for testing
type mockOggReader struct {
	sampleRate int
	channels   int
	samples    []float32 // interleaved
	offset     int
	length     int64
}

func (m *mockOggReader) SampleRate() int { return m.sampleRate }
func (m *mockOggReader) Channels() int   { return m.channels }
func (m *mockOggReader) Length() int64   { return m.length }

func (m *mockOggReader) Read(p []float32) (int, error) {
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}
	n := copy(p, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not Ogg Vorbis data")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); err == nil {
			t.Errorf("Decode(%q) error = nil, want error", data)
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	samples := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	src := &source{
		dec:        &mockOggReader{sampleRate: 48000, channels: 2, samples: samples},
		sampleRate: 48000,
		channels:   2,
	}

	// an odd-sized buffer is trimmed to whole frames
	dst := make([]float32, 5)
	n, err := src.ReadSamples(dst)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples() = %d, %v, want 4, nil", n, err)
	}

	n, err = src.ReadSamples(dst)
	if err != nil || n != 2 || dst[0] != 0.3 || dst[1] != -0.3 {
		t.Fatalf("ReadSamples() = %d, %v (%v), want the last frame", n, err, dst[:n])
	}

	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() at end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestSource_Duration(t *testing.T) {
	t.Parallel()

	known := &source{dec: &mockOggReader{length: 96000}, sampleRate: 48000, channels: 2}
	if got := known.Duration(); got != 2 {
		t.Errorf("Duration() = %v, want 2", got)
	}

	unknown := &source{dec: &mockOggReader{length: 0}, sampleRate: 48000, channels: 2}
	if got := unknown.Duration(); !math.IsNaN(got) {
		t.Errorf("Duration() = %v, want NaN", got)
	}
}
