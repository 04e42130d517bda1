// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestWriteWAV16_Header(t *testing.T) {
	t.Parallel()

	samples := []int16{1, -1, 2, -2, 3, -3}

	var buf bytes.Buffer
	if err := WriteWAV16(&buf, 44100, 2, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	b := buf.Bytes()
	if len(b) != headerSize+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(b), headerSize+len(samples)*2)
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(b[4:8]), 36 + 12},
		{"fmt size", binary.LittleEndian.Uint32(b[16:20]), 16},
		{"format", uint32(binary.LittleEndian.Uint16(b[20:22])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(b[22:24])), 2},
		{"sample rate", binary.LittleEndian.Uint32(b[24:28]), 44100},
		{"byte rate", binary.LittleEndian.Uint32(b[28:32]), 44100 * 4},
		{"block align", uint32(binary.LittleEndian.Uint16(b[32:34])), 4},
		{"bits", uint32(binary.LittleEndian.Uint16(b[34:36])), 16},
		{"data size", binary.LittleEndian.Uint32(b[40:44]), 12},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	for _, tag := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(b[tag.off : tag.off+4]); got != tag.want {
			t.Errorf("tag at %d = %q, want %q", tag.off, got, tag.want)
		}
	}

	if got := int16(binary.LittleEndian.Uint16(b[46:48])); got != -1 {
		t.Errorf("second sample = %d, want -1", got)
	}
}

func TestWriteWAV16_LargeInputIsChunked(t *testing.T) {
	t.Parallel()

	samples := make([]int16, writeChunk*3+5)
	for i := range samples {
		samples[i] = int16(i)
	}

	var buf bytes.Buffer
	if err := WriteWAV16(&buf, 8000, 1, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	b := buf.Bytes()[headerSize:]
	last := len(samples) - 1
	if got := int16(binary.LittleEndian.Uint16(b[last*2:])); got != samples[last] {
		t.Errorf("last sample = %d, want %d", got, samples[last])
	}
}

func TestWriteWAV16_Invalid(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteWAV16(&buf, 8000, 0, nil); !errors.Is(err, ErrInvalidChannels) {
		t.Errorf("WriteWAV16(0 ch) error = %v, want ErrInvalidChannels", err)
	}
	if err := WriteWAV16(&buf, 8000, 2, []int16{1, 2, 3}); !errors.Is(err, ErrPartialFrame) {
		t.Errorf("WriteWAV16(odd) error = %v, want ErrPartialFrame", err)
	}
}

func TestWritePCM16(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0x10} // two samples and a stray byte

	var buf bytes.Buffer
	if err := WritePCM16(&buf, 48000, 1, pcm); err != nil {
		t.Fatalf("WritePCM16() error = %v", err)
	}

	b := buf.Bytes()
	if got := binary.LittleEndian.Uint32(b[40:44]); got != 4 {
		t.Errorf("data size = %d, want 4", got)
	}
	if !bytes.Equal(b[headerSize:], pcm[:4]) {
		t.Errorf("payload = %x, want %x", b[headerSize:], pcm[:4])
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteWAV16_WriterError(t *testing.T) {
	t.Parallel()

	if err := WriteWAV16(failingWriter{}, 8000, 1, []int16{1}); err == nil {
		t.Error("WriteWAV16() error = nil, want writer error")
	}
}
