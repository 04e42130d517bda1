// SPDX-License-Identifier: EPL-2.0

package loader_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/formats/wav"
	"github.com/ik5/multitrack/internal/audiotest"
	"github.com/ik5/multitrack/loader"
)

func newLoader(f loader.Fetcher, opts ...loader.Option) *loader.Loader {
	reg := audio.NewRegistry()
	reg.Register(loader.FormatWAV, wav.Decoder{})
	return loader.New(reg, f, opts...)
}

// streamedWAV clears the data size the way live recorders leave it.
func streamedWAV(rate, frames int) []byte {
	data := audiotest.ConstantWAV(rate, 1, frames, 0.25)
	binary.LittleEndian.PutUint32(data[40:44], 0)
	return data
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	f := audiotest.NewFetcher().Add("https://cdn.test/a.wav", audiotest.ConstantWAV(8000, 2, 16000, 0.5))
	l := newLoader(f, loader.WithSampleRate(8000))

	res, err := l.Load(context.Background(), loader.Request{URL: "https://cdn.test/a.wav"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if res.Format != loader.FormatWAV {
		t.Errorf("Format = %q, want wav", res.Format)
	}
	if res.Duration != (loader.Duration{Seconds: 2, Source: loader.DurationNative}) {
		t.Errorf("Duration = %+v, want 2s native", res.Duration)
	}
	if !res.Duration.Measured() {
		t.Error("Measured() = false for a native duration")
	}
	if res.Buffer.Frames() != 16000 || res.Buffer.Channels != 2 {
		t.Errorf("Buffer = %d frames/%d ch, want 16000/2", res.Buffer.Frames(), res.Buffer.Channels)
	}
	if res.Buffer.Samples[0] != 0.5 {
		t.Errorf("Buffer[0] = %v, want 0.5", res.Buffer.Samples[0])
	}
}

func TestLoader_ResamplesToContextRate(t *testing.T) {
	t.Parallel()

	f := audiotest.NewFetcher().Add("a.wav", audiotest.ConstantWAV(22050, 1, 22050, 0.1))
	l := newLoader(f, loader.WithSampleRate(44100))

	res, err := l.Load(context.Background(), loader.Request{URL: "a.wav"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if res.Buffer.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", res.Buffer.SampleRate)
	}
	if math.Abs(res.Buffer.Duration()-1) > 0.01 {
		t.Errorf("buffer duration = %v, want about 1s", res.Buffer.Duration())
	}
	// the declared duration is independent of resampling
	if res.Duration.Seconds != 1 {
		t.Errorf("Duration = %v, want 1", res.Duration.Seconds)
	}
}

func TestLoader_NonFiniteDurationFallsBack(t *testing.T) {
	t.Parallel()

	payload := streamedWAV(8000, 4000)
	f := audiotest.NewFetcher().Add("rec.wav", payload)
	l := newLoader(f, loader.WithSampleRate(8000), loader.WithAssumedBitrate(64000))

	tests := []struct {
		name      string
		persisted float64
		want      loader.Duration
	}{
		{
			name:      "persisted wins",
			persisted: 42,
			want:      loader.Duration{Seconds: 42, Source: loader.DurationPersisted},
		},
		{
			name: "size estimate",
			want: loader.Duration{Seconds: float64(len(payload)) * 8 / 64000, Source: loader.DurationEstimated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := l.Load(context.Background(), loader.Request{URL: "rec.wav", PersistedDuration: tt.persisted})
			if err != nil {
				t.Fatalf("Load() error = %v, want a fallback duration", err)
			}
			if res.Duration != tt.want {
				t.Errorf("Duration = %+v, want %+v", res.Duration, tt.want)
			}
			if res.Duration.Measured() {
				t.Error("Measured() = true for a fallback duration")
			}
		})
	}
}

func TestLoader_DecoderWithoutDeclaredDurationIsMeasured(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	reg.Register(loader.FormatMP3, audiotest.Decoder{New: func([]byte) (audio.Source, error) {
		return plainSource{audiotest.NewSilentSource(8000, 1, 2000)}, nil
	}})

	f := audiotest.NewFetcher().Add("x.mp3", []byte("ID3 fake payload"))
	l := loader.New(reg, f, loader.WithSampleRate(8000))

	res, err := l.Load(context.Background(), loader.Request{URL: "x.mp3", PersistedDuration: 9})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Duration != (loader.Duration{Seconds: 0.25, Source: loader.DurationNative}) {
		t.Errorf("Duration = %+v, want 0.25s native", res.Duration)
	}
}

// plainSource hides MockSource's Duration method.
type plainSource struct {
	src *audiotest.MockSource
}

func (p plainSource) SampleRate() int                        { return p.src.SampleRate() }
func (p plainSource) Channels() int                          { return p.src.Channels() }
func (p plainSource) BufSize() int                           { return p.src.BufSize() }
func (p plainSource) Close() error                           { return p.src.Close() }
func (p plainSource) ReadSamples(dst []float32) (int, error) { return p.src.ReadSamples(dst) }

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	down := errors.New("connection refused")
	f := audiotest.NewFetcher().
		Fail("https://cdn.test/down.wav", down).
		Add("mystery.bin", []byte("not audio at all, no extension hint")).
		Add("broken.wav", []byte("RIFF\x00\x00\x00\x00WAVEjunk")).
		Add("empty.wav", []byte{})
	l := newLoader(f)

	t.Run("network", func(t *testing.T) {
		t.Parallel()

		_, err := l.Load(context.Background(), loader.Request{URL: "https://cdn.test/down.wav"})

		var netErr *loader.NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("Load() error = %v, want *NetworkError", err)
		}
		if !errors.Is(err, down) || netErr.URL != "https://cdn.test/down.wav" {
			t.Errorf("NetworkError = %+v, want the fetch cause and URL", netErr)
		}
	})

	decodeCases := []struct {
		url  string
		want error
	}{
		{url: "mystery.bin", want: loader.ErrUnsupportedFormat},
		{url: "broken.wav", want: wav.ErrNotWavFile},
		{url: "empty.wav", want: loader.ErrEmptyPayload},
	}
	for _, tt := range decodeCases {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			_, err := l.Load(context.Background(), loader.Request{URL: tt.url})

			var decErr *loader.DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Load() error = %v, want *DecodeError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	t.Parallel()

	f := audiotest.NewFetcher().Add("a.wav", audiotest.ConstantWAV(8000, 1, 10, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoader(f).Load(ctx, loader.Request{URL: "a.wav"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}
