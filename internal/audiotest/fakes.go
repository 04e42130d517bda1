// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/formats/wav"
	"github.com/ik5/multitrack/utils"
)

// ErrNotFound is returned by Fetcher for unknown URLs.
var ErrNotFound = errors.New("audiotest: resource not found")

// Fetcher serves canned payloads by URL and counts requests.
// It satisfies loader.Fetcher.
type Fetcher struct {
	mu     sync.Mutex
	data   map[string][]byte
	errs   map[string]error
	counts map[string]int
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		data:   make(map[string][]byte),
		errs:   make(map[string]error),
		counts: make(map[string]int),
	}
}

// Add registers a payload for url.
func (f *Fetcher) Add(url string, data []byte) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[url] = data
	return f
}

// Fail makes every fetch of url return err.
func (f *Fetcher) Fail(url string, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errs[url] = err
	return f
}

// Count is how many times url was fetched.
func (f *Fetcher) Count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.counts[url]
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.counts[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	data, ok := f.data[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return data, nil
}

// Decoder decodes any payload into a fresh source built by New.
type Decoder struct {
	New func(payload []byte) (audio.Source, error)
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d.New(data)
}

// WAV renders frames of a waveform into an in-memory 16-bit WAV file.
func WAV(sampleRate, channels, frames int, waveform func(sample, channel int) float32) []byte {
	samples := make([]int16, frames*channels)
	for f := range frames {
		for c := range channels {
			samples[f*channels+c] = utils.Float32ToInt16(waveform(f, c))
		}
	}

	var buf bytes.Buffer
	if err := wav.WriteWAV16(&buf, sampleRate, channels, samples); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ConstantWAV is WAV with every sample set to value.
func ConstantWAV(sampleRate, channels, frames int, value float32) []byte {
	return WAV(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// Buffer builds an audio.Buffer directly from a waveform.
func Buffer(sampleRate, channels, frames int, waveform func(sample, channel int) float32) *audio.Buffer {
	buf := audio.NewBuffer(sampleRate, channels, frames)
	for f := range frames {
		for c := range channels {
			buf.Samples[f*channels+c] = waveform(f, c)
		}
	}
	return buf
}
