// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-level building blocks shared by the
// engine, the mixdown renderer and the waveform extractor.
//
// # Source Interface
//
// Every decoder and processor implements Source, so they chain freely:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1.0, 1.0]. A source signals the end
// of the stream with io.EOF. Sources that know their length from the
// container also implement DurationReporter.
//
// # Buffers
//
// A Buffer is a whole decoded track held in memory. ReadAll drains a Source
// into one; Slice, Mono and Resample return new buffers:
//
//	buf, err := audio.ReadAll(src)
//	if err != nil {
//	    return err
//	}
//	window := buf.Slice(1.5, 4.0)
//
// # Resampling and Channel Mixing
//
// Resampler converts the sample rate with cubic interpolation and MonoMixer
// averages channels into one:
//
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 44100))
//
// # Panning
//
// LinearPan implements the pan law used both for live gains and for offline
// mixdown: left = min(1, 1-pan), right = min(1, 1+pan). Centre is unity on
// both sides.
//
// # Format Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, ok := registry.Get("wav")
package audio
