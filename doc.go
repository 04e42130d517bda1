// SPDX-License-Identifier: EPL-2.0

// Package multitrack is the audio engine of a collaborative multi-track
// recording workspace.
//
// It plays several tracks in approximate sync, shapes each one with volume,
// pan, mute and solo, records from a capture device and renders the
// ensemble offline into a single 16-bit stereo WAV file.
//
// # Packages
//
//   - audio: Source, Buffer, Resampler, MonoMixer, the pan law
//   - formats/wav, formats/mp3, formats/vorbis, formats/aiff: decoders
//   - loader: fetch, decode and duration resolution for one track
//   - engine: Session, TrackNode, Transport, BufferPlayer
//   - capture: PermissionGate and the Recorder state machine
//   - mixdown: offline rendering to WAV
//   - waveform: amplitude envelopes and trim windows
//   - store, storage: MySQL, Redis and MinIO adapters
//   - server: HTTP and websocket control surface
//
// # Quick Start
//
//	reg := multitrack.NewRegistry()
//	ldr := loader.New(reg, loader.SchemeFetcher{}, loader.WithSampleRate(44100))
//
//	sess := engine.NewSession(ldr)
//	defer sess.Close()
//
//	if err := sess.LoadTracks(ctx, records); err != nil {
//	    return err
//	}
//	if err := sess.Transport().Play(); err != nil {
//	    return err
//	}
//
// Offline export:
//
//	data, err := sess.Mixdown(ctx)
//
// NewRegistry wires every bundled decoder under the keys "wav", "mp3",
// "ogg" and "aiff".
package multitrack
