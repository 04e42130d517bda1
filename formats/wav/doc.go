// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes RIFF/WAVE audio.
//
// Decoding goes through github.com/go-audio/wav and accepts integer PCM at
// 8, 16, 24 or 32 bits with any channel count. The returned source also
// implements audio.DurationReporter: the length comes from the data chunk
// size and is NaN for files whose writer never filled the size in (live
// recorders commonly leave 0 or 0xFFFFFFFF there).
//
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf, err := audio.ReadAll(src)
//
// Encoding always produces the canonical 44-byte header followed by 16-bit
// little-endian interleaved PCM. WriteWAV16 takes samples, WritePCM16 takes
// the raw bytes a capture device hands over:
//
//	err := wav.WriteWAV16(out, 44100, 2, pcm)
//
// Errors are sentinel values (ErrNotWavFile, ErrUnsupportedEncoding, ...)
// wrapped with context, so use errors.Is.
package wav
