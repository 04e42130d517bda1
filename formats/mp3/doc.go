// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio with github.com/hajimehoshi/go-mp3.
//
// The decoder always yields interleaved stereo at the stream's sample rate.
// When the input is an io.Seeker the source reports its duration; otherwise
// Duration returns NaN and callers fall back to other estimates.
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	mono := audio.NewMonoMixer(src)
package mp3
