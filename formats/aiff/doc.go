// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) audio through
// github.com/go-audio/aiff.
//
// 16 and 24 bit signed PCM are supported with any channel count. The
// container always declares its frame count, so the source reports a
// duration as audio.DurationReporter.
//
//	src, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // try another decoder
//	}
package aiff
