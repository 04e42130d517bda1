// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with github.com/jfreymuth/oggvorbis.
//
// Samples come out interleaved at the stream's native rate and channel count.
// The stream length is only known for seekable input; Duration returns NaN
// otherwise.
package vorbis
