// SPDX-License-Identifier: EPL-2.0

// Package mixdown renders tracks offline into one stereo 16-bit WAVE file.
//
// Each un-muted input is scaled by its volume and split with the linear pan
// law, summed in float64 in input order, hard clipped and quantized. Muted
// inputs are skipped without being decoded. Identical inputs give identical
// bytes.
package mixdown
