// SPDX-License-Identifier: EPL-2.0

// Package waveform reduces decoded audio to a normalized amplitude envelope
// for drawing, and models the trim handles drawn over it.
package waveform
