// SPDX-License-Identifier: EPL-2.0

package audio

import "math"

// LinearPan returns the left and right gains for pan in [-1, 1].
//
// Centre (0) leaves both channels at unity, -1 silences the right channel
// and +1 silences the left one. Values outside the range are clamped.
func LinearPan(pan float64) (left, right float64) {
	pan = ClampPan(pan)

	return min(1, 1-pan), min(1, 1+pan)
}

// ClampPan limits pan to [-1, 1]. NaN is treated as centre.
func ClampPan(pan float64) float64 {
	if math.IsNaN(pan) {
		return 0
	}
	return max(-1, min(1, pan))
}

// ClampVolume limits a gain to [0, 1]. NaN is treated as silence.
func ClampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(1, v))
}
