// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Clip hard-limits x to [-1, 1].
func Clip(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Float32ToInt16 quantizes a sample to signed 16-bit PCM.
// The input is hard clipped, scaled by 32768 and rounded; +1.0 saturates to 32767.
// Any value produced by Int16ToFloat32 converts back to the same int16.
func Float32ToInt16(x float32) int16 {
	return Float64ToInt16(float64(x))
}

// Float64ToInt16 is Float32ToInt16 for accumulators kept in float64.
func Float64ToInt16(x float64) int16 {
	v := math.Round(Clip(x) * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

// Int16ToFloat32 converts a 16-bit PCM sample to [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}
