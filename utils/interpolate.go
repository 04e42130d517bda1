// SPDX-License-Identifier: EPL-2.0

package utils

// CatmullRom evaluates the Catmull-Rom spline through four consecutive
// samples at t in [0, 1], where t=0 is p1 and t=1 is p2.
func CatmullRom(p0, p1, p2, p3, t float32) float32 {
	a := -p0 + 3*p1 - 3*p2 + p3
	b := 2*p0 - 5*p1 + 4*p2 - p3
	c := p2 - p0

	return p1 + 0.5*t*(c+t*(b+t*a))
}
