// SPDX-License-Identifier: EPL-2.0

package utils

// Cubic evaluates the Catmull-Rom spline through y0..y3 at x in [0, 1],
// where x=0 is y1 and x=1 is y2.
func Cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*x+a1)*x+a2)*x + y1
}

// CubicFrame interpolates every channel of four consecutive frames into
// dst. All slices must be at least len(dst) long.
func CubicFrame(dst, y0, y1, y2, y3 []float32, x float32) {
	for c := range dst {
		dst[c] = Cubic(y0[c], y1[c], y2[c], y3[c], x)
	}
}
