// SPDX-License-Identifier: EPL-2.0

package morph

import "math"

// magFloor keeps logs and reciprocals finite.
const magFloor = 1e-12

// Cross writes the cross-synthesis of a and b into dst. DC and Nyquist
// blend linearly by m. Every other bin takes the magnitude
// exp((1-m)*ln|a| + m*ln|b|) and the phase of the normalized
// interpolation, by p, between the unit phasors of a and b. At m=0 and m=1
// the magnitude is |a| and |b| exactly. dst may alias a or b.
func Cross(dst, a, b []float32, size int, m, p float64) {
	lerp := func(x, y float32) float32 {
		return float32((1-m)*float64(x) + m*float64(y))
	}
	dst[0] = lerp(a[0], b[0])
	dst[1] = lerp(a[1], b[1])

	for k := 1; k < size/2; k++ {
		ar, ai := float64(a[2*k]), float64(a[2*k+1])
		br, bi := float64(b[2*k]), float64(b[2*k+1])
		ma, mb := math.Hypot(ar, ai), math.Hypot(br, bi)

		var mag float64
		switch m {
		case 0:
			mag = ma
		case 1:
			mag = mb
		default:
			mag = math.Exp((1-m)*math.Log(math.Max(ma, magFloor)) + m*math.Log(math.Max(mb, magFloor)))
		}

		uar, uai, uaOK := unitPhasor(ar, ai, ma)
		ubr, ubi, ubOK := unitPhasor(br, bi, mb)
		switch {
		case !uaOK && !ubOK:
			uar, uai, ubr, ubi = 1, 0, 1, 0
		case !uaOK:
			uar, uai = ubr, ubi
		case !ubOK:
			ubr, ubi = uar, uai
		}

		ur := (1-p)*uar + p*ubr
		ui := (1-p)*uai + p*ubi
		n := math.Hypot(ur, ui)
		if n < magFloor {
			// Opposite phasors at p=0.5; pick the nearer side.
			if p < 0.5 {
				ur, ui = uar, uai
			} else {
				ur, ui = ubr, ubi
			}
			n = 1
		}

		dst[2*k] = float32(mag * ur / n)
		dst[2*k+1] = float32(mag * ui / n)
	}
}

func unitPhasor(re, im, mag float64) (float64, float64, bool) {
	if mag < magFloor {
		return 0, 0, false
	}
	return re / mag, im / mag, true
}
