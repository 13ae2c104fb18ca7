// SPDX-License-Identifier: EPL-2.0

package utils

// Clamp64 limits v to [lo, hi].
func Clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp32 limits v to [lo, hi].
func Clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
