// SPDX-License-Identifier: EPL-2.0

package morph

import (
	"math"

	"github.com/ik5/audresynth/spectral"
)

const (
	// vocoderRadius is the half-width, in bins, of the envelope average.
	vocoderRadius = 8
	// cepstralLifter is the number of low quefrency coefficients kept.
	cepstralLifter = 24
)

func magnitudes(dst []float64, spec []float32, size int) (peak float64) {
	for k := range dst {
		dst[k] = spectral.Magnitude(spec, size, k)
		peak = math.Max(peak, dst[k])
	}
	return peak
}

// smooth replaces env with its moving average over 2*radius+1 bins,
// shrinking the window at the edges. tmp must be at least len(env) long.
func smooth(env, tmp []float64, radius int) {
	n := len(env)
	copy(tmp, env)

	var sum float64
	lo, hi := 0, -1
	for k := range n {
		for hi < min(n-1, k+radius) {
			hi++
			sum += tmp[hi]
		}
		for lo < k-radius {
			sum -= tmp[lo]
			lo++
		}
		env[k] = sum / float64(hi-lo+1)
	}
}

// scaleBins multiplies every bin of b by gain(k) into dst.
func scaleBins(dst, b []float32, size int, gain func(k int) float64) {
	dst[0] = float32(float64(b[0]) * gain(0))
	dst[1] = float32(float64(b[1]) * gain(size/2))
	for k := 1; k < size/2; k++ {
		g := gain(k)
		dst[2*k] = float32(float64(b[2*k]) * g)
		dst[2*k+1] = float32(float64(b[2*k+1]) * g)
	}
}

// vocoder keeps b's fine structure and moves its smoothed envelope toward
// a's: gain (envA/envB)^(1-m).
func (e *Engine) vocoder(dst, a, b []float32, size int, m float64) {
	bins := size/2 + 1
	peakA := magnitudes(e.envA, a, size)
	peakB := magnitudes(e.envB, b, size)
	tmp := e.seq[:bins]
	smooth(e.envA, tmp, vocoderRadius)
	smooth(e.envB, tmp, vocoderRadius)

	floor := 1e-6*math.Max(peakA, peakB) + magFloor
	scaleBins(dst, b, size, func(k int) float64 {
		return math.Pow((e.envA[k]+floor)/(e.envB[k]+floor), 1-m)
	})
}

// logEnvelope writes the cepstrally smoothed log magnitude of spec into
// env: the log spectrum is taken to the quefrency domain, everything past
// the lifter is cleared and the result is transformed back.
func (e *Engine) logEnvelope(env []float64, spec []float32, size int) {
	for k := range e.coeff {
		e.coeff[k] = complex(math.Log(math.Max(spectral.Magnitude(spec, size, k), magFloor)), 0)
	}
	e.fft.Sequence(e.seq, e.coeff)

	lifter := min(cepstralLifter, size/2-1)
	clear(e.seq[lifter : size-lifter+1])

	e.fft.Coefficients(e.coeff, e.seq)
	scale := 1 / float64(size)
	for k := range env {
		env[k] = real(e.coeff[k]) * scale
	}
}

// cepstral keeps b's fine structure and interpolates the log envelopes:
// gain exp((1-m)*(envA-envB)).
func (e *Engine) cepstral(dst, a, b []float32, size int, m float64) {
	e.logEnvelope(e.envA, a, size)
	e.logEnvelope(e.envB, b, size)

	scaleBins(dst, b, size, func(k int) float64 {
		return math.Exp((1 - m) * (e.envA[k] - e.envB[k]))
	})
}

// masking gates b by a's magnitude relative to its peak: gain
// m + (1-m)*|a|/peak(a).
func masking(dst, a, b []float32, size int, m float64) {
	var peak float64
	for k := range size/2 + 1 {
		peak = math.Max(peak, spectral.Magnitude(a, size, k))
	}

	rel := func(k int) float64 {
		if peak == 0 {
			return 0
		}
		return spectral.Magnitude(a, size, k) / peak
	}
	scaleBins(dst, b, size, func(k int) float64 {
		return m + (1-m)*rel(k)
	})
}
