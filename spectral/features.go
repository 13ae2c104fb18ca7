// SPDX-License-Identifier: EPL-2.0

package spectral

import "math"

const (
	// MinFrequency is the lowest frequency DominantFrequency reports.
	MinFrequency = 20
	// NyquistMargin keeps DominantFrequency below sampleRate/2.
	NyquistMargin = 20

	// maxHarmonics bounds the harmonic series HarmonicFeatures inspects.
	maxHarmonics = 16
)

// Harmonic feature vector positions.
const (
	FeatFundamental = iota
	FeatAffinity
	FeatSharpness
	FeatHarmonicity
	FeatMonotony
	FeatMeanAffinity
	FeatMeanContrast

	NumHarmonicFeatures
)

// HarmonicVector holds the features listed above. All entries except the
// fundamental (Hz) lie in [0, 1].
type HarmonicVector [NumHarmonicFeatures]float32

// DominantFrequency returns the frequency of the largest-magnitude bin,
// DC and Nyquist included, clamped to [20, sampleRate/2-20] Hz. It
// returns 0 for an unusable spectrum.
func DominantFrequency(spec []float32, size, sampleRate int) float32 {
	if size < 2 || len(spec) < size || sampleRate <= 0 {
		return 0
	}

	best, bestMag := 0, -1.0
	for k := range Bins(size) {
		if m := Magnitude(spec, size, k); m > bestMag {
			best, bestMag = k, m
		}
	}

	hz := float64(best) * float64(sampleRate) / float64(size)
	hi := float64(sampleRate)/2 - NyquistMargin
	return float32(math.Max(MinFrequency, math.Min(hz, math.Max(hi, MinFrequency))))
}

// Energy is the sum of squared bin magnitudes of an ordered spectrum, with
// DC and Nyquist counted once.
func Energy(spec []float32) float64 {
	if len(spec) < 2 {
		return 0
	}

	e := float64(spec[0])*float64(spec[0]) + float64(spec[1])*float64(spec[1])
	for _, v := range spec[2:] {
		e += float64(v) * float64(v)
	}
	return e
}

// EquivalentRMS converts a spectrum of the given size back to the RMS of
// the frames it was computed from, using Parseval's theorem for a real
// transform.
func EquivalentRMS(spec []float32, size, frames int) float64 {
	if size < 2 || len(spec) < size || frames <= 0 {
		return 0
	}

	edges := float64(spec[0])*float64(spec[0]) + float64(spec[1])*float64(spec[1])
	var inner float64
	for _, v := range spec[2:size] {
		inner += float64(v) * float64(v)
	}

	sumSquares := (edges + 2*inner) / float64(size)
	return math.Sqrt(sumSquares / float64(frames))
}

// RMS of a sample slice.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

// ZeroCrossingFrequency estimates pitch from the rate of sign changes:
// crossings/2 per len(samples)/sampleRate seconds.
func ZeroCrossingFrequency(samples []float32, sampleRate int) float32 {
	if len(samples) < 2 || sampleRate <= 0 {
		return 0
	}

	crossings := 0
	prev := samples[0] >= 0
	for _, v := range samples[1:] {
		cur := v >= 0
		if cur != prev {
			crossings++
		}
		prev = cur
	}

	return float32(float64(crossings) / 2 * float64(sampleRate) / float64(len(samples)))
}

// HarmonicFeatures describes how periodic a spectrum is relative to its
// dominant frequency:
//
//	fundamental   dominant frequency in Hz
//	affinity      share of total energy sitting on harmonic bins
//	sharpness     (crest-1)/crest of the magnitude spectrum
//	harmonicity   harmonic energy / (harmonic + half-harmonic energy)
//	monotony      fundamental energy / harmonic energy
//	mean-affinity mean harmonic magnitude / peak magnitude
//	mean-contrast mean of (harmonic-mid)/(harmonic+mid), mid at h+1/2
func HarmonicFeatures(spec []float32, size, sampleRate int) HarmonicVector {
	var v HarmonicVector
	f0 := DominantFrequency(spec, size, sampleRate)
	v[FeatFundamental] = f0
	if f0 == 0 {
		return v
	}

	bins := Bins(size)
	var total, peak, sumMag float64
	for k := range bins {
		m := Magnitude(spec, size, k)
		total += m * m
		sumMag += m
		peak = math.Max(peak, m)
	}
	if total == 0 {
		return v
	}

	magAt := func(bin float64) float64 {
		k := int(math.Round(bin))
		if k < 0 || k >= bins {
			return 0
		}
		return Magnitude(spec, size, k)
	}

	binHz := float64(sampleRate) / float64(size)
	f0Bin := float64(f0) / binHz

	var harmonic, inter, fundamental, harmMag, contrast float64
	var count, contrastCount int
	for h := 1; h <= maxHarmonics; h++ {
		bin := float64(h) * f0Bin
		if bin >= float64(bins-1) {
			break
		}
		hm := magAt(bin)
		mid := magAt(bin + f0Bin/2)

		harmonic += hm * hm
		inter += mid * mid
		harmMag += hm
		count++
		if h == 1 {
			fundamental = hm * hm
		}
		if hm+mid > 0 {
			contrast += (hm - mid) / (hm + mid)
			contrastCount++
		}
	}
	if count == 0 {
		return v
	}

	v[FeatAffinity] = unit(harmonic / total)

	if mean := sumMag / float64(bins); mean > 0 {
		crest := peak / mean
		v[FeatSharpness] = unit((crest - 1) / crest)
	}
	if harmonic+inter > 0 {
		v[FeatHarmonicity] = unit(harmonic / (harmonic + inter))
	}
	if harmonic > 0 {
		v[FeatMonotony] = unit(fundamental / harmonic)
	}
	if peak > 0 {
		v[FeatMeanAffinity] = unit(harmMag / float64(count) / peak)
	}
	if contrastCount > 0 {
		v[FeatMeanContrast] = unit(contrast / float64(contrastCount))
	}

	return v
}

func unit(x float64) float32 {
	return float32(math.Max(0, math.Min(1, x)))
}
