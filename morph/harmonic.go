// SPDX-License-Identifier: EPL-2.0

package morph

import (
	"fmt"
	"math"
	"strings"

	"github.com/ik5/audresynth/spectral"
)

// Waveform names the harmonic series the harmonic operators work with.
type Waveform int

const (
	Square Waveform = iota
	Triangle
	Sawtooth
)

var waveformNames = [...]string{Square: "square", Triangle: "triangle", Sawtooth: "sawtooth"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform accepts the names printed by String.
func ParseWaveform(name string) (Waveform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for w, n := range waveformNames {
		if n == name {
			return Waveform(w), nil
		}
	}
	return Square, fmt.Errorf("%w: %q", ErrUnknownWaveform, name)
}

// Harmonic returns the signed amplitude of harmonic h relative to the
// fundamental:
//
//	square    1/h for odd h, 0 otherwise
//	triangle  (-1)^((h-1)/2)/h^2 for odd h, 0 otherwise
//	sawtooth  (-1)^(h+1)/h
func (w Waveform) Harmonic(h int) float64 {
	if h < 1 {
		return 0
	}
	fh := float64(h)

	switch w {
	case Square:
		if h%2 == 0 {
			return 0
		}
		return 1 / fh
	case Triangle:
		if h%2 == 0 {
			return 0
		}
		if (h-1)/2%2 == 1 {
			return -1 / (fh * fh)
		}
		return 1 / (fh * fh)
	case Sawtooth:
		if h%2 == 0 {
			return -1 / fh
		}
		return 1 / fh
	default:
		return 0
	}
}

// fundamental is the strongest bin strictly between DC and Nyquist,
// captured before any operator writes over the spectrum.
type fundamental struct {
	bin   int // 0 when the spectrum is silent
	amp   float64
	phase float64
}

func fundamentalOf(spec []float32, size int) fundamental {
	var f fundamental
	for k := 1; k < size/2; k++ {
		if m := spectral.Magnitude(spec, size, k); m > f.amp {
			f.bin, f.amp = k, m
		}
	}
	if f.bin > 0 {
		f.phase = math.Atan2(float64(spec[2*f.bin+1]), float64(spec[2*f.bin]))
	}
	return f
}

// addSeries adds sign times the theoretical series of w to dst for every
// harmonic h >= minHarmonic below Nyquist. Harmonic h sits on bin h*bin
// with amplitude amp*w.Harmonic(h) and phase h*phase.
func (f fundamental) addSeries(dst []float32, size int, w Waveform, minHarmonic int, sign float64) {
	if f.bin <= 0 || f.amp < magFloor {
		return
	}

	for h := max(minHarmonic, 1); h*f.bin < size/2; h++ {
		c := w.Harmonic(h)
		if c == 0 {
			continue
		}
		s, cs := math.Sincos(float64(h) * f.phase)
		k := h * f.bin
		dst[2*k] += float32(sign * f.amp * c * cs)
		dst[2*k+1] += float32(sign * f.amp * c * s)
	}
}

// harmonicMorph nulls b's series (and a's as well when both is set),
// cross-synthesizes the residuals and re-adds b's series.
func (e *Engine) harmonicMorph(dst, a, b []float32, size int, p Params, both bool) {
	fa := fundamentalOf(a, size)
	fb := fundamentalOf(b, size)

	copy(e.resA, a)
	copy(e.resB, b)
	if both {
		fa.addSeries(e.resA, size, p.Waveform, p.MinHarmonic, -1)
	}
	fb.addSeries(e.resB, size, p.Waveform, p.MinHarmonic, -1)

	Cross(dst, e.resA, e.resB, size, p.MorphAmount, p.PhaseAmount)
	fb.addSeries(dst, size, p.Waveform, p.MinHarmonic, 1)
}
