// SPDX-License-Identifier: EPL-2.0

package morph

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/audresynth/utils"
)

// Type selects the blend operator.
type Type int

const (
	None Type = iota
	CrossSynthesis
	SpectralVocoder
	CepstralMorph
	HarmonicMorph
	WaveMorph
	SpectralMasking
)

var typeNames = [...]string{
	None:            "none",
	CrossSynthesis:  "cross-synthesis",
	SpectralVocoder: "spectral-vocoder",
	CepstralMorph:   "cepstral-morph",
	HarmonicMorph:   "harmonic-morph",
	WaveMorph:       "wave-morph",
	SpectralMasking: "spectral-masking",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("morph(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType accepts the names printed by String.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Params are the blend amounts and harmonic-series settings.
type Params struct {
	MorphAmount float64 // 0 keeps a's magnitude, 1 takes b's
	PhaseAmount float64 // 0 keeps a's phase, 1 takes b's
	Waveform    Waveform
	MinHarmonic int // lowest harmonic nulled by the harmonic operators
	SampleRate  int
}

// DefaultParams is an even blend with the square series from the second
// harmonic up.
func DefaultParams() Params {
	return Params{
		MorphAmount: 0.5,
		PhaseAmount: 0.5,
		Waveform:    Square,
		MinHarmonic: 2,
		SampleRate:  48000,
	}
}

func (p Params) normalized() Params {
	p.MorphAmount = utils.Clamp64(p.MorphAmount, 0, 1)
	p.PhaseAmount = utils.Clamp64(p.PhaseAmount, 0, 1)
	p.MinHarmonic = max(p.MinHarmonic, 1)
	return p
}

// Engine holds the scratch state of the operators. It is not safe for
// concurrent use.
type Engine struct {
	size int

	resA, resB []float32

	ffts  map[int]*fourier.FFT
	fft   *fourier.FFT
	seq   []float64
	coeff []complex128
	envA  []float64
	envB  []float64
}

// New returns an engine with no size prepared.
func New() *Engine {
	return &Engine{ffts: make(map[int]*fourier.FFT)}
}

// Size is the prepared transform size.
func (e *Engine) Size() int { return e.size }

// Prepare sizes the scratch buffers for spectra of the given transform
// size. Calling it again with the same size is free.
func (e *Engine) Prepare(size int) {
	if size < 2 || size == e.size {
		return
	}
	bins := size/2 + 1

	if cap(e.resA) < size {
		e.resA = make([]float32, size)
		e.resB = make([]float32, size)
		e.seq = make([]float64, size)
	}
	if cap(e.coeff) < bins {
		e.coeff = make([]complex128, bins)
		e.envA = make([]float64, bins)
		e.envB = make([]float64, bins)
	}
	e.resA, e.resB, e.seq = e.resA[:size], e.resB[:size], e.seq[:size]
	e.coeff, e.envA, e.envB = e.coeff[:bins], e.envA[:bins], e.envB[:bins]

	fft, ok := e.ffts[size]
	if !ok {
		fft = fourier.NewFFT(size)
		e.ffts[size] = fft
	}
	e.fft = fft
	e.size = size
}

// Apply blends a and b channel by channel into dst. Every slice must hold
// at least size values. It returns false when there is nothing to blend.
func (e *Engine) Apply(t Type, dst, a, b [][]float32, size int, p Params) bool {
	channels := min(len(dst), len(a), len(b))
	if channels == 0 || size < 2 {
		return false
	}
	for ch := range channels {
		if len(dst[ch]) < size || len(a[ch]) < size || len(b[ch]) < size {
			return false
		}
	}

	e.Prepare(size)
	p = p.normalized()

	for ch := range channels {
		d, x, y := dst[ch][:size], a[ch][:size], b[ch][:size]

		switch t {
		case CrossSynthesis:
			Cross(d, x, y, size, p.MorphAmount, p.PhaseAmount)
		case HarmonicMorph:
			e.harmonicMorph(d, x, y, size, p, true)
		case WaveMorph:
			e.harmonicMorph(d, x, y, size, p, false)
		case SpectralVocoder:
			e.vocoder(d, x, y, size, p.MorphAmount)
		case CepstralMorph:
			e.cepstral(d, x, y, size, p.MorphAmount)
		case SpectralMasking:
			masking(d, x, y, size, p.MorphAmount)
		default:
			copy(d, y)
		}
	}

	return true
}
