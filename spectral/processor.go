// SPDX-License-Identifier: EPL-2.0

package spectral

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/window"
)

// Processor wraps gonum's real FFT for chunks. It is not safe for
// concurrent use.
type Processor struct {
	ffts  map[int]*fourier.FFT
	fft   *fourier.FFT
	size  int
	seq   []float64
	coeff []complex128
}

// New returns a processor with no transform prepared.
func New() *Processor {
	return &Processor{ffts: make(map[int]*fourier.FFT)}
}

// Size is the currently prepared transform size, 0 if none.
func (p *Processor) Size() int { return p.size }

// Prepare selects the transform for the given size, creating it and its
// work buffers the first time. Sizes that are not even are rounded up with
// window.NextValidFFTSize.
func (p *Processor) Prepare(size int) int {
	if size <= 0 || size%2 != 0 {
		size = window.NextValidFFTSize(size)
	}
	if size == p.size && p.fft != nil {
		return size
	}

	fft, ok := p.ffts[size]
	if !ok {
		fft = fourier.NewFFT(size)
		p.ffts[size] = fft
	}
	p.fft = fft
	p.size = size

	if cap(p.seq) < size {
		p.seq = make([]float64, size)
		p.coeff = make([]complex128, size/2+1)
	}
	p.seq = p.seq[:size]
	p.coeff = p.coeff[:size/2+1]

	return size
}

// Forward windows each channel of c, zero-pads it to
// window.NextValidFFTSize(c.Frames()) and stores the ordered spectrum in
// c.Spectrum. A nil window is rectangular. It returns false for an empty
// chunk.
func (p *Processor) Forward(c *audio.Chunk, w *window.Window) bool {
	if c == nil || c.Channels() == 0 || c.Frames() == 0 {
		return false
	}

	frames := c.Frames()
	size := p.Prepare(window.NextValidFFTSize(frames))
	c.ResizeSpectrum(size)

	var coeffs []float32
	c.Window, c.WindowSize = window.Rectangular, frames
	if w != nil {
		coeffs = w.Coefficients()
		c.Window, c.WindowSize = w.Type(), w.Size()
	}

	for ch, samples := range c.Samples {
		for i, v := range samples {
			s := float64(v)
			if coeffs != nil {
				if i < len(coeffs) {
					s *= float64(coeffs[i])
				} else {
					s = 0
				}
			}
			p.seq[i] = s
		}
		clear(p.seq[frames:])

		p.fft.Coefficients(p.coeff, p.seq)
		pack(c.Spectrum[ch], p.coeff)
	}
	c.FFTSize = size

	return true
}

// Inverse overwrites c.Samples with the first Frames() samples of the
// inverse transform of c.Spectrum. It returns false if c has no spectrum.
func (p *Processor) Inverse(c *audio.Chunk) bool {
	if c == nil || !c.HasSpectrum() {
		return false
	}

	size := p.Prepare(c.FFTSize)
	scale := 1 / float64(size)

	for ch, samples := range c.Samples {
		unpack(p.coeff, c.Spectrum[ch])
		p.fft.Sequence(p.seq, p.coeff)

		n := min(len(samples), size)
		for i := range n {
			samples[i] = float32(p.seq[i] * scale)
		}
		clear(samples[n:])
	}

	return true
}

func pack(dst []float32, coeff []complex128) {
	half := len(coeff) - 1
	dst[0] = float32(real(coeff[0]))
	dst[1] = float32(real(coeff[half]))
	for k := 1; k < half; k++ {
		dst[2*k] = float32(real(coeff[k]))
		dst[2*k+1] = float32(imag(coeff[k]))
	}
}

func unpack(dst []complex128, spec []float32) {
	half := len(dst) - 1
	dst[0] = complex(float64(spec[0]), 0)
	dst[half] = complex(float64(spec[1]), 0)
	for k := 1; k < half; k++ {
		dst[k] = complex(float64(spec[2*k]), float64(spec[2*k+1]))
	}
}

// Bins is the number of distinct bins, DC and Nyquist included, of an
// ordered spectrum of the given size.
func Bins(size int) int { return size/2 + 1 }

// Magnitude returns |X[k]| of an ordered spectrum for 0 <= k <= size/2.
func Magnitude(spec []float32, size, k int) float64 {
	switch {
	case k == 0:
		return math.Abs(float64(spec[0]))
	case k == size/2:
		return math.Abs(float64(spec[1]))
	default:
		return math.Hypot(float64(spec[2*k]), float64(spec[2*k+1]))
	}
}

// Polish fades the first and last taper valid frames of every channel to
// zero with a raised-cosine ramp. The taper is limited to half the valid
// frames.
func Polish(c *audio.Chunk, taper int) {
	if c == nil {
		return
	}
	frames := min(c.ValidFrames, c.Frames())
	taper = min(taper, frames/2)
	if taper <= 0 {
		return
	}

	for _, s := range c.Samples {
		for i := range taper {
			g := float32(0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(taper))))
			s[i] *= g
			s[frames-1-i] *= g
		}
	}
}
