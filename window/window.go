// SPDX-License-Identifier: EPL-2.0

package window

import (
	"fmt"
	"math"
	"strings"

	gwindow "gonum.org/v1/gonum/dsp/window"
)

// Type selects the window shape.
type Type int

const (
	Rectangular Type = iota
	Hann
	Hamming
	Blackman
)

// shape holds the compile-time constants of a window type.
type shape struct {
	name    string
	overlap float64 // canonical overlap fraction for overlap-add
	rescale float64 // inverse of the window's mean (coherent gain)
	apply   func([]float64) []float64
}

var shapes = [...]shape{
	Rectangular: {name: "rectangular", overlap: 0, rescale: 1},
	Hann:        {name: "hann", overlap: 0.5, rescale: 2, apply: gwindow.Hann},
	Hamming:     {name: "hamming", overlap: 0.5, rescale: 1 / 0.54, apply: gwindow.Hamming},
	Blackman:    {name: "blackman", overlap: 0.75, rescale: 1 / 0.42, apply: gwindow.Blackman},
}

func (t Type) valid() bool { return t >= Rectangular && int(t) < len(shapes) }

func (t Type) String() string {
	if !t.valid() {
		return fmt.Sprintf("window(%d)", int(t))
	}
	return shapes[t].name
}

// Overlap is the canonical overlap fraction of the shape: 0 for
// Rectangular, 0.5 for Hann and Hamming, 0.75 for Blackman.
func (t Type) Overlap() float64 {
	if !t.valid() {
		return 0
	}
	return shapes[t].overlap
}

// Rescale is the magnitude-preserving gain of the shape.
func (t Type) Rescale() float64 {
	if !t.valid() {
		return 1
	}
	return shapes[t].rescale
}

// ParseType maps a name ("hann", "Blackman", ...) to a Type.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t := range shapes {
		if shapes[t].name == name {
			return Type(t), nil
		}
	}
	if name == "rect" || name == "none" {
		return Rectangular, nil
	}
	return Rectangular, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Window is a fixed set of coefficients for one shape and size.
type Window struct {
	typ    Type
	coeffs []float32
	work   []float64
}

// New builds a window of the given type and size.
func New(t Type, size int) *Window {
	w := &Window{}
	w.Set(t, size)
	return w
}

// Set rebuilds the coefficients in place. Storage is reused when large
// enough. Unknown types fall back to Rectangular; negative sizes to 0.
func (w *Window) Set(t Type, size int) {
	if !t.valid() {
		t = Rectangular
	}
	size = max(size, 0)
	if w.typ == t && len(w.coeffs) == size && w.coeffs != nil {
		return
	}

	if cap(w.coeffs) < size {
		w.coeffs = make([]float32, size)
		w.work = make([]float64, size)
	}
	w.coeffs = w.coeffs[:size]
	w.work = w.work[:size]
	w.typ = t

	for i := range w.work {
		w.work[i] = 1
	}
	if apply := shapes[t].apply; apply != nil && size > 1 {
		apply(w.work)
	}
	for i, v := range w.work {
		w.coeffs[i] = float32(v)
	}
}

func (w *Window) Type() Type              { return w.typ }
func (w *Window) Size() int               { return len(w.coeffs) }
func (w *Window) Coefficients() []float32 { return w.coeffs }
func (w *Window) Overlap() float64        { return w.typ.Overlap() }
func (w *Window) Rescale() float64        { return w.typ.Rescale() }

// Apply multiplies dst by the coefficients over min(len(dst), Size())
// samples.
func (w *Window) Apply(dst []float32) {
	n := min(len(dst), len(w.coeffs))
	for i := range n {
		dst[i] *= w.coeffs[i]
	}
}

// HopSize returns round(chunkSize*(1-overlap)), never less than 1 and
// never more than chunkSize.
func HopSize(chunkSize int, overlap float64) int {
	if chunkSize <= 0 {
		return 0
	}
	hop := int(math.Round(float64(chunkSize) * (1 - overlap)))
	return min(max(hop, 1), chunkSize)
}

// fftAlign is the transform backend's length granularity.
const fftAlign = 32

// NextValidFFTSize returns the smallest n >= max(32, minSize) that is a
// multiple of 32 and has no prime factors other than 2, 3 and 5.
func NextValidFFTSize(minSize int) int {
	n := max(minSize, fftAlign)
	if r := n % fftAlign; r != 0 {
		n += fftAlign - r
	}
	for ; ; n += fftAlign {
		m := n
		for _, f := range [...]int{2, 3, 5} {
			for m%f == 0 {
				m /= f
			}
		}
		if m == 1 {
			return n
		}
	}
}
