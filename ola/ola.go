// SPDX-License-Identifier: EPL-2.0

package ola

import "github.com/ik5/audresynth/audio"

// accumulatorChunks is the accumulator length in chunks.
const accumulatorChunks = 3

// Synthesizer is an overlap-add accumulator.
type Synthesizer struct {
	acc       [][]float32
	channels  int
	chunkSize int
	valid     int
	rescale   float64
}

// New returns a configured synthesizer.
func New(channels, chunkSize int) *Synthesizer {
	s := &Synthesizer{rescale: 1}
	s.Configure(channels, chunkSize)
	return s
}

// Configure sizes the accumulator and clears it. The normalization
// constant is kept.
func (s *Synthesizer) Configure(channels, chunkSize int) {
	channels = max(channels, 0)
	chunkSize = max(chunkSize, 0)
	if s.rescale == 0 {
		s.rescale = 1
	}

	if channels != s.channels || chunkSize != s.chunkSize || len(s.acc) != channels {
		s.acc = make([][]float32, channels)
		for ch := range s.acc {
			s.acc[ch] = make([]float32, accumulatorChunks*chunkSize)
		}
		s.channels = channels
		s.chunkSize = chunkSize
	}
	s.Reset()
}

// Reset drops everything accumulated.
func (s *Synthesizer) Reset() {
	for _, a := range s.acc {
		clear(a)
	}
	s.valid = 0
}

func (s *Synthesizer) Channels() int  { return s.channels }
func (s *Synthesizer) ChunkSize() int { return s.chunkSize }

// Pending is the number of accumulated frames not yet rendered.
func (s *Synthesizer) Pending() int { return s.valid }

// Normalization is the constant applied to every rendered sample.
func (s *Synthesizer) Normalization() float64 { return s.rescale }

// SetNormalization derives the output constant for coeffs at the given
// hop. A nil coeffs means a rectangular window.
func (s *Synthesizer) SetNormalization(coeffs []float32, hop int) {
	s.rescale = NormalizationFor(coeffs, s.chunkSize, hop)
}

// NormalizationFor returns the inverse of the average, over one chunk of
// output positions, of the sum of window coefficients contributed by
// frames spaced hop apart. Coefficients past len(coeffs) count as zero; a
// nil slice counts as all ones. Degenerate inputs yield 1.
func NormalizationFor(coeffs []float32, chunkSize, hop int) float64 {
	if chunkSize <= 0 || hop <= 0 {
		return 1
	}

	coeff := func(k int) float64 {
		if coeffs == nil {
			return 1
		}
		if k < len(coeffs) {
			return float64(coeffs[k])
		}
		return 0
	}

	// Every output position i sees coefficient k for each k congruent to i
	// modulo hop, so the per-residue sums cover all positions.
	hop = min(hop, chunkSize)
	residue := make([]float64, hop)
	for k := range chunkSize {
		residue[k%hop] += coeff(k)
	}

	var total float64
	for i := range chunkSize {
		total += residue[i%hop]
	}

	avg := total / float64(chunkSize)
	if avg < 1e-12 {
		return 1
	}
	return 1 / avg
}

// AddChunk overlap-adds the valid frames of chunk, each multiplied by its
// window coefficient (or 1 when coeffs is nil) and by gain. The chunk is
// placed hop frames after the previous one.
func (s *Synthesizer) AddChunk(chunk *audio.Chunk, coeffs []float32, gain float32, hop int) {
	if chunk == nil || s.channels == 0 {
		return
	}
	frames := min(chunk.ValidFrames, chunk.Frames())
	if frames <= 0 {
		return
	}

	offset := max(0, s.valid-(s.chunkSize-hop))
	s.grow(offset + frames)

	for ch := range min(s.channels, chunk.Channels()) {
		dst := s.acc[ch][offset : offset+frames]
		src := chunk.Samples[ch][:frames]
		if coeffs == nil {
			for i, v := range src {
				dst[i] += v * gain
			}
			continue
		}
		for i, v := range src {
			var w float32
			if i < len(coeffs) {
				w = coeffs[i]
			}
			dst[i] += v * w * gain
		}
	}

	s.valid = max(s.valid, offset+frames)
}

func (s *Synthesizer) grow(n int) {
	for ch, a := range s.acc {
		if len(a) >= n {
			continue
		}
		grown := make([]float32, max(n, 2*len(a)))
		copy(grown, a)
		s.acc[ch] = grown
	}
}

// RenderOutput copies min(frames, Pending(), budget) rescaled frames into
// dst, one slice per channel, and returns that count. Channels of dst past
// the synthesizer's count are zeroed over the rendered range. The rendered
// frames are removed from the accumulator.
func (s *Synthesizer) RenderOutput(dst [][]float32, frames, budget int) int {
	n := min(frames, s.valid, budget)
	for _, d := range dst {
		n = min(n, len(d))
	}
	if n <= 0 {
		return 0
	}

	scale := float32(s.rescale)
	for ch, d := range dst {
		if ch >= s.channels {
			clear(d[:n])
			continue
		}
		for i, v := range s.acc[ch][:n] {
			d[i] = v * scale
		}
	}

	for _, a := range s.acc {
		copy(a, a[n:s.valid])
		clear(a[s.valid-n : s.valid])
	}
	s.valid -= n

	return n
}
