// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"math"

	"github.com/ik5/audresynth/spectral"
)

// Query is what a transformer looks for. Harmonic is optional; without it
// only frequency and RMS are compared.
type Query struct {
	Frequency float32
	RMS       float32
	Harmonic  *spectral.HarmonicVector
}

// QueryFor builds a query from analysed features, using the dominant
// frequency as the frequency estimate.
func QueryFor(f Features, harmonic bool) Query {
	q := Query{Frequency: f.Dominant, RMS: f.RMS}
	if harmonic {
		h := f.Harmonic
		q.Harmonic = &h
	}
	return q
}

// Weights scale each distance term.
type Weights struct {
	Frequency float64
	RMS       float64
	Harmonic  [spectral.NumHarmonicFeatures]float64
}

// DefaultWeights weighs frequency and RMS at 1 and every harmonic feature
// at 0.5.
func DefaultWeights() Weights {
	w := Weights{Frequency: 1, RMS: 1}
	for i := range w.Harmonic {
		w.Harmonic[i] = 0.5
	}
	return w
}

// Distance is the weighted sum of per-feature differences, each clamped to
// [0, 1]. Frequencies, including the harmonic fundamental, are divided by
// nyquist first.
func Distance(q Query, f Features, nyquist float64, w Weights) float64 {
	if nyquist <= 0 {
		nyquist = 1
	}

	d := w.Frequency * unitDiff(float64(q.Frequency)/nyquist, float64(f.Dominant)/nyquist)
	d += w.RMS * unitDiff(float64(q.RMS), float64(f.RMS))

	if q.Harmonic != nil {
		for i, qv := range q.Harmonic {
			a, b := float64(qv), float64(f.Harmonic[i])
			if i == spectral.FeatFundamental {
				a, b = a/nyquist, b/nyquist
			}
			d += w.Harmonic[i] * unitDiff(a, b)
		}
	}

	return d
}

func unitDiff(a, b float64) float64 {
	return math.Min(1, math.Abs(a-b))
}

// Match is a matching result. Channel is -1 for average matches.
type Match struct {
	Index    int
	Chunk    *Chunk
	Channel  int
	Distance float64
}

// MatchAverage returns the corpus chunk whose averaged features are
// closest to q. Equal distances keep the lowest index. It reports false
// for an empty corpus or while the corpus is being swapped.
func (b *Brain) MatchAverage(q Query) (Match, bool) {
	if !b.mu.TryRLock() {
		return Match{}, false
	}
	defer b.mu.RUnlock()

	if len(b.chunks) == 0 {
		return Match{}, false
	}

	nyquist := float64(b.sampleRate) / 2
	best := Match{Index: -1, Channel: -1, Distance: math.Inf(1)}
	for i, c := range b.chunks {
		if d := Distance(q, c.Average, nyquist, b.weights); d < best.Distance {
			best = Match{Index: i, Chunk: c, Channel: -1, Distance: d}
		}
	}

	return best, best.Index >= 0
}

// MatchChannels matches every query independently against every channel
// of every chunk, so each output channel may pick a different chunk and
// source channel. Results go to dst; the return value is the number
// written, 0 when nothing could be matched. Ties keep the lowest chunk
// index, then the lowest channel.
func (b *Brain) MatchChannels(qs []Query, dst []Match) int {
	n := min(len(qs), len(dst))
	if n == 0 || !b.mu.TryRLock() {
		return 0
	}
	defer b.mu.RUnlock()

	if len(b.chunks) == 0 {
		return 0
	}

	for i := range n {
		dst[i] = Match{Index: -1, Channel: -1, Distance: math.Inf(1)}
	}

	nyquist := float64(b.sampleRate) / 2
	for idx, c := range b.chunks {
		for ch := range c.PerChannel {
			for i := range n {
				if d := Distance(qs[i], c.PerChannel[ch], nyquist, b.weights); d < dst[i].Distance {
					dst[i] = Match{Index: idx, Chunk: c, Channel: ch, Distance: d}
				}
			}
		}
	}

	return n
}
