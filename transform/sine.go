// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"fmt"
	"math"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/brain"
)

// sine replaces each channel with a sine at the channel's dominant
// frequency and the channel's level. Phase follows the absolute stream
// position so that overlapping chunks add coherently.
type sine struct {
	sampleRate int
	an         *brain.Analyzer
	features   []brain.Features
	phase      []float64 // used for chunks without a start position

	mix    float64
	octave int
}

func newSine(d Deps) (Transformer, error) {
	if d.SampleRate <= 0 || d.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: rate %d, chunk size %d", ErrInvalidDeps, d.SampleRate, d.ChunkSize)
	}

	return &sine{
		sampleRate: d.SampleRate,
		an:         brain.NewAnalyzer(d.SampleRate, d.ChunkSize, d.Window),
		mix:        1,
	}, nil
}

func (s *sine) Kind() Kind             { return SineMatch }
func (s *sine) AdditionalLatency() int { return 0 }

func (s *sine) Reset() {
	clear(s.phase)
}

func (s *sine) SetParam(id string, v float64) error {
	return setParam(sineParams, id, v, func(id string, v float64) {
		switch id {
		case ParamMix:
			s.mix = v
		case ParamOctave:
			s.octave = int(math.Round(v))
		}
	})
}

func (s *sine) Transform(in, out *audio.Chunk) int {
	n := min(in.ValidFrames, out.Frames())
	if in.Channels() == 0 || n <= 0 {
		silence(out)
		return 0
	}

	if len(s.features) != in.Channels() {
		s.features = make([]brain.Features, in.Channels())
		s.phase = make([]float64, in.Channels())
	}
	s.an.Analyze(in, s.features)

	ratio := math.Exp2(float64(s.octave))
	nyquist := float64(s.sampleRate) / 2
	wet, dry := float32(s.mix), float32(1-s.mix)

	for ch, dst := range out.Samples {
		src := min(ch, len(s.features)-1)
		f := s.features[src]

		freq := min(float64(f.Dominant)*ratio, nyquist)
		amp := float64(f.RMS) * math.Sqrt2
		step := 2 * math.Pi * freq / float64(s.sampleRate)

		phase := s.phase[src]
		if in.HasStart {
			phase = math.Mod(step*float64(in.StartSample), 2*math.Pi)
		}

		for i := range n {
			v := float32(amp * math.Sin(phase+step*float64(i)))
			dst[i] = wet*v + dry*in.Samples[src][i]
		}
		clear(dst[n:])

		if ch == src {
			s.phase[src] = math.Mod(phase+step*float64(n), 2*math.Pi)
		}
	}

	return n
}
