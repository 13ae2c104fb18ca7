// SPDX-License-Identifier: EPL-2.0

package transform

import "github.com/ik5/audresynth/audio"

type passthrough struct {
	gain float32
}

func newPassthrough(Deps) (Transformer, error) {
	return &passthrough{gain: 1}, nil
}

func (p *passthrough) Kind() Kind             { return Passthrough }
func (p *passthrough) AdditionalLatency() int { return 0 }
func (p *passthrough) Reset()                 {}

func (p *passthrough) SetParam(id string, v float64) error {
	return setParam(passthroughParams, id, v, func(_ string, v float64) {
		p.gain = float32(v)
	})
}

func (p *passthrough) Transform(in, out *audio.Chunk) int {
	for ch := range out.Samples {
		if ch >= len(in.Samples) {
			clear(out.Samples[ch])
			continue
		}
		copyScaled(out.Samples[ch], in.Samples[ch], p.gain, in.ValidFrames)
	}
	return in.ValidFrames
}
