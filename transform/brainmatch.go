// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/spectral"
	"github.com/ik5/audresynth/utils"
)

// maxFollowGain caps the level correction applied to matched chunks.
const maxFollowGain = 8

// brainMatch replaces each input chunk with the closest corpus chunk.
// The simple variant queries by frequency and level on the channel
// average; the expanded variant adds the harmonic features and can match
// every channel on its own.
type brainMatch struct {
	kind  Kind
	brain *brain.Brain
	an    *brain.Analyzer

	features []brain.Features
	harmonic []spectral.HarmonicVector
	queries  []brain.Query
	matches  []brain.Match

	follow      float64
	gate        float64
	independent bool
}

func newBrainMatch(k Kind, d Deps) (*brainMatch, error) {
	if d.Brain == nil {
		return nil, ErrNeedsBrain
	}

	chunkSize := d.ChunkSize
	if chunkSize <= 0 {
		chunkSize = d.Brain.ChunkSize()
	}

	return &brainMatch{
		kind:   k,
		brain:  d.Brain,
		an:     brain.NewAnalyzer(d.Brain.SampleRate(), chunkSize, d.Brain.Window()),
		follow: 1,
		gate:   0.0005,
	}, nil
}

func newSimpleBrainMatch(d Deps) (Transformer, error) {
	m, err := newBrainMatch(SimpleBrainMatch, d)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newExpandedBrainMatch(d Deps) (Transformer, error) {
	m, err := newBrainMatch(ExpandedBrainMatch, d)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *brainMatch) Kind() Kind             { return m.kind }
func (m *brainMatch) AdditionalLatency() int { return 0 }
func (m *brainMatch) Reset()                 {}

func (m *brainMatch) SetParam(id string, v float64) error {
	specs := simpleParams
	if m.kind == ExpandedBrainMatch {
		specs = expandedParams
	}

	return setParam(specs, id, v, func(id string, v float64) {
		switch id {
		case ParamRMSFollow:
			m.follow = v
		case ParamGate:
			m.gate = v
		case ParamChannelMode:
			m.independent = v >= 0.5
		}
	})
}

// gain moves the matched level towards the input level by follow.
func (m *brainMatch) gain(in, matched float32) float32 {
	if matched <= 1e-9 {
		return 1
	}
	g := 1 + m.follow*(float64(in)/float64(matched)-1)
	return float32(utils.Clamp64(g, 0, maxFollowGain))
}

func (m *brainMatch) prepare(channels int) {
	if len(m.features) == channels {
		return
	}
	m.features = make([]brain.Features, channels)
	m.harmonic = make([]spectral.HarmonicVector, channels+1)
	m.queries = make([]brain.Query, channels)
	m.matches = make([]brain.Match, channels)
}

func (m *brainMatch) Transform(in, out *audio.Chunk) int {
	n := min(in.ValidFrames, out.Frames())
	silence(out)
	if in.Channels() == 0 || n <= 0 {
		return 0
	}

	m.prepare(in.Channels())
	avg := m.an.Analyze(in, m.features)
	if float64(avg.RMS) < m.gate {
		return n
	}

	if m.kind == ExpandedBrainMatch && m.independent {
		m.matchChannels(out, n)
		return n
	}

	q := brain.Query{Frequency: avg.Dominant, RMS: avg.RMS}
	if m.kind == ExpandedBrainMatch {
		last := len(m.harmonic) - 1
		m.harmonic[last] = avg.Harmonic
		q.Harmonic = &m.harmonic[last]
	}

	match, ok := m.brain.MatchAverage(q)
	if !ok {
		return n
	}

	src := match.Chunk.Samples
	g := m.gain(avg.RMS, match.Chunk.Average.RMS)
	for ch, dst := range out.Samples {
		copyScaled(dst, src[ch%len(src)], g, n)
	}

	return n
}

func (m *brainMatch) matchChannels(out *audio.Chunk, n int) {
	for ch, f := range m.features {
		m.harmonic[ch] = f.Harmonic
		m.queries[ch] = brain.Query{Frequency: f.Dominant, RMS: f.RMS, Harmonic: &m.harmonic[ch]}
	}

	k := m.brain.MatchChannels(m.queries, m.matches)
	if k == 0 {
		return
	}

	for ch, dst := range out.Samples {
		i := min(ch, k-1)
		match := m.matches[i]
		if match.Chunk == nil {
			continue
		}
		g := m.gain(m.features[i].RMS, match.Chunk.PerChannel[match.Channel].RMS)
		copyScaled(dst, match.Chunk.Samples[match.Channel], g, n)
	}
}
