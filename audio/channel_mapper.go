// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMapper adapts a Source to a fixed output channel count.
//
// Mono input is duplicated to every output channel, multi-channel input is
// averaged when the output is mono, and any other combination maps output
// channel c to source channel c modulo the source channel count.
type ChannelMapper struct {
	src Source
	out int
	tmp []float32
}

func NewChannelMapper(src Source, channels int) *ChannelMapper {
	return &ChannelMapper{
		src: src,
		out: channels,
		tmp: make([]float32, 4096),
	}
}

// NewMonoMixer is a ChannelMapper that averages down to one channel.
func NewMonoMixer(src Source) *ChannelMapper {
	return NewChannelMapper(src, 1)
}

func (m *ChannelMapper) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMapper) Channels() int   { return m.out }
func (m *ChannelMapper) BufSize() int    { return m.src.BufSize() }

func (m *ChannelMapper) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *ChannelMapper) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.out != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	in := m.src.Channels()
	if in == m.out {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.out
	need := frames * in
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	got := n / in

	switch {
	case m.out == 1:
		inv := 1 / float32(in)
		for f := range got {
			var sum float32
			for _, v := range m.tmp[f*in : (f+1)*in] {
				sum += v
			}
			dst[f] = sum * inv
		}
	case in == 1:
		for f := range got {
			v := m.tmp[f]
			for c := range m.out {
				dst[f*m.out+c] = v
			}
		}
	default:
		for f := range got {
			for c := range m.out {
				dst[f*m.out+c] = m.tmp[f*in+c%in]
			}
		}
	}

	return got * m.out, err
}
