// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// ReadPlanar drains src into one slice per channel after converting it to
// targetRate and the requested channel count. bufSize is the interleaved
// read size used per call; values below 256 are raised to 256.
//
// The source is not closed.
func ReadPlanar(src Source, targetRate, channels, bufSize int) ([][]float32, error) {
	if targetRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidRate
	}
	if channels <= 0 || src.Channels() <= 0 {
		return nil, ErrInvalidChannels
	}

	var stream Source = src
	if src.SampleRate() != targetRate {
		stream = NewResampler(stream, targetRate)
	}
	if stream.Channels() != channels {
		stream = NewChannelMapper(stream, channels)
	}

	bufSize = max(bufSize, 256)
	bufSize -= bufSize % channels
	buf := make([]float32, bufSize)

	// ~2 seconds up front, grown by append
	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, 0, targetRate*2)
	}

	for idle := 0; idle < maxIdleReads; {
		n, err := stream.ReadSamples(buf)
		if n == 0 && err == nil {
			idle++
			continue
		}
		idle = 0

		frames := n / channels
		for f := range frames {
			for c := range channels {
				planar[c] = append(planar[c], buf[f*channels+c])
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	if len(planar[0]) == 0 {
		return nil, ErrEmptySource
	}

	return planar, nil
}

// PlanarSource serves planar slices through the Source interface so that
// in-memory audio can be resampled and remapped like decoded files.
type PlanarSource struct {
	planar     [][]float32
	sampleRate int
	pos        int
	frames     int
}

// NewPlanarSource wraps planar audio at sampleRate. Channels shorter than
// the first are read as silence past their end. The slices are not copied.
func NewPlanarSource(planar [][]float32, sampleRate int) *PlanarSource {
	frames := 0
	if len(planar) > 0 {
		frames = len(planar[0])
	}

	return &PlanarSource{planar: planar, sampleRate: sampleRate, frames: frames}
}

func (p *PlanarSource) SampleRate() int { return p.sampleRate }
func (p *PlanarSource) Channels() int   { return len(p.planar) }
func (p *PlanarSource) BufSize() int    { return 4096 }
func (p *PlanarSource) Close() error    { return nil }

func (p *PlanarSource) ReadSamples(dst []float32) (int, error) {
	channels := len(p.planar)
	if channels == 0 || p.pos >= p.frames {
		return 0, io.EOF
	}
	if len(dst) < channels {
		return 0, ErrInvalidDstSize
	}

	n := min(len(dst)/channels, p.frames-p.pos)
	for f := range n {
		for c, ch := range p.planar {
			var v float32
			if i := p.pos + f; i < len(ch) {
				v = ch[i]
			}
			dst[f*channels+c] = v
		}
	}
	p.pos += n

	if p.pos >= p.frames {
		return n * channels, io.EOF
	}

	return n * channels, nil
}
