// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audresynth/utils"
)

// Resampler streams src at a new sample rate using Catmull-Rom cubic
// interpolation. Works on interleaved samples and preserves channel count.
// A one-pole low-pass is applied to the source when downsampling.
// When the rates match, samples pass through untouched.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames advanced per output frame
	channels int

	// hist holds four consecutive source frames, oldest first:
	// t-1, t0, t+1, t+2. Interpolation runs between t0 and t+1.
	hist   []float32
	primed bool
	frac   float64

	block    []float32
	blockLen int
	blockPos int
	srcDone  bool
	tailLeft int // frames of edge padding still to feed after EOF

	lowpass  bool
	lpSeeded bool
	lpState  []float32
}

const (
	resamplerBlockFrames = 1024
	lowpassAlpha         = 0.5
	maxIdleReads         = 8
)

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()

	return &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     float64(src.SampleRate()) / float64(dstRate),
		channels: channels,
		hist:     make([]float32, 4*channels),
		block:    make([]float32, resamplerBlockFrames*channels),
		lowpass:  src.SampleRate() > dstRate,
		lpState:  make([]float32, channels),
		tailLeft: 2,
	}
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// pull copies the next source frame into dst. At end of stream it repeats
// the last frame twice so the final real frame can still be interpolated.
func (r *Resampler) pull(dst []float32, last []float32) (bool, error) {
	for idle := 0; r.blockPos >= r.blockLen && !r.srcDone; idle++ {
		n, err := r.src.ReadSamples(r.block)
		r.blockLen = n - n%r.channels
		r.blockPos = 0
		if err == io.EOF || (n == 0 && idle >= maxIdleReads) {
			r.srcDone = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}
	}

	if r.blockPos < r.blockLen {
		copy(dst, r.block[r.blockPos:r.blockPos+r.channels])
		r.blockPos += r.channels
		if r.lowpass {
			if !r.lpSeeded {
				// start the filter from the first sample to avoid a fade-in
				copy(r.lpState, dst)
				r.lpSeeded = true
			}
			for c := range r.channels {
				dst[c] = lowpassAlpha*dst[c] + (1-lowpassAlpha)*r.lpState[c]
				r.lpState[c] = dst[c]
			}
		}
		return true, nil
	}

	if r.tailLeft > 0 && last != nil {
		r.tailLeft--
		copy(dst, last)
		return true, nil
	}

	return false, io.EOF
}

func (r *Resampler) frame(i int) []float32 {
	return r.hist[i*r.channels : (i+1)*r.channels]
}

func (r *Resampler) advance() error {
	copy(r.hist, r.hist[r.channels:])
	ok, err := r.pull(r.frame(3), r.frame(2))
	if !ok {
		return err
	}
	return nil
}

func (r *Resampler) prime() error {
	ok, err := r.pull(r.frame(1), nil)
	if !ok {
		if err == nil {
			err = io.EOF
		}
		return err
	}
	copy(r.frame(0), r.frame(1))
	for i := 2; i < 4; i++ {
		if ok, err := r.pull(r.frame(i), r.frame(i-1)); !ok {
			return err
		}
	}
	r.primed = true

	return nil
}

// ReadSamples produces interleaved samples at the destination rate.
// len(dst) must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.step == 1 {
		return r.src.ReadSamples(dst)
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	written := 0
	for written < frames {
		for r.frac >= 1 {
			r.frac--
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		x := float32(r.frac)
		y0, y1, y2, y3 := r.frame(0), r.frame(1), r.frame(2), r.frame(3)
		utils.CubicFrame(dst[written*r.channels:(written+1)*r.channels], y0, y1, y2, y3, x)

		written++
		r.frac += r.step
	}

	return written * r.channels, nil
}
