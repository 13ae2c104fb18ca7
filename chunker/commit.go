// SPDX-License-Identifier: EPL-2.0

package chunker

import (
	"math"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/spectral"
	"github.com/ik5/audresynth/utils"
	"github.com/ik5/audresynth/window"
)

// PopPendingInputChunkIndex takes the oldest chunk waiting for a
// transformer, or returns pool.NoSlot. The caller now holds the pending
// queue's reference and must end it with CommitOutputChunk or
// DiscardChunk.
func (c *Chunker) PopPendingInputChunkIndex() int {
	return c.pool.Pending().Pop()
}

// InputChunk is the read-only input of a held slot, or nil.
func (c *Chunker) InputChunk(slot int) *audio.Chunk {
	if c.pool.RefCount(slot) <= 0 {
		return nil
	}
	return c.pool.Input(slot)
}

// OutputChunk is the writable output of a held slot, or nil. It starts
// silent with no spectrum; a transformer may fill Spectrum and FFTSize to
// skip the forward transform of the spectral pass.
func (c *Chunker) OutputChunk(slot int) *audio.Chunk {
	if c.pool.RefCount(slot) <= 0 {
		return nil
	}
	return c.pool.Output(slot)
}

// DiscardChunk gives up a popped slot without producing output.
func (c *Chunker) DiscardChunk(slot int) bool {
	return c.pool.Release(slot)
}

// CommitOutputChunk finishes a popped slot whose output holds validFrames
// frames: spectral pass, RMS, gain compensation, then overlap-add or
// queueing for playback. The caller's reference ends here. It returns
// false for a slot the caller does not hold or an empty output.
func (c *Chunker) CommitOutputChunk(slot, validFrames int) bool {
	if c.pool.RefCount(slot) <= 0 {
		return false
	}
	in, out := c.pool.Input(slot), c.pool.Output(slot)

	out.ValidFrames = min(max(validFrames, 0), out.Frames())
	if out.ValidFrames == 0 {
		c.pool.Release(slot)
		return false
	}
	out.StartSample, out.HasStart = in.StartSample, in.HasStart

	if c.spectralActive() {
		c.spectralPass(in, out)
	}
	out.ComputeRMS()
	c.gains[slot] = c.compensation(in, out)

	if c.olaMode {
		var coeffs []float32
		if !c.spectralActive() {
			coeffs = c.output.Coefficients()
		}
		c.synth.AddChunk(out, coeffs, c.commitGain(slot), c.hop)
		c.pool.Release(slot)
		return true
	}

	if !c.pool.Ready().Push(slot) {
		c.stats.DroppedReady++
		c.pool.Release(slot)
	}
	return true
}

// forwardWindow is the analysis window when chunks are overlap-added and
// rectangular otherwise, so sequential playback is not modulated.
func (c *Chunker) forwardWindow() *window.Window {
	if c.olaMode {
		return c.analysis
	}
	return nil
}

func (c *Chunker) spectralPass(in, out *audio.Chunk) {
	win := c.forwardWindow()
	if !in.HasSpectrum() {
		c.fft.Forward(in, win)
	}
	if !out.HasSpectrum() || out.FFTSize != in.FFTSize {
		c.fft.Forward(out, win)
	}

	c.morpher.Apply(c.morphType, out.Spectrum, in.Spectrum, out.Spectrum, out.FFTSize, c.morphParams)
	c.fft.Inverse(out)
	spectral.Polish(out, max(1, c.chunkSize/polishDivisor))
}

// compensation is the gain that brings the output level back to the
// input level. Both levels are taken in the same domain: the windowed
// spectrum-equivalent RMS in spectral mode, the plain RMS otherwise, so
// the overlap-add normalization applies equally to both.
func (c *Chunker) compensation(in, out *audio.Chunk) float32 {
	level := float64(in.RMS)
	if c.spectralActive() && in.HasSpectrum() {
		var sum float64
		for _, spec := range in.Spectrum {
			r := spectral.EquivalentRMS(spec, in.FFTSize, in.Frames())
			sum += r * r
		}
		level = math.Sqrt(sum / float64(len(in.Spectrum)))
	}

	if float64(out.RMS) < silenceRMS {
		return 1
	}
	return float32(utils.Clamp64(level/float64(out.RMS), 0, float64(c.maxGain)))
}

func (c *Chunker) commitGain(slot int) float32 {
	if !c.agc {
		return 1
	}
	return c.gains[slot]
}
