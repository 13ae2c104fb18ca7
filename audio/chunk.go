// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"

	"github.com/ik5/audresynth/window"
)

// Chunk is a fixed-size block of planar audio: one sample slice per
// channel, all of the same length. Only the first ValidFrames frames carry
// signal. A chunk may also carry its ordered spectrum (see package
// spectral for the layout).
//
// Chunks owned by a pool are overwritten in place each time their slot is
// reused; they are never allocated on the audio path.
type Chunk struct {
	Samples     [][]float32
	ValidFrames int
	RMS         float32

	StartSample int64
	HasStart    bool

	Spectrum [][]float32
	FFTSize  int

	// Window and WindowSize describe the analysis window Spectrum was
	// taken with.
	Window     window.Type
	WindowSize int
}

// NewChunk allocates a silent chunk.
func NewChunk(channels, frames int) *Chunk {
	c := &Chunk{}
	c.Resize(channels, frames)
	return c
}

func (c *Chunk) Channels() int { return len(c.Samples) }

// Frames is the buffer length, not the valid frame count.
func (c *Chunk) Frames() int {
	if len(c.Samples) == 0 {
		return 0
	}
	return len(c.Samples[0])
}

// Resize sets the shape of the chunk, reusing existing capacity. The
// content is cleared.
func (c *Chunk) Resize(channels, frames int) {
	if cap(c.Samples) < channels {
		grown := make([][]float32, channels)
		copy(grown, c.Samples)
		c.Samples = grown
	}
	c.Samples = c.Samples[:channels]
	for ch := range c.Samples {
		if cap(c.Samples[ch]) < frames {
			c.Samples[ch] = make([]float32, frames)
		}
		c.Samples[ch] = c.Samples[ch][:frames]
	}
	c.Clear()
}

// Clear zeroes samples and resets the metadata, keeping storage.
func (c *Chunk) Clear() {
	for _, s := range c.Samples {
		clear(s)
	}
	c.ValidFrames = 0
	c.RMS = 0
	c.StartSample = 0
	c.HasStart = false
	c.InvalidateSpectrum()
}

// ResizeSpectrum prepares storage for a spectrum of the given transform
// size on every channel.
func (c *Chunk) ResizeSpectrum(size int) {
	if cap(c.Spectrum) < len(c.Samples) {
		grown := make([][]float32, len(c.Samples))
		copy(grown, c.Spectrum)
		c.Spectrum = grown
	}
	c.Spectrum = c.Spectrum[:len(c.Samples)]
	for ch := range c.Spectrum {
		if cap(c.Spectrum[ch]) < size {
			c.Spectrum[ch] = make([]float32, size)
		}
		c.Spectrum[ch] = c.Spectrum[ch][:size]
	}
}

// HasSpectrum reports whether Spectrum is populated for the current
// content.
func (c *Chunk) HasSpectrum() bool {
	return c.FFTSize > 0 && len(c.Spectrum) == len(c.Samples)
}

// SpectrumWith reports whether Spectrum is populated and was taken with a
// window of type t and size frames.
func (c *Chunk) SpectrumWith(t window.Type, size int) bool {
	return c.HasSpectrum() && c.Window == t && c.WindowSize == size
}

// InvalidateSpectrum marks the spectrum stale without freeing it.
func (c *Chunk) InvalidateSpectrum() {
	c.FFTSize = 0
}

// CopyFrom copies samples, metadata and spectrum from src. Both chunks must
// already have compatible shapes; extra frames in c are zeroed.
func (c *Chunk) CopyFrom(src *Chunk) {
	for ch := range c.Samples {
		if ch >= len(src.Samples) {
			clear(c.Samples[ch])
			continue
		}
		n := copy(c.Samples[ch], src.Samples[ch])
		clear(c.Samples[ch][n:])
	}
	c.ValidFrames = min(src.ValidFrames, c.Frames())
	c.RMS = src.RMS
	c.StartSample = src.StartSample
	c.HasStart = src.HasStart

	c.InvalidateSpectrum()
	if src.HasSpectrum() && len(src.Spectrum) == len(c.Samples) {
		c.ResizeSpectrum(src.FFTSize)
		for ch := range c.Spectrum {
			copy(c.Spectrum[ch], src.Spectrum[ch])
		}
		c.FFTSize = src.FFTSize
		c.Window = src.Window
		c.WindowSize = src.WindowSize
	}
}

// ComputeRMS updates RMS over all channels and valid frames and returns it.
func (c *Chunk) ComputeRMS() float32 {
	n := min(c.ValidFrames, c.Frames())
	if n <= 0 || len(c.Samples) == 0 {
		c.RMS = 0
		return 0
	}

	var sum float64
	for _, s := range c.Samples {
		for _, v := range s[:n] {
			sum += float64(v) * float64(v)
		}
	}
	c.RMS = float32(math.Sqrt(sum / float64(n*len(c.Samples))))

	return c.RMS
}

// ChannelRMS is the RMS of one channel's valid frames.
func (c *Chunk) ChannelRMS(ch int) float32 {
	n := min(c.ValidFrames, c.Frames())
	if ch < 0 || ch >= len(c.Samples) || n <= 0 {
		return 0
	}

	var sum float64
	for _, v := range c.Samples[ch][:n] {
		sum += float64(v) * float64(v)
	}

	return float32(math.Sqrt(sum / float64(n)))
}
