// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
	"testing"

	"github.com/ik5/audresynth/window"
)

func TestChunk_ResizeReusesStorage(t *testing.T) {
	t.Parallel()

	c := NewChunk(2, 64)
	first := &c.Samples[0][0]

	c.Samples[0][3] = 1
	c.ValidFrames = 10
	c.Resize(2, 32)

	if c.Frames() != 32 || c.Channels() != 2 {
		t.Fatalf("shape = %dx%d, want 2x32", c.Channels(), c.Frames())
	}
	if &c.Samples[0][0] != first {
		t.Error("Resize() reallocated when shrinking")
	}
	if c.Samples[0][3] != 0 || c.ValidFrames != 0 {
		t.Error("Resize() did not clear content")
	}
}

func TestChunk_ComputeRMS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		fill  func(c *Chunk)
		valid int
		want  float64
	}{
		{
			name:  "silence",
			fill:  func(c *Chunk) {},
			valid: 8,
			want:  0,
		},
		{
			name: "full scale square",
			fill: func(c *Chunk) {
				for ch := range c.Samples {
					for i := range c.Samples[ch] {
						c.Samples[ch][i] = float32(1 - 2*(i%2))
					}
				}
			},
			valid: 8,
			want:  1,
		},
		{
			name: "only valid frames count",
			fill: func(c *Chunk) {
				for ch := range c.Samples {
					c.Samples[ch][0] = 1
					c.Samples[ch][7] = 100
				}
			},
			valid: 4,
			want:  0.5,
		},
		{
			name:  "no valid frames",
			fill:  func(c *Chunk) { c.Samples[0][0] = 1 },
			valid: 0,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewChunk(2, 8)
			tt.fill(c)
			c.ValidFrames = tt.valid

			got := c.ComputeRMS()
			if math.Abs(float64(got)-tt.want) > 1e-6 {
				t.Errorf("ComputeRMS() = %v, want %v", got, tt.want)
			}
			if c.RMS != got {
				t.Errorf("RMS field = %v, want %v", c.RMS, got)
			}
		})
	}
}

func TestChunk_ChannelRMS(t *testing.T) {
	t.Parallel()

	c := NewChunk(2, 4)
	for i := range 4 {
		c.Samples[1][i] = 0.5
	}
	c.ValidFrames = 4

	if got := c.ChannelRMS(0); got != 0 {
		t.Errorf("ChannelRMS(0) = %v, want 0", got)
	}
	if got := c.ChannelRMS(1); got != 0.5 {
		t.Errorf("ChannelRMS(1) = %v, want 0.5", got)
	}
	if got := c.ChannelRMS(5); got != 0 {
		t.Errorf("ChannelRMS(5) = %v, want 0", got)
	}
}

func TestChunk_CopyFrom(t *testing.T) {
	t.Parallel()

	src := NewChunk(2, 4)
	src.Samples[0][1] = 0.25
	src.Samples[1][3] = -0.5
	src.ValidFrames = 4
	src.StartSample = 1234
	src.HasStart = true
	src.ResizeSpectrum(32)
	src.Spectrum[1][5] = 7
	src.FFTSize = 32

	dst := NewChunk(2, 4)
	dst.CopyFrom(src)

	if dst.Samples[0][1] != 0.25 || dst.Samples[1][3] != -0.5 {
		t.Error("CopyFrom() did not copy samples")
	}
	if dst.StartSample != 1234 || !dst.HasStart || dst.ValidFrames != 4 {
		t.Error("CopyFrom() did not copy metadata")
	}
	if !dst.HasSpectrum() || dst.Spectrum[1][5] != 7 {
		t.Error("CopyFrom() did not copy spectrum")
	}

	src.Spectrum[1][5] = 9
	if dst.Spectrum[1][5] != 7 {
		t.Error("CopyFrom() aliased the spectrum")
	}
}

func TestChunk_SpectrumInvalidation(t *testing.T) {
	t.Parallel()

	c := NewChunk(1, 16)
	if c.HasSpectrum() {
		t.Fatal("new chunk reports a spectrum")
	}

	c.ResizeSpectrum(32)
	c.FFTSize = 32
	if !c.HasSpectrum() {
		t.Fatal("HasSpectrum() = false after populating")
	}

	c.Clear()
	if c.HasSpectrum() {
		t.Error("Clear() kept the spectrum valid")
	}
	if len(c.Spectrum[0]) != 32 {
		t.Error("Clear() dropped spectrum storage")
	}
}

func TestChunk_SpectrumWith(t *testing.T) {
	t.Parallel()

	src := NewChunk(1, 64)
	if src.SpectrumWith(window.Rectangular, 0) {
		t.Error("empty chunk reports a spectrum")
	}

	src.ResizeSpectrum(64)
	src.FFTSize = 64
	src.Window, src.WindowSize = window.Hann, 64

	dst := NewChunk(1, 64)
	dst.CopyFrom(src)

	if !dst.SpectrumWith(window.Hann, 64) {
		t.Error("copied spectrum lost its window")
	}
	if dst.SpectrumWith(window.Hann, 32) || dst.SpectrumWith(window.Hamming, 64) {
		t.Error("SpectrumWith matched a different window")
	}

	dst.InvalidateSpectrum()
	if dst.SpectrumWith(window.Hann, 64) {
		t.Error("invalidated spectrum still matches")
	}
}
