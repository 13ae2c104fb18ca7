// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic signals for tests: streaming
// sources that satisfy audio.Source and planar buffers for feeding the
// chunker and the brain directly.
package audiotest

import (
	"io"
	"math"
)

// Waveform produces the value of one sample for a frame and channel.
type Waveform func(frame int, channel int) float32

// MockSource is a test helper that generates audio data for testing.
// It implements the audio.Source interface (without importing it to avoid cycles).
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int
	generated   int
	waveform    Waveform
	closed      bool
}

// NewMockSource creates a source of totalFrames frames per channel.
func NewMockSource(sampleRate, channels, totalFrames int, waveform Waveform) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentSource creates a mock source that generates silence.
func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, Silence())
}

// NewSineSource creates a mock source with the same sine on every channel.
func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, Sine(sampleRate, frequency, 1))
}

// NewConstantSource creates a mock source with a DC value.
func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, Constant(value))
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalFrames-m.generated)
	for f := range frames {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += frames

	if m.generated >= m.totalFrames {
		return frames * m.channels, io.EOF
	}
	return frames * m.channels, nil
}

// Silence is all zeros.
func Silence() Waveform {
	return func(int, int) float32 { return 0 }
}

// Constant is a DC offset.
func Constant(v float32) Waveform {
	return func(int, int) float32 { return v }
}

// Sine is a sine of the given frequency and amplitude on every channel.
func Sine(sampleRate int, frequency, amplitude float64) Waveform {
	return func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
}

// Ramp counts up by step per frame, offset by channel*1000*step, which
// makes every sample position identifiable.
func Ramp(step float32) Waveform {
	return func(frame int, channel int) float32 {
		return float32(frame)*step + float32(channel)*1000*step
	}
}

// Noise is a deterministic xorshift noise in [-amplitude, amplitude].
func Noise(seed uint32, amplitude float32) Waveform {
	return func(frame int, channel int) float32 {
		x := seed ^ (uint32(frame)+1)*2654435761 ^ uint32(channel)*40503
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		return amplitude * (float32(x%20001)/10000 - 1)
	}
}

// Planar renders a waveform into one slice per channel.
func Planar(channels, frames int, w Waveform) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
		for f := range frames {
			out[ch][f] = w(f, ch)
		}
	}
	return out
}

// Interleave converts planar buffers to one interleaved slice.
func Interleave(planar [][]float32) []float32 {
	if len(planar) == 0 {
		return nil
	}
	frames := len(planar[0])
	out := make([]float32, frames*len(planar))
	for ch, s := range planar {
		for f, v := range s {
			out[f*len(planar)+ch] = v
		}
	}
	return out
}
