// SPDX-License-Identifier: EPL-2.0

package chunker

import (
	"fmt"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/morph"
	"github.com/ik5/audresynth/ola"
	"github.com/ik5/audresynth/pool"
	"github.com/ik5/audresynth/spectral"
	"github.com/ik5/audresynth/window"
)

const (
	// Headroom is the number of pool slots beyond the lookahead window.
	Headroom = 8

	// DefaultMaxGain caps automatic gain compensation.
	DefaultMaxGain = 4

	// polishDivisor sets the edge taper to chunkSize/polishDivisor.
	polishDivisor = 32

	silenceRMS = 1e-9
)

// Stats counts the degradation events of the stream.
type Stats struct {
	Chunks         int64 // chunks emitted into the pool
	ShedHops       int64 // hops dropped because the pool was exhausted
	DroppedPending int64 // pending chunks evicted before a transformer took them
	DroppedReady   int64 // committed chunks lost because the ready ring was full
	Underruns      int64 // renders that produced fewer frames than asked after priming
}

// Chunker is the stream orchestrator.
type Chunker struct {
	pool    *pool.Pool
	synth   *ola.Synthesizer
	fft     *spectral.Processor
	morpher *morph.Engine

	channels   int
	chunkSize  int
	windowSize int
	sampleRate int
	configured bool

	analysis *window.Window
	output   *window.Window

	overlap     bool
	spectral    bool
	morphType   morph.Type
	morphParams morph.Params
	agc         bool
	maxGain     float32
	extra       int

	hop     int
	olaMode bool
	olaWin  window.Type // shape the accumulator was filled with
	olaSize int

	scratch [][]float32
	fill    int
	gains   []float32

	playSlot int
	playPos  int

	render [][]float32
	view   [][]float32

	totalIn  int64
	totalOut int64
	stats    Stats
}

// New returns a chunker configured for the given dimensions, with Hann
// windows, overlap and spectral processing off, no morph and AGC off.
func New(channels, chunkSize, windowSize int) (*Chunker, error) {
	c := &Chunker{
		pool:        pool.New(),
		synth:       ola.New(0, 0),
		fft:         spectral.New(),
		morpher:     morph.New(),
		sampleRate:  48000,
		analysis:    window.New(window.Hann, 0),
		output:      window.New(window.Hann, 0),
		morphParams: morph.DefaultParams(),
		maxGain:     DefaultMaxGain,
		playSlot:    pool.NoSlot,
	}
	if err := c.Configure(channels, chunkSize, windowSize); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure sizes every buffer. Calling it with the current dimensions
// does nothing; any change resets the stream.
func (c *Chunker) Configure(channels, chunkSize, windowSize int) error {
	if channels <= 0 || chunkSize <= 0 || windowSize <= 0 {
		return fmt.Errorf("%w: channels=%d chunk=%d window=%d",
			ErrInvalidConfig, channels, chunkSize, windowSize)
	}
	if c.configured && channels == c.channels && chunkSize == c.chunkSize && windowSize == c.windowSize {
		return nil
	}

	if err := c.pool.Configure(channels, chunkSize, windowSize, Headroom); err != nil {
		return fmt.Errorf("configure pool: %w", err)
	}

	c.channels = channels
	c.chunkSize = chunkSize
	c.windowSize = windowSize

	c.scratch = planar(channels, chunkSize)
	c.render = planar(channels, chunkSize)
	c.view = make([][]float32, channels)
	c.gains = make([]float32, c.pool.Capacity())

	c.synth.Configure(channels, chunkSize)
	c.analysis.Set(c.analysis.Type(), chunkSize)
	c.output.Set(c.output.Type(), chunkSize)

	size := window.NextValidFFTSize(chunkSize)
	c.fft.Prepare(size)
	c.morpher.Prepare(size)

	c.configured = true
	c.updateHop()
	c.Reset()

	return nil
}

func planar(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	return out
}

func (c *Chunker) SetChunkSize(n int) error {
	return c.Configure(c.channels, n, c.windowSize)
}

func (c *Chunker) SetBufferWindowSize(n int) error {
	return c.Configure(c.channels, c.chunkSize, n)
}

func (c *Chunker) SetNumChannels(n int) error {
	return c.Configure(n, c.chunkSize, c.windowSize)
}

// SetSampleRate is forwarded to the morph operators.
func (c *Chunker) SetSampleRate(rate int) {
	if rate > 0 {
		c.sampleRate = rate
		c.morphParams.SampleRate = rate
	}
}

// SetWindows selects the analysis window (spectral pass) and the output
// window (overlap-add in the time domain).
func (c *Chunker) SetWindows(analysis, output window.Type) {
	c.analysis.Set(analysis, c.chunkSize)
	c.output.Set(output, c.chunkSize)
	c.updateHop()
}

// SetOverlap enables overlap-add at the window's canonical overlap.
func (c *Chunker) SetOverlap(enabled bool) {
	c.overlap = enabled
	c.updateHop()
}

// SetSpectral forces the spectral pass even without a morph.
func (c *Chunker) SetSpectral(enabled bool) {
	c.spectral = enabled
	c.updateHop()
}

// SetMorph selects the operator applied during commit.
func (c *Chunker) SetMorph(t morph.Type, p morph.Params) {
	c.morphType = t
	p.SampleRate = c.sampleRate
	c.morphParams = p
	c.updateHop()
}

// SetAGC enables gain compensation for subsequent commits and renders.
// maxGain <= 0 keeps the current cap.
func (c *Chunker) SetAGC(enabled bool, maxGain float32) {
	c.agc = enabled
	if maxGain > 0 {
		c.maxGain = maxGain
	}
}

// SetAdditionalLatency adds a transformer's declared latency to the
// render budget.
func (c *Chunker) SetAdditionalLatency(frames int) {
	c.extra = max(frames, 0)
}

func (c *Chunker) spectralActive() bool {
	return c.spectral || c.morphType != morph.None
}

// updateHop derives the hop and render path from the current settings.
// A change of either resets the stream.
func (c *Chunker) updateHop() {
	if !c.configured {
		return
	}

	relevant := c.output
	if c.spectralActive() {
		relevant = c.analysis
	}

	olaMode := c.overlap && relevant.Overlap() > 0
	hop := c.chunkSize
	if olaMode {
		hop = window.HopSize(c.chunkSize, relevant.Overlap())
		c.synth.SetNormalization(relevant.Coefficients(), hop)
	}

	// frames accumulated under another window would be rescaled with the
	// new constant
	reshaped := olaMode && (relevant.Type() != c.olaWin || relevant.Size() != c.olaSize)
	if olaMode {
		c.olaWin, c.olaSize = relevant.Type(), relevant.Size()
	}

	if hop != c.hop || olaMode != c.olaMode || reshaped {
		c.hop = hop
		c.olaMode = olaMode
		c.Reset()
	}
}

// Reset drops all queued audio and counters, keeping the configuration.
func (c *Chunker) Reset() {
	c.pool.Reset()
	c.synth.Reset()
	for _, s := range c.scratch {
		clear(s)
	}
	clear(c.gains)
	c.fill = 0
	c.playSlot = pool.NoSlot
	c.playPos = 0
	c.totalIn = 0
	c.totalOut = 0
	c.stats = Stats{}
}

func (c *Chunker) Channels() int      { return c.channels }
func (c *Chunker) ChunkSize() int     { return c.chunkSize }
func (c *Chunker) WindowSize() int    { return c.windowSize }
func (c *Chunker) SampleRate() int    { return c.sampleRate }
func (c *Chunker) HopSize() int       { return c.hop }
func (c *Chunker) OverlapAdd() bool   { return c.olaMode }
func (c *Chunker) TotalInput() int64  { return c.totalIn }
func (c *Chunker) TotalOutput() int64 { return c.totalOut }
func (c *Chunker) Stats() Stats       { return c.stats }

// Latency is the constant input to output delay in frames.
func (c *Chunker) Latency() int { return c.chunkSize + c.extra }

// WindowLen is the number of chunks in the lookahead window.
func (c *Chunker) WindowLen() int { return c.pool.Window().Len() }

// WindowChunk returns the i-th oldest input chunk of the lookahead window,
// or nil.
func (c *Chunker) WindowChunk(i int) *audio.Chunk {
	return c.pool.Input(c.pool.Window().At(i))
}
