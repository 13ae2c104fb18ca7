// SPDX-License-Identifier: EPL-2.0

package audresynth

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/chunker"
	"github.com/ik5/audresynth/config"
	"github.com/ik5/audresynth/internal/logging"
	"github.com/ik5/audresynth/pool"
	"github.com/ik5/audresynth/transform"
)

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithBrain shares an existing corpus. Its sample rate and channel count
// must match the configuration; its chunk size is changed to the
// engine's.
func WithBrain(b *brain.Brain) Option {
	return func(e *Engine) { e.brain = b }
}

// Engine ties a chunker, a transformer and a corpus together.
type Engine struct {
	cfg      config.Config
	log      *log.Logger
	chunker  *chunker.Chunker
	brain    *brain.Brain
	ownBrain bool
	tr       transform.Transformer

	// offset views into the caller's buffers for Process
	inView  [][]float32
	outView [][]float32
}

// New validates cfg and builds an engine. Without WithBrain it creates an
// empty corpus matching cfg.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}

	if e.brain == nil {
		b, err := e.newBrain(cfg)
		if err != nil {
			return nil, err
		}
		e.brain, e.ownBrain = b, true
	}
	if err := e.syncBrain(context.Background(), cfg); err != nil {
		return nil, err
	}

	c, err := chunker.New(cfg.Channels, cfg.ChunkSize, cfg.BufferWindowSize)
	if err != nil {
		return nil, fmt.Errorf("engine chunker: %w", err)
	}
	e.chunker = c
	e.configureChunker(cfg)

	if err := e.SetTransformer(cfg.Transformer); err != nil {
		return nil, err
	}

	e.log.Info("engine ready",
		"rate", cfg.SampleRate, "channels", cfg.Channels, "chunk", cfg.ChunkSize,
		"transformer", cfg.Transformer, "morph", cfg.Morph, "latency", e.Latency())

	return e, nil
}

func (e *Engine) newBrain(cfg config.Config) (*brain.Brain, error) {
	b, err := brain.New(
		brain.WithLogger(e.log.With("component", "brain")),
		brain.WithSampleRate(cfg.SampleRate),
		brain.WithChannels(cfg.Channels),
		brain.WithChunkSize(cfg.ChunkSize),
		brain.WithWindow(cfg.BrainWindow),
		brain.WithWeights(cfg.Weights()),
	)
	if err != nil {
		return nil, fmt.Errorf("engine brain: %w", err)
	}
	return b, nil
}

// syncBrain brings the corpus settings in line with cfg, rebuilding its
// chunks when the chunk size or analysis window changed.
func (e *Engine) syncBrain(ctx context.Context, cfg config.Config) error {
	b := e.brain
	if b.SampleRate() != cfg.SampleRate || b.Channels() != cfg.Channels {
		if !e.ownBrain || b.TotalChunks() > 0 {
			return fmt.Errorf("%w: brain %d Hz/%d ch, engine %d Hz/%d ch", ErrBrainMismatch,
				b.SampleRate(), b.Channels(), cfg.SampleRate, cfg.Channels)
		}
		nb, err := e.newBrain(cfg)
		if err != nil {
			return err
		}
		e.brain = nb
		return nil
	}

	b.SetWeights(cfg.Weights())

	rewindow := b.Window() != cfg.BrainWindow
	if rewindow {
		b.SetWindow(cfg.BrainWindow)
	}

	var res brain.Result
	switch {
	case b.ChunkSize() != cfg.ChunkSize:
		res = b.RechunkAllFiles(ctx, cfg.ChunkSize, nil)
	case rewindow && b.TotalChunks() > 0:
		res = b.ReanalyzeAllChunks(ctx, nil)
	default:
		return nil
	}
	if !res.OK() {
		return fmt.Errorf("engine brain %s: %w", res.Status, res.Err)
	}
	return nil
}

func (e *Engine) configureChunker(cfg config.Config) {
	c := e.chunker
	c.SetSampleRate(cfg.SampleRate)
	c.SetWindows(cfg.AnalysisWindow, cfg.OutputWindow)
	c.SetOverlap(cfg.Overlap)
	c.SetSpectral(cfg.Spectral)
	c.SetMorph(cfg.Morph, cfg.MorphParams())
	c.SetAGC(cfg.AGC, float32(cfg.MaxAGCGain))
}

// Apply switches to a new configuration. Stream dimension changes reset
// the stream; corpus changes (chunk size, window) rebuild the corpus
// before returning, honouring ctx. On error the engine keeps running with
// whatever part of cfg was already applied.
func (e *Engine) Apply(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	prevBrain := e.brain
	if err := e.syncBrain(ctx, cfg); err != nil {
		return err
	}
	if err := e.chunker.Configure(cfg.Channels, cfg.ChunkSize, cfg.BufferWindowSize); err != nil {
		return fmt.Errorf("engine chunker: %w", err)
	}

	old := e.cfg
	e.cfg = cfg
	e.configureChunker(cfg)

	rebuild := e.brain != prevBrain ||
		old.Transformer != cfg.Transformer ||
		old.SampleRate != cfg.SampleRate ||
		old.ChunkSize != cfg.ChunkSize ||
		old.AnalysisWindow != cfg.AnalysisWindow ||
		e.tr == nil || e.tr.Kind() != cfg.Transformer
	if rebuild {
		if err := e.SetTransformer(cfg.Transformer); err != nil {
			return err
		}
	} else if err := e.transformerParams(e.tr); err != nil {
		return err
	}

	e.log.Debug("config applied", "chunk", cfg.ChunkSize, "transformer", cfg.Transformer, "morph", cfg.Morph)

	return nil
}

// SetTransformer replaces the transformer with a fresh one of kind k.
func (e *Engine) SetTransformer(k transform.Kind) error {
	tr, err := transform.New(k, transform.Deps{
		Brain:      e.brain,
		SampleRate: e.cfg.SampleRate,
		ChunkSize:  e.cfg.ChunkSize,
		Window:     e.cfg.AnalysisWindow,
	})
	if err != nil {
		return fmt.Errorf("engine transformer: %w", err)
	}
	if err := e.transformerParams(tr); err != nil {
		return err
	}

	e.cfg.Transformer = k
	return e.Use(tr)
}

// transformerParams pushes configuration-level settings into tr.
func (e *Engine) transformerParams(tr transform.Transformer) error {
	if tr.Kind() != transform.ExpandedBrainMatch {
		return nil
	}

	mode := 0.0
	if e.cfg.IndependentChannels {
		mode = 1
	}
	if err := tr.SetParam(transform.ParamChannelMode, mode); err != nil {
		return fmt.Errorf("engine transformer: %w", err)
	}
	return nil
}

// Use installs a caller-built transformer and updates the reported
// latency. Pending chunks are processed by it from the next Transform.
func (e *Engine) Use(tr transform.Transformer) error {
	if tr == nil {
		return ErrNoTransformer
	}

	e.tr = tr
	e.chunker.SetAdditionalLatency(tr.AdditionalLatency())

	return nil
}

// SetParam sets a parameter of the current transformer.
func (e *Engine) SetParam(id string, v float64) error {
	return e.tr.SetParam(id, v)
}

// Process runs one audio callback: frames of in are fed one hop at a
// time, with the pending chunks transformed and the available output
// rendered after each hop, so a block of any length stays within the
// pool. It returns the number of frames of out that carry audio; the rest
// is silence.
func (e *Engine) Process(in, out [][]float32, frames int) int {
	for _, s := range in {
		if s != nil {
			frames = min(frames, len(s))
		}
	}
	for _, d := range out {
		frames = min(frames, len(d))
	}
	if frames <= 0 {
		return 0
	}

	priming := e.chunker.TotalOutput() == 0
	hop := max(e.chunker.HopSize(), 1)
	produced := 0

	for pos := 0; pos < frames; pos += hop {
		e.inView = offsetView(e.inView, in, pos)
		e.PushAudio(e.inView, min(hop, frames-pos))
		e.Transform()
		produced += e.renderAvailable(out, produced, frames-produced)
	}

	if produced < frames {
		for _, d := range out {
			d = d[:frames]
			if priming && produced > 0 {
				// the first audible frame lands exactly one latency after
				// the first input frame
				gap := frames - produced
				copy(d[gap:], d[:produced])
				clear(d[:gap])
				continue
			}
			clear(d[produced:])
		}
	}

	return produced
}

// renderAvailable renders at most limit frames into out from offset,
// never more than the latency budget allows.
func (e *Engine) renderAvailable(out [][]float32, offset, limit int) int {
	budget := e.chunker.TotalInput() - int64(e.chunker.Latency()) - e.chunker.TotalOutput()
	n := int(min(int64(limit), budget))
	if n <= 0 || len(out) == 0 {
		return 0
	}

	e.outView = offsetView(e.outView, out, offset)
	return e.chunker.RenderOutput(e.outView, n, len(out), e.cfg.AGC)
}

// offsetView points view at buf[ch][offset:] for every channel, keeping
// nil channels nil.
func offsetView(view, buf [][]float32, offset int) [][]float32 {
	if cap(view) < len(buf) {
		view = make([][]float32, len(buf))
	}
	view = view[:len(buf)]
	for ch, s := range buf {
		view[ch] = nil
		if s != nil {
			view[ch] = s[offset:]
		}
	}
	return view
}

// PushAudio queues frames of in. Callers driving the chunker by hand must
// call Transform before more than a few chunks are pending; Process does
// this for them.
func (e *Engine) PushAudio(in [][]float32, frames int) int {
	return e.chunker.PushAudio(in, frames)
}

// Transform runs the transformer over every pending chunk in order and
// returns how many were committed.
func (e *Engine) Transform() int {
	committed := 0
	for slot := e.chunker.PopPendingInputChunkIndex(); slot != pool.NoSlot; slot = e.chunker.PopPendingInputChunkIndex() {
		n := e.tr.Transform(e.chunker.InputChunk(slot), e.chunker.OutputChunk(slot))
		if e.chunker.CommitOutputChunk(slot, n) {
			committed++
		}
	}
	return committed
}

// RenderOutput writes up to frames frames into every slice of out.
func (e *Engine) RenderOutput(out [][]float32, frames int) int {
	return e.chunker.RenderOutput(out, frames, len(out), e.cfg.AGC)
}

// Latency is the constant delay between input and output in frames: the
// chunk size plus the transformer's additional latency.
func (e *Engine) Latency() int { return e.chunker.Latency() }

// Reset drops all queued audio and transformer state.
func (e *Engine) Reset() {
	e.chunker.Reset()
	e.tr.Reset()
}

func (e *Engine) Config() config.Config              { return e.cfg }
func (e *Engine) Brain() *brain.Brain                { return e.brain }
func (e *Engine) Transformer() transform.Transformer { return e.tr }
func (e *Engine) Stats() chunker.Stats               { return e.chunker.Stats() }

// RenderOffline streams planar input through the engine in blocks of
// block frames, flushes the latency tail and returns output aligned with
// the input, of the same length. The stream is reset first.
func (e *Engine) RenderOffline(in [][]float32, block int) [][]float32 {
	if len(in) == 0 || len(in[0]) == 0 {
		return nil
	}
	block = max(block, 1)
	frames := len(in[0])
	latency := e.Latency()
	total := frames + latency

	e.Reset()

	inBlock := makePlanar(len(in), block)
	outBlock := makePlanar(e.cfg.Channels, block)
	out := makePlanar(e.cfg.Channels, total)

	for pos := 0; pos < total; pos += block {
		n := min(block, total-pos)
		for ch, s := range in {
			copied := 0
			if pos < len(s) {
				copied = copy(inBlock[ch][:n], s[pos:])
			}
			clear(inBlock[ch][copied:n])
		}

		e.Process(inBlock, outBlock, n)
		for ch := range out {
			copy(out[ch][pos:pos+n], outBlock[ch][:n])
		}
	}

	for ch := range out {
		out[ch] = out[ch][latency:]
	}

	return out
}

func makePlanar(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	return out
}
