// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/chunker"
	"github.com/ik5/audresynth/morph"
	"github.com/ik5/audresynth/transform"
	"github.com/ik5/audresynth/window"
)

// EnvPrefix starts every variable FromEnv reads.
const EnvPrefix = "AUDRESYNTH_"

// MaxChannels bounds Channels.
const MaxChannels = 64

// Config holds all engine settings.
type Config struct {
	// Stream
	SampleRate       int
	Channels         int
	ChunkSize        int // frames per chunk, also the base latency
	BufferWindowSize int // lookahead chunks kept by the chunker

	// Synthesis
	AnalysisWindow window.Type
	OutputWindow   window.Type
	Overlap        bool
	Spectral       bool
	Morph          morph.Type
	MorphAmount    float64
	PhaseAmount    float64
	Waveform       morph.Waveform
	MinHarmonic    int
	AGC            bool
	MaxAGCGain     float64

	// Matching
	Transformer         transform.Kind
	BrainWindow         window.Type
	FrequencyWeight     float64
	RMSWeight           float64
	HarmonicWeight      float64
	IndependentChannels bool

	LogLevel string
}

// Default is 48 kHz stereo with 1024-frame chunks, Hann windows with
// overlap-add, no morph and a passthrough transformer.
func Default() Config {
	mp := morph.DefaultParams()
	w := brain.DefaultWeights()

	return Config{
		SampleRate:       brain.DefaultSampleRate,
		Channels:         brain.DefaultChannels,
		ChunkSize:        brain.DefaultChunkSize,
		BufferWindowSize: 8,

		AnalysisWindow: window.Hann,
		OutputWindow:   window.Hann,
		Overlap:        true,
		Morph:          morph.None,
		MorphAmount:    mp.MorphAmount,
		PhaseAmount:    mp.PhaseAmount,
		Waveform:       mp.Waveform,
		MinHarmonic:    mp.MinHarmonic,
		MaxAGCGain:     chunker.DefaultMaxGain,

		Transformer:     transform.Passthrough,
		BrainWindow:     window.Hann,
		FrequencyWeight: w.Frequency,
		RMSWeight:       w.RMS,
		HarmonicWeight:  w.Harmonic[0],

		LogLevel: "info",
	}
}

// FromEnv returns Default overridden by the AUDRESYNTH_* variables that
// are set. Unparsable values are reported together; the returned Config
// then holds the defaults for them.
func FromEnv() (Config, error) {
	c := Default()
	e := &env{}

	c.SampleRate = e.intVal("SAMPLE_RATE", c.SampleRate)
	c.Channels = e.intVal("CHANNELS", c.Channels)
	c.ChunkSize = e.intVal("CHUNK_SIZE", c.ChunkSize)
	c.BufferWindowSize = e.intVal("WINDOW_SIZE", c.BufferWindowSize)

	c.AnalysisWindow = enum(e, "ANALYSIS_WINDOW", c.AnalysisWindow, window.ParseType)
	c.OutputWindow = enum(e, "OUTPUT_WINDOW", c.OutputWindow, window.ParseType)
	c.Overlap = e.boolVal("OVERLAP", c.Overlap)
	c.Spectral = e.boolVal("SPECTRAL", c.Spectral)
	c.Morph = enum(e, "MORPH", c.Morph, morph.ParseType)
	c.MorphAmount = e.floatVal("MORPH_AMOUNT", c.MorphAmount)
	c.PhaseAmount = e.floatVal("PHASE_AMOUNT", c.PhaseAmount)
	c.Waveform = enum(e, "WAVEFORM", c.Waveform, morph.ParseWaveform)
	c.MinHarmonic = e.intVal("MIN_HARMONIC", c.MinHarmonic)
	c.AGC = e.boolVal("AGC", c.AGC)
	c.MaxAGCGain = e.floatVal("MAX_AGC_GAIN", c.MaxAGCGain)

	c.Transformer = enum(e, "TRANSFORMER", c.Transformer, transform.ParseKind)
	c.BrainWindow = enum(e, "BRAIN_WINDOW", c.BrainWindow, window.ParseType)
	c.FrequencyWeight = e.floatVal("FREQUENCY_WEIGHT", c.FrequencyWeight)
	c.RMSWeight = e.floatVal("RMS_WEIGHT", c.RMSWeight)
	c.HarmonicWeight = e.floatVal("HARMONIC_WEIGHT", c.HarmonicWeight)
	c.IndependentChannels = e.boolVal("INDEPENDENT_CHANNELS", c.IndependentChannels)

	c.LogLevel = e.strVal("LOG_LEVEL", c.LogLevel)

	return c, errors.Join(e.errs...)
}

// Validate reports every setting the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	bad := func(err error, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
	}

	if c.SampleRate <= 0 {
		bad(ErrInvalidSampleRate, "%d", c.SampleRate)
	}
	if c.Channels <= 0 || c.Channels > MaxChannels {
		bad(ErrInvalidChannels, "%d", c.Channels)
	}
	if c.ChunkSize < 2 {
		bad(ErrInvalidChunkSize, "%d", c.ChunkSize)
	}
	if c.BufferWindowSize <= 0 {
		bad(ErrInvalidWindowSize, "%d", c.BufferWindowSize)
	}

	for name, w := range map[string]window.Type{
		"analysis window": c.AnalysisWindow,
		"output window":   c.OutputWindow,
		"brain window":    c.BrainWindow,
	} {
		if w < window.Rectangular || w > window.Blackman {
			bad(ErrInvalidEnum, "%s %d", name, int(w))
		}
	}
	if c.Morph < morph.None || c.Morph > morph.SpectralMasking {
		bad(ErrInvalidEnum, "morph %d", int(c.Morph))
	}
	if c.Waveform < morph.Square || c.Waveform > morph.Sawtooth {
		bad(ErrInvalidEnum, "waveform %d", int(c.Waveform))
	}
	if _, ok := transform.Lookup(c.Transformer); !ok {
		bad(ErrInvalidEnum, "transformer %d", int(c.Transformer))
	}

	for name, v := range map[string]float64{
		"morph amount": c.MorphAmount,
		"phase amount": c.PhaseAmount,
	} {
		if v < 0 || v > 1 {
			bad(ErrInvalidAmount, "%s %v", name, v)
		}
	}
	for name, v := range map[string]float64{
		"frequency weight": c.FrequencyWeight,
		"rms weight":       c.RMSWeight,
		"harmonic weight":  c.HarmonicWeight,
	} {
		if v < 0 {
			bad(ErrInvalidAmount, "%s %v", name, v)
		}
	}
	if c.MaxAGCGain <= 0 {
		bad(ErrInvalidAmount, "max agc gain %v", c.MaxAGCGain)
	}
	if c.MinHarmonic < 1 {
		bad(ErrInvalidAmount, "min harmonic %d", c.MinHarmonic)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		bad(ErrInvalidLogLevel, "%q", c.LogLevel)
	}

	return errors.Join(errs...)
}

// MorphParams returns the morph settings for the configured sample rate.
func (c Config) MorphParams() morph.Params {
	return morph.Params{
		MorphAmount: c.MorphAmount,
		PhaseAmount: c.PhaseAmount,
		Waveform:    c.Waveform,
		MinHarmonic: c.MinHarmonic,
		SampleRate:  c.SampleRate,
	}
}

// Weights returns the matching weights; HarmonicWeight applies to every
// harmonic feature.
func (c Config) Weights() brain.Weights {
	w := brain.Weights{Frequency: c.FrequencyWeight, RMS: c.RMSWeight}
	for i := range w.Harmonic {
		w.Harmonic[i] = c.HarmonicWeight
	}
	return w
}

// env reads prefixed variables and collects parse errors.
type env struct {
	errs []error
}

func (e *env) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s%s=%q: %w", ErrInvalidEnv, EnvPrefix, key, v, err))
}

func (e *env) strVal(key, fallback string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return fallback
}

func (e *env) intVal(key string, fallback int) int {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return n
}

func (e *env) floatVal(key string, fallback float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return f
}

func (e *env) boolVal(key string, fallback bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return b
}

func enum[T any](e *env, key string, fallback T, parse func(string) (T, error)) T {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	t, err := parse(v)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return t
}
