// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/ik5/audresynth/config"
	"github.com/ik5/audresynth/morph"
	"github.com/ik5/audresynth/transform"
	"github.com/ik5/audresynth/window"
)

// EngineFlags override the environment configuration. Zero values leave
// the setting alone.
type EngineFlags struct {
	SampleRate  int     `short:"r" help:"Processing sample rate in Hz." placeholder:"HZ"`
	Channels    int     `short:"c" help:"Processing channel count." placeholder:"N"`
	ChunkSize   int     `short:"s" help:"Chunk size in frames." placeholder:"FRAMES"`
	Transformer string  `short:"t" help:"passthrough, sine-match, simple-brain-match or expanded-brain-match." placeholder:"KIND"`
	Window      string  `help:"Window for analysis, output and corpus matching." placeholder:"TYPE"`
	NoOverlap   bool    `help:"Disable overlap-add and play chunks back to back."`
	Spectral    bool    `help:"Enable per-chunk spectral processing."`
	Morph       string  `short:"m" help:"Spectral morph: none, cross-synthesis, spectral-vocoder, cepstral-morph, harmonic-morph, wave-morph or spectral-masking." placeholder:"TYPE"`
	MorphAmount float64 `help:"Morph amount between 0 and 1." placeholder:"X"`
	Waveform    string  `help:"Harmonic morph waveform: square, triangle or sawtooth." placeholder:"WAVE"`
	AGC         bool    `help:"Enable automatic gain control on the output."`
	Independent bool    `help:"Match each channel on its own (expanded-brain-match)."`
}

func (f *EngineFlags) apply(cfg *config.Config) error {
	var errs []error
	parse := func(name, v string, set func(string) error) {
		if v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", name, err))
		}
	}

	if f.SampleRate != 0 {
		cfg.SampleRate = f.SampleRate
	}
	if f.Channels != 0 {
		cfg.Channels = f.Channels
	}
	if f.ChunkSize != 0 {
		cfg.ChunkSize = f.ChunkSize
	}

	parse("transformer", f.Transformer, func(v string) (err error) {
		cfg.Transformer, err = transform.ParseKind(v)
		return err
	})
	parse("window", f.Window, func(v string) error {
		t, err := window.ParseType(v)
		if err != nil {
			return err
		}
		cfg.AnalysisWindow, cfg.OutputWindow, cfg.BrainWindow = t, t, t
		return nil
	})
	parse("morph", f.Morph, func(v string) (err error) {
		cfg.Morph, err = morph.ParseType(v)
		return err
	})
	parse("waveform", f.Waveform, func(v string) (err error) {
		cfg.Waveform, err = morph.ParseWaveform(v)
		return err
	})

	if f.MorphAmount != 0 {
		cfg.MorphAmount = f.MorphAmount
	}
	if f.NoOverlap {
		cfg.Overlap = false
	}
	if f.Spectral {
		cfg.Spectral = true
	}
	if f.AGC {
		cfg.AGC = true
	}
	if f.Independent {
		cfg.IndependentChannels = true
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return cfg.Validate()
}
