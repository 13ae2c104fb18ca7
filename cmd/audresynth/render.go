// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/ik5/audresynth"
	"github.com/ik5/audresynth/formats"
	"github.com/ik5/audresynth/formats/wav"
)

type renderCmd struct {
	EngineFlags `embed:""`

	Corpus   []string `short:"f" help:"Audio files to add to the corpus." type:"existingfile" placeholder:"FILE"`
	Snapshot string   `help:"Corpus snapshot to load before adding files." type:"existingfile" placeholder:"FILE"`
	Block    int      `help:"Frames per processing block." default:"1024"`
	BitDepth int      `help:"Output WAV bit depth: 8, 16, 24 or 32." default:"16"`

	Input  string `arg:"" help:"Audio file to re-synthesize (wav, mp3, ogg or aiff)." type:"existingfile"`
	Output string `arg:"" help:"WAV file to write." type:"path"`
}

func (c *renderCmd) Run(rt *session) error {
	cfg := rt.cfg
	if err := c.apply(&cfg); err != nil {
		return err
	}

	b, err := newBrain(cfg, rt.log)
	if err != nil {
		return err
	}
	if c.Snapshot != "" {
		if err := loadSnapshot(rt, b, c.Snapshot); err != nil {
			return err
		}
	}
	if err := addFiles(b, c.Corpus, rt.log); err != nil {
		return err
	}

	eng, err := audresynth.New(cfg, audresynth.WithBrain(b), audresynth.WithLogger(rt.log))
	if err != nil {
		return err
	}

	in, err := os.Open(c.Input)
	if err != nil {
		return err
	}
	planar, err := audresynth.DecodeToPlanar(bufio.NewReader(in), formats.FormatFromName(c.Input), cfg.SampleRate, cfg.Channels)
	in.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", c.Input, err)
	}
	if len(planar) == 0 || len(planar[0]) == 0 {
		return fmt.Errorf("decode %s: %w", c.Input, errEmptyInput)
	}

	start := time.Now()
	out := eng.RenderOffline(planar, c.Block)
	elapsed := time.Since(start)

	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	if err := wav.Encode(f, cfg.SampleRate, c.BitDepth, out); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	printRender(os.Stdout, renderSummary{
		Input:       c.Input,
		Output:      c.Output,
		Config:      cfg,
		Frames:      len(planar[0]),
		Latency:     eng.Latency(),
		CorpusFiles: len(b.Files()),
		Chunks:      b.TotalChunks(),
		Stats:       eng.Stats(),
		Elapsed:     elapsed,
	})
	return nil
}
