// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/config"
)

var (
	errNoCorpusFiles = errors.New("no corpus file could be added")
	errEmptyInput    = errors.New("input has no audio")
)

type corpusCmd struct {
	Build corpusBuildCmd `cmd:"" help:"Analyze audio files and write a corpus snapshot."`
	Info  corpusInfoCmd  `cmd:"" help:"List the files of a corpus snapshot."`
}

type corpusBuildCmd struct {
	EngineFlags `embed:""`

	Compact bool     `help:"Store 16-bit audio only; features are recomputed on load."`
	Output  string   `arg:"" help:"Snapshot file to write." type:"path"`
	Files   []string `arg:"" help:"Audio files to add." type:"existingfile"`
}

func (c *corpusBuildCmd) Run(rt *session) error {
	cfg := rt.cfg
	if err := c.apply(&cfg); err != nil {
		return err
	}

	b, err := newBrain(cfg, rt.log)
	if err != nil {
		return err
	}
	if err := addFiles(b, c.Files, rt.log); err != nil {
		return err
	}

	mode := brain.Full
	if c.Compact {
		mode = brain.Compact
	}

	out, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	if err := b.WriteSnapshot(w, mode); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	printCorpus(os.Stdout, c.Output, b)
	return nil
}

type corpusInfoCmd struct {
	EngineFlags `embed:""`

	Snapshot string `arg:"" help:"Snapshot file to read." type:"existingfile"`
}

func (c *corpusInfoCmd) Run(rt *session) error {
	cfg := rt.cfg
	if err := c.apply(&cfg); err != nil {
		return err
	}

	b, err := newBrain(cfg, rt.log)
	if err != nil {
		return err
	}
	if err := loadSnapshot(rt, b, c.Snapshot); err != nil {
		return err
	}

	printCorpus(os.Stdout, c.Snapshot, b)
	return nil
}

func newBrain(cfg config.Config, l *log.Logger) (*brain.Brain, error) {
	return brain.New(
		brain.WithLogger(l),
		brain.WithSampleRate(cfg.SampleRate),
		brain.WithChannels(cfg.Channels),
		brain.WithChunkSize(cfg.ChunkSize),
		brain.WithWindow(cfg.BrainWindow),
		brain.WithWeights(cfg.Weights()),
	)
}

// addFiles adds every readable file. Files that fail to decode are
// skipped with a warning; it fails only when nothing was added.
func addFiles(b *brain.Brain, paths []string, l *log.Logger) error {
	added := 0
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			l.Warn("skipping corpus file", "file", p, "err", err)
			continue
		}
		if id := b.AddAudioFileFromMemory(filepath.Base(p), "", data); id != brain.InvalidFileID {
			added++
		}
	}

	if len(paths) > 0 && added == 0 {
		return errNoCorpusFiles
	}
	return nil
}

func loadSnapshot(rt *session, b *brain.Brain, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res := b.ReadSnapshot(rt.ctx, bufio.NewReader(f), func(name string, current, total int) {
		rt.log.Debug("loading snapshot", "file", name, "chunk", current, "of", total)
	})
	if !res.OK() {
		return fmt.Errorf("snapshot %s: %s: %w", path, res.Status, res.Err)
	}
	return nil
}
