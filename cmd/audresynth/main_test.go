// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audresynth"
	"github.com/ik5/audresynth/config"
	"github.com/ik5/audresynth/formats/wav"
	"github.com/ik5/audresynth/internal/audiotest"
	"github.com/ik5/audresynth/internal/logging"
	"github.com/ik5/audresynth/morph"
	"github.com/ik5/audresynth/transform"
	"github.com/ik5/audresynth/window"
)

func testSession(t *testing.T) *session {
	t.Helper()

	cfg := config.Default()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.ChunkSize = 256
	cfg.Overlap = false

	return &session{ctx: t.Context(), cfg: cfg, log: logging.Discard()}
}

func writeWAV(t *testing.T, dir, name string, planar [][]float32) string {
	t.Helper()

	var buf bytes.Buffer
	if err := wav.WritePlanar16(&buf, 8000, planar); err != nil {
		t.Fatalf("WritePlanar16: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestEngineFlags_Apply(t *testing.T) {
	t.Parallel()

	t.Run("zero flags keep the config", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		f := EngineFlags{}
		if err := f.apply(&cfg); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if cfg != config.Default() {
			t.Errorf("config changed: %+v", cfg)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		f := EngineFlags{
			SampleRate:  22050,
			Channels:    1,
			ChunkSize:   512,
			Transformer: "expanded-brain-match",
			Window:      "blackman",
			NoOverlap:   true,
			Morph:       "harmonic-morph",
			MorphAmount: 0.25,
			Waveform:    "triangle",
			AGC:         true,
			Independent: true,
		}
		if err := f.apply(&cfg); err != nil {
			t.Fatalf("apply: %v", err)
		}

		if cfg.SampleRate != 22050 || cfg.Channels != 1 || cfg.ChunkSize != 512 {
			t.Errorf("stream = %d/%d/%d", cfg.SampleRate, cfg.Channels, cfg.ChunkSize)
		}
		if cfg.Transformer != transform.ExpandedBrainMatch {
			t.Errorf("transformer = %v", cfg.Transformer)
		}
		if cfg.AnalysisWindow != window.Blackman || cfg.OutputWindow != window.Blackman || cfg.BrainWindow != window.Blackman {
			t.Errorf("windows = %v %v %v", cfg.AnalysisWindow, cfg.OutputWindow, cfg.BrainWindow)
		}
		if cfg.Overlap || !cfg.AGC || !cfg.IndependentChannels {
			t.Errorf("overlap %v agc %v independent %v", cfg.Overlap, cfg.AGC, cfg.IndependentChannels)
		}
		if cfg.Morph != morph.HarmonicMorph || cfg.MorphAmount != 0.25 || cfg.Waveform != morph.Triangle {
			t.Errorf("morph = %v %v %v", cfg.Morph, cfg.MorphAmount, cfg.Waveform)
		}
	})

	tests := []struct {
		name  string
		flags EngineFlags
	}{
		{"unknown transformer", EngineFlags{Transformer: "granular"}},
		{"unknown window", EngineFlags{Window: "kaiser"}},
		{"unknown morph", EngineFlags{Morph: "blur"}},
		{"unknown waveform", EngineFlags{Waveform: "pulse"}},
		{"invalid chunk size", EngineFlags{ChunkSize: 1}},
		{"invalid amount", EngineFlags{MorphAmount: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			if err := tt.flags.apply(&cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCorpusBuild_Info(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := testSession(t)
	a := writeWAV(t, dir, "a.wav", audiotest.Planar(1, 1280, audiotest.Sine(8000, 500, 0.5)))
	b := writeWAV(t, dir, "b.wav", audiotest.Planar(1, 700, audiotest.Noise(3, 0.25)))
	snap := filepath.Join(dir, "corpus.arsb")

	build := &corpusBuildCmd{Output: snap, Files: []string{a, b}}
	if err := build.Run(rt); err != nil {
		t.Fatalf("build: %v", err)
	}

	info := &corpusInfoCmd{Snapshot: snap}
	if err := info.Run(rt); err != nil {
		t.Fatalf("info: %v", err)
	}

	br, err := newBrain(rt.cfg, rt.log)
	if err != nil {
		t.Fatalf("newBrain: %v", err)
	}
	if err := loadSnapshot(rt, br, snap); err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}

	files := br.Files()
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	if files[0].Name != "a.wav" || files[0].Frames != 1280 || files[1].Name != "b.wav" || files[1].Frames != 700 {
		t.Errorf("files = %+v", files)
	}
}

func TestCorpusBuild_Compact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := testSession(t)
	a := writeWAV(t, dir, "a.wav", audiotest.Planar(1, 4096, audiotest.Noise(7, 0.5)))

	full := filepath.Join(dir, "full.arsb")
	compact := filepath.Join(dir, "compact.arsb")
	if err := (&corpusBuildCmd{Output: full, Files: []string{a}}).Run(rt); err != nil {
		t.Fatalf("full: %v", err)
	}
	if err := (&corpusBuildCmd{Output: compact, Files: []string{a}, Compact: true}).Run(rt); err != nil {
		t.Fatalf("compact: %v", err)
	}

	fs, err := os.Stat(full)
	if err != nil {
		t.Fatal(err)
	}
	cs, err := os.Stat(compact)
	if err != nil {
		t.Fatal(err)
	}
	if cs.Size() >= fs.Size() {
		t.Errorf("compact %d bytes, full %d bytes", cs.Size(), fs.Size())
	}
}

func TestAddFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := testSession(t)
	good := writeWAV(t, dir, "good.wav", audiotest.Planar(1, 512, audiotest.Constant(0.5)))
	bad := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(bad, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := newBrain(rt.cfg, rt.log)
	if err != nil {
		t.Fatal(err)
	}
	if err := addFiles(b, []string{bad}, rt.log); !errors.Is(err, errNoCorpusFiles) {
		t.Errorf("only bad files: err = %v, want errNoCorpusFiles", err)
	}
	if err := addFiles(b, []string{bad, filepath.Join(dir, "missing.wav"), good}, rt.log); err != nil {
		t.Errorf("mixed files: %v", err)
	}
	if n := len(b.Files()); n != 1 {
		t.Errorf("files = %d, want 1", n)
	}
	if err := addFiles(b, nil, rt.log); err != nil {
		t.Errorf("no files: %v", err)
	}
}

func TestRender_Passthrough(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := testSession(t)
	src := audiotest.Planar(1, 3000, audiotest.Sine(8000, 440, 0.5))
	in := writeWAV(t, dir, "in.wav", src)
	out := filepath.Join(dir, "out.wav")

	cmd := &renderCmd{Input: in, Output: out, Block: 333, BitDepth: 16}
	if err := cmd.Run(rt); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := audresynth.DecodeToPlanar(f, "wav", 8000, 1)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got[0]) != len(src[0]) {
		t.Fatalf("frames = %d, want %d", len(got[0]), len(src[0]))
	}
	for i := range got[0] {
		if d := math.Abs(float64(got[0][i] - src[0][i])); d > 1e-3 {
			t.Fatalf("frame %d: got %v want %v", i, got[0][i], src[0][i])
		}
	}
}

func TestRender_Snapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := testSession(t)
	corpus := writeWAV(t, dir, "tone.wav", audiotest.Planar(1, 4096, audiotest.Sine(8000, 1000, 0.5)))
	snap := filepath.Join(dir, "corpus.arsb")
	if err := (&corpusBuildCmd{Output: snap, Files: []string{corpus}}).Run(rt); err != nil {
		t.Fatalf("build: %v", err)
	}

	in := writeWAV(t, dir, "in.wav", audiotest.Planar(1, 2048, audiotest.Sine(8000, 1000, 0.25)))
	out := filepath.Join(dir, "out.wav")
	cmd := &renderCmd{
		EngineFlags: EngineFlags{Transformer: "simple-brain-match"},
		Snapshot:    snap,
		Input:       in,
		Output:      out,
		Block:       256,
		BitDepth:    24,
	}
	if err := cmd.Run(rt); err != nil {
		t.Fatalf("render: %v", err)
	}

	st, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	// 44-byte header plus 3 bytes per frame.
	if want := int64(44 + 2048*3); st.Size() < want {
		t.Errorf("output %d bytes, want at least %d", st.Size(), want)
	}
}

func TestRender_MissingSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rt := testSession(t)
	in := writeWAV(t, dir, "in.wav", audiotest.Planar(1, 512, audiotest.Constant(0.1)))

	cmd := &renderCmd{Snapshot: filepath.Join(dir, "nope.arsb"), Input: in, Output: filepath.Join(dir, "out.wav"), Block: 256, BitDepth: 16}
	if err := cmd.Run(rt); err == nil {
		t.Error("expected error")
	}
}
