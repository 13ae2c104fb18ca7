// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/internal/audiotest"
	"github.com/ik5/audresynth/morph"
	"github.com/ik5/audresynth/window"
)

const (
	testRate  = 8000
	testChunk = 256
)

func periodic(period int, amplitude float32) audiotest.Waveform {
	cycle := make([]float32, period)
	for i := range cycle {
		cycle[i] = amplitude * float32(math.Sin(2*math.Pi*float64(i)/float64(period)))
	}
	return func(frame, _ int) float32 { return cycle[frame%period] }
}

// chunkOf builds a full chunk from a waveform, starting at frame start.
func chunkOf(channels, start int, w audiotest.Waveform) *audio.Chunk {
	c := audio.NewChunk(channels, testChunk)
	for ch := range channels {
		for i := range testChunk {
			c.Samples[ch][i] = w(start+i, ch)
		}
	}
	c.ValidFrames = testChunk
	c.StartSample = int64(start)
	c.HasStart = true
	return c
}

func features(t *testing.T, c *audio.Chunk) []brain.Features {
	t.Helper()

	an := brain.NewAnalyzer(testRate, testChunk, window.Hann)
	per := make([]brain.Features, c.Channels())
	an.Analyze(c, per)
	return per
}

func newBrain(t *testing.T, channels int, files ...audiotest.Waveform) *brain.Brain {
	t.Helper()

	b, err := brain.New(
		brain.WithSampleRate(testRate),
		brain.WithChannels(channels),
		brain.WithChunkSize(testChunk),
	)
	if err != nil {
		t.Fatalf("brain.New() error = %v", err)
	}
	for i, w := range files {
		if id := b.AddAudioSamples("f", audiotest.Planar(channels, 1024, w), testRate); id != i {
			t.Fatalf("AddAudioSamples() = %d, want %d", id, i)
		}
	}
	return b
}

func mustNew(t *testing.T, k Kind, d Deps) Transformer {
	t.Helper()

	tr, err := New(k, d)
	if err != nil {
		t.Fatalf("New(%v) error = %v", k, err)
	}
	if tr.Kind() != k {
		t.Errorf("Kind() = %v, want %v", tr.Kind(), k)
	}
	return tr
}

func TestKind_Names(t *testing.T) {
	t.Parallel()

	for _, d := range Descriptors() {
		k, err := ParseKind(" " + d.Name + " ")
		if err != nil || k != d.Kind {
			t.Errorf("ParseKind(%q) = %v, %v", d.Name, k, err)
		}
		if d.Kind.String() != d.Name {
			t.Errorf("String() = %q, want %q", d.Kind.String(), d.Name)
		}
	}

	if _, err := ParseKind("granular"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(granular) error = %v", err)
	}
	if got := Kind(17).String(); got != "transform(17)" {
		t.Errorf("String() = %q", got)
	}
}

func TestDescriptors_Schema(t *testing.T) {
	t.Parallel()

	ds := Descriptors()
	if len(ds) != 4 {
		t.Fatalf("len(Descriptors()) = %d, want 4", len(ds))
	}

	for i, d := range ds {
		if d.Kind != Kind(i) {
			t.Errorf("descriptor %d has kind %v", i, d.Kind)
		}
		if d.New == nil || len(d.Params) == 0 {
			t.Errorf("%s: incomplete descriptor", d.Name)
		}

		seen := map[string]bool{}
		for _, p := range d.Params {
			if seen[p.ID] {
				t.Errorf("%s: duplicate param %q", d.Name, p.ID)
			}
			seen[p.ID] = true

			if p.Default < p.Min || p.Default > p.Max {
				t.Errorf("%s.%s: default %v outside [%v, %v]", d.Name, p.ID, p.Default, p.Min, p.Max)
			}
			if p.Kind == morph.KindChoice && len(p.Options) != int(p.Max)+1 {
				t.Errorf("%s.%s: %d options for max %v", d.Name, p.ID, len(p.Options), p.Max)
			}
		}
	}

	// the expanded schema extends the simple one without sharing storage
	if len(simpleParams) != 2 || len(expandedParams) != 3 {
		t.Errorf("schema sizes = %d, %d", len(simpleParams), len(expandedParams))
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(Kind(9), Deps{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind error = %v", err)
	}
	for _, k := range []Kind{SimpleBrainMatch, ExpandedBrainMatch} {
		if _, err := New(k, Deps{SampleRate: testRate, ChunkSize: testChunk}); !errors.Is(err, ErrNeedsBrain) {
			t.Errorf("%v without brain error = %v", k, err)
		}
	}
	if _, err := New(SineMatch, Deps{}); !errors.Is(err, ErrInvalidDeps) {
		t.Errorf("sine without rate error = %v", err)
	}
}

func TestPassthrough(t *testing.T) {
	t.Parallel()

	tr := mustNew(t, Passthrough, Deps{})
	in := chunkOf(2, 0, audiotest.Ramp(0.001))
	in.ValidFrames = 200
	out := audio.NewChunk(2, testChunk)
	out.Samples[1][255] = 7

	if n := tr.Transform(in, out); n != 200 {
		t.Fatalf("Transform() = %d, want 200", n)
	}
	for ch := range 2 {
		for i := range 200 {
			if out.Samples[ch][i] != in.Samples[ch][i] {
				t.Fatalf("sample %d/%d = %v, want %v", ch, i, out.Samples[ch][i], in.Samples[ch][i])
			}
		}
	}
	if out.Samples[1][255] != 0 {
		t.Error("frames past ValidFrames not cleared")
	}

	if err := tr.SetParam(ParamGain, 10); err != nil {
		t.Fatalf("SetParam() error = %v", err)
	}
	tr.Transform(in, out)
	if got, want := out.Samples[0][100], in.Samples[0][100]*4; math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("gain clamped to 4: got %v, want %v", got, want)
	}

	if err := tr.SetParam("pitch", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("SetParam(pitch) error = %v", err)
	}
	if tr.AdditionalLatency() != 0 {
		t.Errorf("AdditionalLatency() = %d", tr.AdditionalLatency())
	}
}

func TestSineMatch_FollowsPitchAndLevel(t *testing.T) {
	t.Parallel()

	deps := Deps{SampleRate: testRate, ChunkSize: testChunk, Window: window.Hann}
	in := chunkOf(1, 0, periodic(16, 0.4))
	want := features(t, in)[0]

	tests := []struct {
		octave float64
		freq   float64
	}{
		{0, 500},
		{1, 1000},
		{-1, 250},
	}

	for _, tt := range tests {
		tr := mustNew(t, SineMatch, deps)
		if err := tr.SetParam(ParamOctave, tt.octave); err != nil {
			t.Fatalf("SetParam() error = %v", err)
		}

		out := audio.NewChunk(1, testChunk)
		if n := tr.Transform(in, out); n != testChunk {
			t.Fatalf("Transform() = %d", n)
		}
		out.ValidFrames = testChunk

		got := features(t, out)[0]
		if math.Abs(float64(got.Dominant)-tt.freq) > testRate/testChunk {
			t.Errorf("octave %v: dominant = %v, want %v", tt.octave, got.Dominant, tt.freq)
		}
		if math.Abs(float64(got.RMS-want.RMS)) > 0.02 {
			t.Errorf("octave %v: RMS = %v, want %v", tt.octave, got.RMS, want.RMS)
		}
	}
}

func TestSineMatch_MixAndContinuity(t *testing.T) {
	t.Parallel()

	tr := mustNew(t, SineMatch, Deps{SampleRate: testRate, ChunkSize: testChunk, Window: window.Hann})
	if err := tr.SetParam(ParamMix, 0); err != nil {
		t.Fatal(err)
	}

	in := chunkOf(1, 0, audiotest.Noise(3, 0.5))
	out := audio.NewChunk(1, testChunk)
	tr.Transform(in, out)
	for i, v := range out.Samples[0] {
		if v != in.Samples[0][i] {
			t.Fatalf("dry mix sample %d = %v, want %v", i, v, in.Samples[0][i])
		}
	}

	// consecutive chunks without start positions continue the phase
	if err := tr.SetParam(ParamMix, 1); err != nil {
		t.Fatal(err)
	}
	tone := periodic(16, 0.5)
	a, b := chunkOf(1, 0, tone), chunkOf(1, testChunk, tone)
	a.HasStart, b.HasStart = false, false
	outA, outB := audio.NewChunk(1, testChunk), audio.NewChunk(1, testChunk)
	tr.Reset()
	tr.Transform(a, outA)
	tr.Transform(b, outB)

	last, first := outA.Samples[0][testChunk-1], outB.Samples[0][0]
	if math.Abs(float64(first-last)) > 0.25 {
		t.Errorf("discontinuity at chunk boundary: %v -> %v", last, first)
	}
}

func TestSimpleBrainMatch(t *testing.T) {
	t.Parallel()

	b := newBrain(t, 1, periodic(16, 0.5), periodic(8, 0.5))
	tr := mustNew(t, SimpleBrainMatch, Deps{Brain: b})

	in := chunkOf(1, 0, periodic(8, 0.25))
	out := audio.NewChunk(1, testChunk)
	if n := tr.Transform(in, out); n != testChunk {
		t.Fatalf("Transform() = %d", n)
	}
	out.ValidFrames = testChunk

	got := features(t, out)[0]
	if math.Abs(float64(got.Dominant)-1000) > 1 {
		t.Errorf("dominant = %v, want 1000 (the second file)", got.Dominant)
	}
	want := features(t, in)[0].RMS
	if math.Abs(float64(got.RMS-want)) > 0.01 {
		t.Errorf("RMS = %v, want %v after level following", got.RMS, want)
	}

	// without level following the corpus chunk comes through untouched
	if err := tr.SetParam(ParamRMSFollow, 0); err != nil {
		t.Fatal(err)
	}
	tr.Transform(in, out)
	info, _ := b.File(1)
	c, _ := b.ChunkByGlobalIndex(info.FirstChunk)
	for i, v := range out.Samples[0] {
		if v != c.Samples[0][i] {
			t.Fatalf("sample %d = %v, want %v", i, v, c.Samples[0][i])
		}
	}

	if err := tr.SetParam(ParamChannelMode, 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("simple matcher accepted %q: %v", ParamChannelMode, err)
	}
}

func TestBrainMatch_Silence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		brain *brain.Brain
		in    audiotest.Waveform
	}{
		{"empty corpus", newBrain(t, 1), periodic(16, 0.5)},
		{"gated input", newBrain(t, 1, periodic(16, 0.5)), audiotest.Silence()},
	}

	for _, tt := range tests {
		for _, k := range []Kind{SimpleBrainMatch, ExpandedBrainMatch} {
			tr := mustNew(t, k, Deps{Brain: tt.brain})
			in := chunkOf(1, 0, tt.in)
			in.ValidFrames = 100
			out := chunkOf(1, 0, audiotest.Constant(1))

			if n := tr.Transform(in, out); n != 100 {
				t.Errorf("%s/%v: Transform() = %d, want 100", tt.name, k, n)
			}
			for i, v := range out.Samples[0] {
				if v != 0 {
					t.Fatalf("%s/%v: sample %d = %v, want silence", tt.name, k, i, v)
				}
			}
		}
	}
}

func TestExpandedBrainMatch_IndependentChannels(t *testing.T) {
	t.Parallel()

	lowLeft := func(frame, ch int) float32 {
		if ch == 0 {
			return periodic(16, 0.5)(frame, 0)
		}
		return periodic(8, 0.5)(frame, 0)
	}
	highLeft := func(frame, ch int) float32 { return lowLeft(frame, 1-ch) }

	b := newBrain(t, 2, lowLeft)
	tr := mustNew(t, ExpandedBrainMatch, Deps{Brain: b})
	for id, v := range map[string]float64{ParamChannelMode: 1, ParamRMSFollow: 0} {
		if err := tr.SetParam(id, v); err != nil {
			t.Fatalf("SetParam(%s) error = %v", id, err)
		}
	}

	in := chunkOf(2, 0, highLeft)
	out := audio.NewChunk(2, testChunk)
	if n := tr.Transform(in, out); n != testChunk {
		t.Fatalf("Transform() = %d", n)
	}

	// every full corpus chunk is identical, so the first one wins
	c, _ := b.ChunkByGlobalIndex(0)
	for i := range testChunk {
		if out.Samples[0][i] != c.Samples[1][i] || out.Samples[1][i] != c.Samples[0][i] {
			t.Fatalf("frame %d = %v/%v, want swapped corpus channels", i, out.Samples[0][i], out.Samples[1][i])
		}
	}

	// averaged mode copies channels straight across
	if err := tr.SetParam(ParamChannelMode, 0); err != nil {
		t.Fatal(err)
	}
	tr.Transform(in, out)
	for i := range testChunk {
		if out.Samples[0][i] != c.Samples[0][i] || out.Samples[1][i] != c.Samples[1][i] {
			t.Fatalf("frame %d = %v/%v, want corpus channels in order", i, out.Samples[0][i], out.Samples[1][i])
		}
	}
}
