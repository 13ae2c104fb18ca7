// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ik5/audresynth/formats/wav"
	"github.com/ik5/audresynth/internal/audiotest"
)

const (
	testRate  = 8000
	testChunk = 256
)

// periodic repeats one cycle of a sine exactly, so that every chunk whose
// start is a multiple of the period holds bit-identical samples.
func periodic(period int, amplitude float32) audiotest.Waveform {
	cycle := make([]float32, period)
	for i := range cycle {
		cycle[i] = amplitude * float32(math.Sin(2*math.Pi*float64(i)/float64(period)))
	}
	return func(frame, _ int) float32 { return cycle[frame%period] }
}

func newTestBrain(t *testing.T, channels int, opts ...Option) *Brain {
	t.Helper()

	opts = append([]Option{
		WithSampleRate(testRate),
		WithChannels(channels),
		WithChunkSize(testChunk),
	}, opts...)

	b, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func mustAdd(t *testing.T, b *Brain, name string, planar [][]float32) int {
	t.Helper()

	id := b.AddAudioSamples(name, planar, b.SampleRate())
	if id == InvalidFileID {
		t.Fatalf("AddAudioSamples(%q) failed", name)
	}
	return id
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
	}{
		{"zero rate", WithSampleRate(0)},
		{"zero channels", WithChannels(0)},
		{"tiny chunk", WithChunkSize(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.opt); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	b, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.SampleRate() != DefaultSampleRate || b.Channels() != DefaultChannels || b.ChunkSize() != DefaultChunkSize {
		t.Errorf("defaults = %d/%d/%d", b.SampleRate(), b.Channels(), b.ChunkSize())
	}
	if b.TotalChunks() != 0 || len(b.Files()) != 0 {
		t.Error("new brain is not empty")
	}
}

func TestChunkLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		frames, chunk  int
		count, padding int
	}{
		{frames: 100, chunk: 256, count: 1, padding: 156},
		{frames: 256, chunk: 256, count: 1, padding: 0},
		{frames: 257, chunk: 256, count: 2, padding: 127},
		{frames: 512, chunk: 256, count: 3, padding: 0},
		{frames: 1000, chunk: 256, count: 7, padding: 24},
	}

	for _, tt := range tests {
		count, padding := chunkLayout(tt.frames, tt.chunk)
		if count != tt.count || padding != tt.padding {
			t.Errorf("chunkLayout(%d, %d) = %d, %d; want %d, %d",
				tt.frames, tt.chunk, count, padding, tt.count, tt.padding)
		}
	}
}

func TestEstimatedChunkCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		frames, chunk, want int
	}{
		{1024, 256, 7},
		{10, 256, 1},
		{0, 256, 1},
		{1000, 0, 1},
	}

	for _, tt := range tests {
		if got := EstimatedChunkCount(tt.frames, tt.chunk); got != tt.want {
			t.Errorf("EstimatedChunkCount(%d, %d) = %d, want %d", tt.frames, tt.chunk, got, tt.want)
		}
	}
}

func TestAddAudioSamples_Chunks(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 1)
	id := mustAdd(t, b, "tone", audiotest.Planar(1, 1000, periodic(16, 0.5)))
	if id != 0 {
		t.Errorf("first id = %d, want 0", id)
	}

	info, ok := b.File(id)
	if !ok {
		t.Fatal("File() not found")
	}
	if info.Frames != 1000 || info.Chunks != 7 || info.TailPadding != 24 || info.FirstChunk != 0 {
		t.Errorf("File() = %+v", info)
	}
	if b.TotalChunks() != 7 {
		t.Fatalf("TotalChunks() = %d, want 7", b.TotalChunks())
	}

	for i := range 7 {
		c, ok := b.ChunkByGlobalIndex(i)
		if !ok {
			t.Fatalf("ChunkByGlobalIndex(%d) missing", i)
		}
		start := i * ChunkHop(testChunk)
		if c.StartSample != int64(start) || !c.HasStart {
			t.Errorf("chunk %d start = %d, want %d", i, c.StartSample, start)
		}
		if want := min(testChunk, 1000-start); c.ValidFrames != want {
			t.Errorf("chunk %d valid = %d, want %d", i, c.ValidFrames, want)
		}
		if c.FileID != id || c.Position != i {
			t.Errorf("chunk %d owner = %d/%d", i, c.FileID, c.Position)
		}
		// 500 Hz sits exactly on bin 16 of a 256-point transform at 8 kHz
		if math.Abs(float64(c.Average.Dominant)-500) > 1 {
			t.Errorf("chunk %d dominant = %v, want 500", i, c.Average.Dominant)
		}
		if !c.HasSpectrum() {
			t.Errorf("chunk %d has no spectrum", i)
		}
	}

	last, _ := b.ChunkByGlobalIndex(6)
	for _, v := range last.Samples[0][last.ValidFrames:] {
		if v != 0 {
			t.Fatal("tail padding is not silent")
		}
	}

	first, _ := b.ChunkByGlobalIndex(0)
	if want := float32(0.5 / math.Sqrt2); math.Abs(float64(first.RMS-want)) > 1e-3 {
		t.Errorf("RMS = %v, want %v", first.RMS, want)
	}

	if _, ok := b.ChunkByGlobalIndex(7); ok {
		t.Error("ChunkByGlobalIndex(7) found a chunk")
	}
}

func TestAddAudioSamples_CopiesInput(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 1)
	in := audiotest.Planar(1, 300, audiotest.Constant(0.25))
	id := mustAdd(t, b, "dc", in)

	in[0][0] = 9
	got, ok := b.FileAudio(id)
	if !ok || got[0][0] != 0.25 {
		t.Errorf("FileAudio()[0][0] = %v, want 0.25", got[0][0])
	}

	got[0][1] = 9
	again, _ := b.FileAudio(id)
	if again[0][1] != 0.25 {
		t.Error("FileAudio() exposes internal storage")
	}
}

func TestAddAudioSamples_Converts(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 1)

	id := b.AddAudioSamples("stereo", audiotest.Planar(2, 600, audiotest.Constant(0.5)), testRate)
	if id == InvalidFileID {
		t.Fatal("stereo input rejected")
	}
	info, _ := b.File(id)
	if info.Frames != 600 {
		t.Errorf("downmixed frames = %d, want 600", info.Frames)
	}

	id = b.AddAudioSamples("fast", audiotest.Planar(1, 2000, periodic(32, 0.5)), 2*testRate)
	if id == InvalidFileID {
		t.Fatal("16 kHz input rejected")
	}
	info, _ = b.File(id)
	if info.Frames < 950 || info.Frames > 1050 {
		t.Errorf("resampled frames = %d, want about 1000", info.Frames)
	}
}

func TestAddAudioSamples_Rejects(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 1)

	if id := b.AddAudioSamples("none", nil, testRate); id != InvalidFileID {
		t.Errorf("nil audio id = %d", id)
	}
	if id := b.AddAudioSamples("empty", [][]float32{{}}, testRate); id != InvalidFileID {
		t.Errorf("empty audio id = %d", id)
	}
	if id := b.AddAudioSamples("norate", [][]float32{{1}}, 0); id != InvalidFileID {
		t.Errorf("zero rate id = %d", id)
	}
	if b.TotalChunks() != 0 {
		t.Error("rejected audio produced chunks")
	}
}

func TestAddAudioFileFromMemory(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := wav.WritePlanar16(&buf, testRate, audiotest.Planar(2, 800, periodic(16, 0.5))); err != nil {
		t.Fatalf("WritePlanar16() error = %v", err)
	}

	b := newTestBrain(t, 2)

	id := b.AddAudioFileFromMemory("tone.wav", "", buf.Bytes())
	if id == InvalidFileID {
		t.Fatal("AddAudioFileFromMemory() failed")
	}
	info, _ := b.File(id)
	if info.Name != "tone.wav" || info.Frames != 800 {
		t.Errorf("File() = %+v", info)
	}

	// no extension: found by sniffing
	if id := b.AddAudioFileFromMemory("blob", "", buf.Bytes()); id == InvalidFileID {
		t.Error("sniffed WAV rejected")
	}

	before := b.TotalChunks()
	if id := b.AddAudioFileFromMemory("junk.wav", "", []byte("not audio at all")); id != InvalidFileID {
		t.Errorf("garbage id = %d", id)
	}
	if b.TotalChunks() != before {
		t.Error("failed decode changed the corpus")
	}
}

func TestRemoveFile(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 1)
	a := mustAdd(t, b, "a", audiotest.Planar(1, 1000, periodic(16, 0.5)))
	m := mustAdd(t, b, "m", audiotest.Planar(1, 300, periodic(8, 0.5)))
	z := mustAdd(t, b, "z", audiotest.Planar(1, 600, periodic(32, 0.5)))

	if !b.RemoveFile(m) {
		t.Fatal("RemoveFile() = false")
	}
	if b.RemoveFile(m) {
		t.Error("second RemoveFile() = true")
	}

	files := b.Files()
	if len(files) != 2 || files[0].ID != a || files[1].ID != z {
		t.Fatalf("Files() = %+v", files)
	}
	if files[1].FirstChunk != files[0].Chunks {
		t.Errorf("FirstChunk = %d, want %d", files[1].FirstChunk, files[0].Chunks)
	}
	if b.TotalChunks() != files[0].Chunks+files[1].Chunks {
		t.Errorf("TotalChunks() = %d", b.TotalChunks())
	}

	c, _ := b.ChunkByGlobalIndex(files[1].FirstChunk)
	if c.FileID != z || c.Position != 0 {
		t.Errorf("moved chunk owner = %d/%d", c.FileID, c.Position)
	}

	if id := mustAdd(t, b, "n", audiotest.Planar(1, 100, periodic(16, 0.5))); id != 3 {
		t.Errorf("id after removal = %d, want 3", id)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 1)
	mustAdd(t, b, "a", audiotest.Planar(1, 500, periodic(16, 0.5)))
	b.Reset()

	if b.TotalChunks() != 0 || len(b.Files()) != 0 {
		t.Error("Reset() left content")
	}
	if _, ok := b.MatchAverage(Query{Frequency: 500}); ok {
		t.Error("match after Reset()")
	}
	if id := mustAdd(t, b, "b", audiotest.Planar(1, 500, periodic(16, 0.5))); id != 1 {
		t.Errorf("id after Reset() = %d, want 1", id)
	}
}

func TestExportFileWAV(t *testing.T) {
	t.Parallel()

	b := newTestBrain(t, 2)
	id := mustAdd(t, b, "tone", audiotest.Planar(2, 700, periodic(16, 0.5)))

	var buf bytes.Buffer
	if err := b.ExportFileWAV(id, &buf); err != nil {
		t.Fatalf("ExportFileWAV() error = %v", err)
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != testRate || src.Channels() != 2 {
		t.Errorf("format = %d Hz, %d ch", src.SampleRate(), src.Channels())
	}

	want, _ := b.FileAudio(id)
	dst := make([]float32, 2*700)
	total := 0
	for total < len(dst) {
		n, err := src.ReadSamples(dst[total:])
		total += n
		if err != nil {
			break
		}
	}
	if total != len(dst) {
		t.Fatalf("read %d samples, want %d", total, len(dst))
	}
	for f := range 700 {
		for ch := range 2 {
			if d := math.Abs(float64(dst[f*2+ch] - want[ch][f])); d > 1e-3 {
				t.Fatalf("sample %d/%d = %v, want %v", f, ch, dst[f*2+ch], want[ch][f])
			}
		}
	}

	if err := b.ExportFileWAV(42, &buf); !errors.Is(err, ErrUnknownFile) {
		t.Errorf("unknown id error = %v, want %v", err, ErrUnknownFile)
	}
}
