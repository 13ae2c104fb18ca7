// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/formats"
	"github.com/ik5/audresynth/internal/logging"
	"github.com/ik5/audresynth/window"
)

// InvalidFileID is returned when a file could not be added.
const InvalidFileID = -1

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	DefaultChunkSize  = 1024
)

// file is an immutable corpus entry; changes replace it.
type file struct {
	id          int
	name        string
	audio       [][]float32
	first       int // global index of the first chunk
	count       int
	tailPadding int
}

// FileInfo describes a corpus file.
type FileInfo struct {
	ID          int
	Name        string
	Frames      int
	FirstChunk  int
	Chunks      int
	TailPadding int
}

func (f *file) info() FileInfo {
	return FileInfo{
		ID:          f.id,
		Name:        f.name,
		Frames:      len(f.audio[0]),
		FirstChunk:  f.first,
		Chunks:      f.count,
		TailPadding: f.tailPadding,
	}
}

type Option func(*Brain)

// WithRegistry sets the decoders used by AddAudioFileFromMemory.
func WithRegistry(reg *audio.Registry) Option {
	return func(b *Brain) { b.reg = reg }
}

func WithLogger(l *log.Logger) Option {
	return func(b *Brain) { b.log = l }
}

func WithSampleRate(rate int) Option {
	return func(b *Brain) { b.sampleRate = rate }
}

func WithChannels(channels int) Option {
	return func(b *Brain) { b.channels = channels }
}

func WithChunkSize(size int) Option {
	return func(b *Brain) { b.chunkSize = size }
}

func WithWindow(t window.Type) Option {
	return func(b *Brain) { b.win = t }
}

func WithWeights(w Weights) Option {
	return func(b *Brain) { b.weights = w }
}

// Brain is the corpus. See the package documentation for its locking
// rules.
type Brain struct {
	// ops serialises mutations; mu guards the published state.
	ops sync.Mutex
	mu  sync.RWMutex

	reg *audio.Registry
	log *log.Logger

	sampleRate int
	channels   int
	chunkSize  int
	win        window.Type
	weights    Weights

	nextID int
	files  []*file
	chunks []*Chunk
}

// New returns an empty corpus. Without options it expects 48 kHz stereo,
// 1024-frame chunks, a Hann analysis window and the built-in decoders.
func New(opts ...Option) (*Brain, error) {
	b := &Brain{
		sampleRate: DefaultSampleRate,
		channels:   DefaultChannels,
		chunkSize:  DefaultChunkSize,
		win:        window.Hann,
		weights:    DefaultWeights(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.sampleRate <= 0 || b.channels <= 0 || b.chunkSize < 2 {
		return nil, fmt.Errorf("%w: rate %d, channels %d, chunk size %d",
			ErrInvalidConfig, b.sampleRate, b.channels, b.chunkSize)
	}
	if b.reg == nil {
		b.reg = formats.NewRegistry()
	}
	if b.log == nil {
		b.log = logging.Discard()
	}

	return b, nil
}

func (b *Brain) SampleRate() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sampleRate
}

func (b *Brain) Channels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.channels
}

func (b *Brain) ChunkSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.chunkSize
}

func (b *Brain) Window() window.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.win
}

// SetWindow changes the analysis window for chunks analysed from now on.
// Existing chunks keep their features until ReanalyzeAllChunks runs.
func (b *Brain) SetWindow(t window.Type) {
	b.ops.Lock()
	defer b.ops.Unlock()

	b.mu.Lock()
	b.win = t
	b.mu.Unlock()
}

func (b *Brain) Weights() Weights {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.weights
}

func (b *Brain) SetWeights(w Weights) {
	b.mu.Lock()
	b.weights = w
	b.mu.Unlock()
}

// AddAudioFileFromMemory decodes data and adds it to the corpus. An empty
// format is taken from the name's extension, and content sniffing covers
// names without a known extension. It returns the new file id or
// InvalidFileID; a failed decode leaves the corpus unchanged.
func (b *Brain) AddAudioFileFromMemory(name, format string, data []byte) int {
	if format == "" {
		format = formats.FormatFromName(name)
	}

	src, err := formats.Open(b.reg, format, data)
	if err != nil {
		b.log.Warn("decode failed", "file", name, "format", format, "err", err)
		return InvalidFileID
	}
	defer src.Close()

	rate, channels := b.SampleRate(), b.Channels()
	planar, err := audio.ReadPlanar(src, rate, channels, src.BufSize())
	if err != nil {
		b.log.Warn("read failed", "file", name, "err", err)
		return InvalidFileID
	}

	return b.add(name, planar)
}

// AddAudioSamples adds planar audio recorded at sampleRate, converting it
// to the corpus rate and channel count. The input is copied.
func (b *Brain) AddAudioSamples(name string, planar [][]float32, sampleRate int) int {
	if len(planar) == 0 || len(planar[0]) == 0 || sampleRate <= 0 {
		b.log.Warn("rejected samples", "file", name, "err", ErrEmptyAudio)
		return InvalidFileID
	}

	rate, channels := b.SampleRate(), b.Channels()

	var owned [][]float32
	if sampleRate == rate && len(planar) == channels {
		owned = make([][]float32, channels)
		for ch := range owned {
			// ragged input is truncated to the first channel's length
			owned[ch] = make([]float32, len(planar[0]))
			copy(owned[ch], planar[ch])
		}
	} else {
		var err error
		owned, err = convert(planar, sampleRate, rate, channels)
		if err != nil {
			b.log.Warn("convert failed", "file", name, "err", err)
			return InvalidFileID
		}
	}

	return b.add(name, owned)
}

// convert resamples and remaps planar audio to rate and channels.
func convert(planar [][]float32, from, rate, channels int) ([][]float32, error) {
	src := audio.NewPlanarSource(planar, from)
	defer src.Close()
	return audio.ReadPlanar(src, rate, channels, src.BufSize())
}

func (b *Brain) add(name string, planar [][]float32) int {
	b.ops.Lock()
	defer b.ops.Unlock()

	// only ops holders change these, so no read lock is needed here
	an := NewAnalyzer(b.sampleRate, b.chunkSize, b.win)
	id := b.nextID

	chunks, padding, err := an.split(context.Background(), planar, id, b.chunkSize, nil)
	if err != nil {
		b.log.Warn("analysis failed", "file", name, "err", err)
		return InvalidFileID
	}

	b.mu.Lock()
	b.files = append(b.files, &file{
		id:          id,
		name:        name,
		audio:       planar,
		first:       len(b.chunks),
		count:       len(chunks),
		tailPadding: padding,
	})
	b.chunks = append(b.chunks, chunks...)
	b.nextID++
	b.mu.Unlock()

	b.log.Info("file added", "id", id, "name", name, "frames", len(planar[0]), "chunks", len(chunks))

	return id
}

// RemoveFile drops a file and its chunks. Later chunks move down to keep
// global indices contiguous.
func (b *Brain) RemoveFile(id int) bool {
	b.ops.Lock()
	defer b.ops.Unlock()

	b.mu.RLock()
	idx := slices.IndexFunc(b.files, func(f *file) bool { return f.id == id })
	b.mu.RUnlock()
	if idx < 0 {
		return false
	}

	files := make([]*file, 0, len(b.files)-1)
	chunks := make([]*Chunk, 0, len(b.chunks))
	for i, f := range b.files {
		if i == idx {
			continue
		}
		moved := *f
		moved.first = len(chunks)
		files = append(files, &moved)
		chunks = append(chunks, b.chunks[f.first:f.first+f.count]...)
	}

	b.mu.Lock()
	b.files, b.chunks = files, chunks
	b.mu.Unlock()

	b.log.Info("file removed", "id", id)

	return true
}

// Reset empties the corpus. File ids are not reused.
func (b *Brain) Reset() {
	b.ops.Lock()
	defer b.ops.Unlock()

	b.mu.Lock()
	b.files, b.chunks = nil, nil
	b.mu.Unlock()
}

func (b *Brain) Files() []FileInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]FileInfo, len(b.files))
	for i, f := range b.files {
		out[i] = f.info()
	}
	return out
}

func (b *Brain) File(id int) (FileInfo, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, f := range b.files {
		if f.id == id {
			return f.info(), true
		}
	}
	return FileInfo{}, false
}

// FileAudio returns a copy of a file's converted audio.
func (b *Brain) FileAudio(id int) ([][]float32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, f := range b.files {
		if f.id == id {
			out := make([][]float32, len(f.audio))
			for ch, s := range f.audio {
				out[ch] = slices.Clone(s)
			}
			return out, true
		}
	}
	return nil, false
}

func (b *Brain) TotalChunks() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}

// ChunkByGlobalIndex returns the chunk at position i across all files.
// The chunk must not be modified.
func (b *Brain) ChunkByGlobalIndex(i int) (*Chunk, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i < 0 || i >= len(b.chunks) {
		return nil, false
	}
	return b.chunks[i], true
}
