// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/ik5/audresynth/utils"
	"github.com/ik5/audresynth/window"
)

// SnapshotMode selects what a snapshot stores.
type SnapshotMode uint8

const (
	// Full stores float audio plus every chunk's analysis and spectrum, so
	// loading needs no FFT work when the settings match.
	Full SnapshotMode = iota
	// Compact stores 16-bit audio and file metadata only; chunks are
	// re-derived on load.
	Compact
)

func (m SnapshotMode) String() string {
	switch m {
	case Full:
		return "full"
	case Compact:
		return "compact"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

const (
	snapshotMagic   = "ARSB"
	snapshotVersion = 1

	// sanity bounds for decoded headers
	maxSnapshotChannels = 64
	maxSnapshotChunk    = 1 << 20
	maxSnapshotFrames   = 1 << 31
)

// Snapshot layout, all little-endian:
//
//	"ARSB" | u16 version | u8 mode | zstd(body)
//
//	body:  u32 rate | u16 channels | u32 chunk size | u8 window | u32 files
//	file:  u32 id | u16 len | name | u32 frames | u32 tail padding
//	       audio, channel after channel (f32 Full, i16 Compact)
//	Full:  u32 chunks | u32 fft size, then per chunk
//	       u32 start | u32 valid | f32 rms | features(avg) |
//	       features per channel | spectrum per channel
//	features: f32 rms | f32 zcf | f32 dominant | 7 x f32 harmonic

// WriteSnapshot serialises the corpus. Concurrent mutations wait for it.
func (b *Brain) WriteSnapshot(w io.Writer, mode SnapshotMode) error {
	if mode != Full && mode != Compact {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, mode)
	}

	b.ops.Lock()
	defer b.ops.Unlock()

	head := make([]byte, 0, 7)
	head = append(head, snapshotMagic...)
	head = binary.LittleEndian.AppendUint16(head, snapshotVersion)
	head = append(head, byte(mode))
	if _, err := w.Write(head); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot compressor: %w", err)
	}

	bw := bufio.NewWriter(zw)
	enc := &encoder{w: bw}
	b.encodeBody(enc, mode)
	if enc.err == nil {
		enc.err = bw.Flush()
	}
	if err := zw.Close(); enc.err == nil {
		enc.err = err
	}
	if enc.err != nil {
		return fmt.Errorf("write snapshot: %w", enc.err)
	}

	b.log.Info("snapshot written", "mode", mode, "files", len(b.files), "chunks", len(b.chunks))

	return nil
}

func (b *Brain) encodeBody(enc *encoder, mode SnapshotMode) {
	enc.u32(uint32(b.sampleRate))
	enc.u16(uint16(b.channels))
	enc.u32(uint32(b.chunkSize))
	enc.u8(uint8(b.win))
	enc.u32(uint32(len(b.files)))

	for _, f := range b.files {
		enc.u32(uint32(f.id))
		enc.str(f.name)
		enc.u32(uint32(len(f.audio[0])))
		enc.u32(uint32(f.tailPadding))

		for _, ch := range f.audio {
			if mode == Compact {
				pcm := make([]int16, len(ch))
				for i, v := range ch {
					pcm[i] = utils.Float32ToInt16(v)
				}
				enc.write(pcm)
			} else {
				enc.write(ch)
			}
		}

		if mode == Full {
			chunks := b.chunks[f.first : f.first+f.count]
			enc.u32(uint32(len(chunks)))
			enc.u32(uint32(window.NextValidFFTSize(b.chunkSize)))
			for _, c := range chunks {
				enc.u32(uint32(c.StartSample))
				enc.u32(uint32(c.ValidFrames))
				enc.f32(c.RMS)
				enc.features(c.Average)
				for _, pc := range c.PerChannel {
					enc.features(pc)
				}
				for _, s := range c.Spectrum {
					enc.write(s)
				}
			}
		}
	}
}

// ReadSnapshot replaces the corpus with a snapshot's content. Audio is
// converted to the corpus rate and channel count when they differ, and
// chunks are re-derived unless the snapshot is Full and was taken with the
// current rate, channels, chunk size and window. On any error or
// cancellation the corpus is left as it was.
func (b *Brain) ReadSnapshot(ctx context.Context, r io.Reader, progress Progress) Result {
	b.ops.Lock()
	defer b.ops.Unlock()

	res := resultOf(b.readSnapshot(ctx, r, progress))
	if !res.OK() {
		b.log.Warn("snapshot not loaded", "status", res.Status, "err", res.Err)
	}
	return res
}

func (b *Brain) readSnapshot(ctx context.Context, r io.Reader, progress Progress) error {
	head := make([]byte, 7)
	if _, err := io.ReadFull(r, head); err != nil {
		return fmt.Errorf("%w: header: %w", ErrBadSnapshot, err)
	}
	if string(head[:4]) != snapshotMagic {
		return fmt.Errorf("%w: bad magic %q", ErrBadSnapshot, head[:4])
	}
	if v := binary.LittleEndian.Uint16(head[4:6]); v != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, v)
	}
	mode := SnapshotMode(head[6])
	if mode != Full && mode != Compact {
		return fmt.Errorf("%w: mode %d", ErrBadSnapshot, head[6])
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	defer zr.Close()

	dec := &decoder{r: bufio.NewReader(zr)}
	snap := dec.body(mode)
	if dec.err != nil {
		return fmt.Errorf("%w: %w", ErrBadSnapshot, dec.err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	files, chunks, err := b.adopt(ctx, snap, progress)
	if err != nil {
		return err
	}

	nextID := 0
	for _, f := range files {
		nextID = max(nextID, f.id+1)
	}

	b.mu.Lock()
	b.files, b.chunks = files, chunks
	b.nextID = max(b.nextID, nextID)
	b.mu.Unlock()

	b.log.Info("snapshot loaded", "mode", mode, "files", len(files), "chunks", len(chunks))

	return nil
}

type snapshotFile struct {
	file
	chunks []*Chunk // Full only
}

type snapshot struct {
	sampleRate int
	channels   int
	chunkSize  int
	win        window.Type
	files      []snapshotFile
	full       bool
}

// adopt turns decoded snapshot content into corpus state under the
// current settings. The caller holds ops.
func (b *Brain) adopt(ctx context.Context, snap *snapshot, progress Progress) ([]*file, []*Chunk, error) {
	reuse := snap.full &&
		snap.sampleRate == b.sampleRate &&
		snap.channels == b.channels &&
		snap.chunkSize == b.chunkSize &&
		snap.win == b.win

	src := make([]*file, len(snap.files))
	for i := range snap.files {
		f := &snap.files[i].file
		if snap.sampleRate != b.sampleRate || snap.channels != b.channels {
			converted, err := convert(f.audio, snap.sampleRate, b.sampleRate, b.channels)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: file %q: %w", ErrBadSnapshot, f.name, err)
			}
			f.audio = converted
		}
		src[i] = f
	}

	if !reuse {
		return b.chunkFiles(ctx, src, b.chunkSize, progress)
	}

	total := 0
	for i := range snap.files {
		total += len(snap.files[i].chunks)
	}

	files := make([]*file, 0, len(src))
	chunks := make([]*Chunk, 0, total)
	for i, f := range src {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		fc := snap.files[i].chunks
		f.first = len(chunks)
		f.count = len(fc)
		for _, c := range fc {
			// samples come from the file audio rather than the snapshot
			start := int(c.StartSample)
			for ch, s := range f.audio {
				copy(c.Samples[ch], s[min(start, len(s)):min(start+b.chunkSize, len(s))])
			}
		}

		files = append(files, f)
		chunks = append(chunks, fc...)
		if progress != nil {
			progress(f.name, len(chunks), total)
		}
	}

	return files, chunks, nil
}

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(v any) {
	if e.err == nil {
		e.err = binary.Write(e.w, binary.LittleEndian, v)
	}
}

func (e *encoder) u8(v uint8)    { e.write(v) }
func (e *encoder) u16(v uint16)  { e.write(v) }
func (e *encoder) u32(v uint32)  { e.write(v) }
func (e *encoder) f32(v float32) { e.write(v) }

func (e *encoder) str(s string) {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	e.u16(uint16(len(s)))
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *encoder) features(f Features) {
	e.f32(f.RMS)
	e.f32(f.ZeroCrossing)
	e.f32(f.Dominant)
	e.write(f.Harmonic[:])
}

type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) read(v any) {
	if d.err == nil {
		d.err = binary.Read(d.r, binary.LittleEndian, v)
	}
}

func (d *decoder) u8() (v uint8)    { d.read(&v); return v }
func (d *decoder) u16() (v uint16)  { d.read(&v); return v }
func (d *decoder) u32() (v uint32)  { d.read(&v); return v }
func (d *decoder) f32() (v float32) { d.read(&v); return v }

func (d *decoder) str() string {
	n := d.u16()
	if d.err != nil {
		return ""
	}
	buf := make([]byte, n)
	_, d.err = io.ReadFull(d.r, buf)
	return string(buf)
}

func (d *decoder) features() Features {
	var f Features
	f.RMS = d.f32()
	f.ZeroCrossing = d.f32()
	f.Dominant = d.f32()
	d.read(f.Harmonic[:])
	return f
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *decoder) body(mode SnapshotMode) *snapshot {
	snap := &snapshot{
		sampleRate: int(d.u32()),
		channels:   int(d.u16()),
		chunkSize:  int(d.u32()),
		win:        window.Type(d.u8()),
		full:       mode == Full,
	}
	count := d.u32()
	if d.err != nil {
		return snap
	}

	switch {
	case snap.sampleRate <= 0:
		d.fail("sample rate %d", snap.sampleRate)
	case snap.channels <= 0 || snap.channels > maxSnapshotChannels:
		d.fail("channel count %d", snap.channels)
	case snap.chunkSize < 2 || snap.chunkSize > maxSnapshotChunk:
		d.fail("chunk size %d", snap.chunkSize)
	}

	for i := uint32(0); i < count && d.err == nil; i++ {
		var sf snapshotFile
		sf.id = int(d.u32())
		sf.name = d.str()
		frames := d.u32()
		sf.tailPadding = int(d.u32())
		if d.err != nil {
			break
		}
		if frames == 0 || uint64(frames) >= maxSnapshotFrames {
			d.fail("file %q: %d frames", sf.name, frames)
			break
		}

		sf.audio = make([][]float32, snap.channels)
		for ch := range sf.audio {
			sf.audio[ch] = make([]float32, frames)
			if mode == Compact {
				pcm := make([]int16, frames)
				d.read(pcm)
				for j, v := range pcm {
					sf.audio[ch][j] = utils.Int16ToFloat32(v)
				}
			} else {
				d.read(sf.audio[ch])
			}
		}

		if mode == Full {
			sf.chunks = d.chunks(snap, sf.id, int(frames))
		}

		snap.files = append(snap.files, sf)
	}

	return snap
}

func (d *decoder) chunks(snap *snapshot, fileID, frames int) []*Chunk {
	count := d.u32()
	fftSize := int(d.u32())
	if d.err != nil {
		return nil
	}
	if fftSize != window.NextValidFFTSize(snap.chunkSize) {
		d.fail("fft size %d for chunk size %d", fftSize, snap.chunkSize)
		return nil
	}
	if want, _ := chunkLayout(frames, snap.chunkSize); int(count) != want {
		d.fail("%d chunks for %d frames", count, frames)
		return nil
	}

	out := make([]*Chunk, 0, count)
	for i := range int(count) {
		c := &Chunk{FileID: fileID, Position: i}
		c.Resize(snap.channels, snap.chunkSize)
		c.StartSample = int64(d.u32())
		c.HasStart = true
		c.ValidFrames = int(d.u32())
		c.RMS = d.f32()
		c.Average = d.features()

		c.PerChannel = make([]Features, snap.channels)
		for ch := range c.PerChannel {
			c.PerChannel[ch] = d.features()
		}

		c.ResizeSpectrum(fftSize)
		for _, s := range c.Spectrum {
			d.read(s)
		}
		c.FFTSize = fftSize
		c.Window, c.WindowSize = snap.win, snap.chunkSize

		if d.err != nil {
			return nil
		}
		if c.StartSample >= int64(frames) || c.ValidFrames > snap.chunkSize {
			d.fail("chunk %d out of range", i)
			return nil
		}

		out = append(out, c)
	}

	return out
}
