// SPDX-License-Identifier: EPL-2.0

// Package audio provides low-level audio primitives shared by the engine.
//
// It contains:
//   - Source / Decoder interfaces and a decoder Registry
//   - Resampler for sample rate conversion (cubic interpolation)
//   - ChannelMapper for matching a source to the engine channel count
//   - ReadPlanar to drain a source into per-channel slices
//   - Chunk, the fixed-size planar block every engine stage works on
//
// # Source Interface
//
// A Source yields interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns the number of float32 values written. io.EOF marks
// the end of the stream and may accompany a final partial read.
//
// # Chunks
//
// The real-time side of the engine never works on interleaved data. It
// uses Chunk, which keeps one slice per channel plus the valid frame
// count, RMS, start-sample timestamp and an optional ordered spectrum:
//
//	c := audio.NewChunk(2, 1024)
//	copy(c.Samples[0], left)
//	copy(c.Samples[1], right)
//	c.ValidFrames = 1024
//	c.ComputeRMS()
//
// Chunks are sized once and then overwritten in place; Resize reuses
// existing capacity.
//
// # Decoding for the corpus
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	src, _ := registry.Decode("wav", r)
//	planar, _ := audio.ReadPlanar(src, 48000, 2, 4096)
//
// Registry keys are case-insensitive and accept a leading dot so file
// extensions work as keys.
package audio
