// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes RIFF/WAVE audio.
//
// Decoding goes through github.com/go-audio/wav and accepts integer PCM at
// 8, 16, 24 or 32 bits with any channel count. Samples come out of the
// returned audio.Source as interleaved float32 in [-1, 1]; 8-bit data is
// unsigned on disk and is re-centred on zero.
//
//	src, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not RIFF/WAVE
//	}
//
// Two writers are provided. WritePCM16 and WritePlanar16 produce a canonical
// 44-byte header and only need an io.Writer, which suits exporting corpus
// audio into memory. Encode uses the go-audio encoder, supports every bit
// depth the decoder reads and requires an io.WriteSeeker such as *os.File.
package wav
