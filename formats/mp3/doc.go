// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 audio through github.com/hajimehoshi/go-mp3.
//
// The underlying decoder always produces 16-bit little-endian stereo, so the
// returned audio.Source reports two channels regardless of the file. Reads
// are frame aligned: bytes of a frame split across decoder reads are carried
// into the next call instead of being dropped.
//
//	src, err := mp3.Decoder{}.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package mp3
