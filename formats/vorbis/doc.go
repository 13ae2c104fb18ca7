// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio through
// github.com/jfreymuth/oggvorbis.
//
// The decoder already produces interleaved float32 in [-1, 1] and counts
// its output in values rather than frames, so the source is a thin
// adapter that only keeps reads frame aligned.
//
//	src, err := vorbis.Decoder{}.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package vorbis
