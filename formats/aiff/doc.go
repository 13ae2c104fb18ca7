// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) audio for corpus
// ingestion.
//
// Decoding goes through github.com/go-audio/aiff. Integer PCM at 8, 16, 24
// or 32 bits is accepted with any channel count and sample rate; AIFF-C
// compressed files are rejected. Samples are delivered as interleaved
// float32 in [-1, 1].
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not a FORM/AIFF container
//	}
//
// AIFF is big-endian and stores its sample rate as an 80-bit extended float;
// both are handled by the underlying decoder.
package aiff
