// SPDX-License-Identifier: EPL-2.0

// Package ola reconstructs a continuous stream from overlapping chunks.
//
// A Synthesizer accumulates chunks into a scratch buffer and drains it in
// whatever block size the caller asks for. Each chunk is placed hop frames
// after the previous one:
//
//	offset = max(0, valid - (chunkSize - hop))
//
// where valid is the number of accumulated, not yet rendered frames.
// Samples are scaled by the window coefficient and a per-chunk gain on the
// way in, and by a single normalization constant on the way out. The
// constant is the inverse of the mean hop-spaced window sum over one chunk
// (see NormalizationFor), so window/hop combinations that are not exactly
// constant-overlap-add still come out at unity level on average.
//
// The Synthesizer allocates in Configure and, rarely, when a chunk would
// overflow the accumulator. It is not safe for concurrent use.
package ola
