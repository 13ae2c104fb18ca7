// SPDX-License-Identifier: EPL-2.0

// Package brain holds the corpus that transformers match live audio
// against.
//
// Files are decoded once, converted to the engine's rate and channel count
// and kept in memory. Each file is cut into chunks of the configured size
// with a hop of half a chunk; the last chunk is zero padded. Every chunk is
// analysed per channel (RMS, zero-crossing frequency, spectrum, dominant
// frequency and the harmonic feature vector) and the channel values are
// averaged into one feature set.
//
// Matching walks the whole corpus and returns the chunk with the smallest
// weighted distance to a query; equal distances resolve to the lowest
// global chunk index. An empty corpus never matches.
//
// Concurrency: mutations (adding, removing, rechunking, reanalysing,
// loading snapshots) are serialised and build their new state aside before
// swapping it in under a short write lock, so published chunks are never
// modified. Match calls only try the read lock and report no match while a
// swap is in progress, which keeps them safe to call from the audio thread.
package brain
