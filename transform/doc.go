// SPDX-License-Identifier: EPL-2.0

// Package transform provides the transformers that turn pending input
// chunks into output chunks.
//
// A transformer is driven by the engine on the audio thread: for every
// chunk the chunker hands out, Transform reads the input view, writes the
// output view and returns the number of valid frames. Implementations do
// not allocate once they have seen a chunk of a given shape, and they never
// block. Brain matchers only try the corpus read lock and fall back to
// silence when no match is available.
//
// Every variant is described by data: Descriptors lists the kind, name,
// parameter schema and constructor of each, so a host can build its
// parameter UI and instantiate transformers without knowing the concrete
// types.
package transform
