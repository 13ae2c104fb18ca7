// SPDX-License-Identifier: EPL-2.0

// Package chunker turns a stream of host audio blocks into fixed-size
// chunks, hands them to a transformer and streams the transformed result
// back out at a constant latency.
//
// One audio callback drives it in three steps:
//
//	c.PushAudio(in, frames)
//	for i := c.PopPendingInputChunkIndex(); i != pool.NoSlot; i = c.PopPendingInputChunkIndex() {
//	    transform(c.InputChunk(i), c.OutputChunk(i))
//	    c.CommitOutputChunk(i, chunkSize)
//	}
//	c.RenderOutput(out, frames, len(out), agc)
//
// PushAudio accumulates frames until a chunk is full, copies it into a
// pool slot, and places the slot both in the lookahead window and in the
// pending queue. The accumulator then advances by the hop size: the whole
// chunk without overlap, or chunkSize*(1-overlap) of the analysis window
// (spectral mode) or output window otherwise.
//
// CommitOutputChunk runs the optional spectral pass (forward transform,
// morph against the input spectrum, inverse, edge polish), computes the
// automatic gain compensation factor, and either overlap-adds the chunk
// into the synthesizer or queues it for sequential playback.
//
// RenderOutput never lets the total rendered count exceed
//
//	TotalInput() - ChunkSize() - additional latency
//
// so the output trails the input by exactly Latency() frames whatever the
// host block size. Frames it cannot produce are zero-filled. The first
// frames ever produced are placed at the end of the caller's block, which
// keeps the delay exact from the very first callback.
//
// A Chunker is not safe for concurrent use and does not allocate after
// Configure.
package chunker
