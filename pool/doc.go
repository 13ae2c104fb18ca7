// SPDX-License-Identifier: EPL-2.0

// Package pool holds the zero-allocation chunk arena used on the audio
// path.
//
// A Pool owns windowCapacity+headroom entries, each an input/output Chunk
// pair with a reference count, and four IndexRings that name slots:
//
//	free     slots nobody references
//	pending  input chunks waiting for a transformer
//	ready    committed output chunks waiting for playback
//	window   the most recent input chunks (lookahead view)
//
// The same slot may sit in several rings at once; each membership holds
// one reference. A typical producer step:
//
//	slot := p.Acquire()              // refcount 1, held by the producer
//	p.RetainInto(p.Window(), slot)   // 2
//	p.RetainInto(p.Pending(), slot)  // 3
//	p.Release(slot)                  // 2: producer done
//
// Nothing in this package locks or allocates after Configure.
package pool
