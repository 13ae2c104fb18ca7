// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"fmt"

	"github.com/ik5/audresynth/audio"
)

// Entry pairs the input chunk a producer fills with the output chunk a
// transformer writes, plus the number of holders referencing the slot.
type Entry struct {
	Input    *audio.Chunk
	Output   *audio.Chunk
	RefCount int
}

// Pool is an arena of entries indexed by slot number, with four rings that
// name slots without owning them. Ownership is the reference count alone:
// every ring membership and every outstanding Acquire holds one unit, and a
// slot returns to the free ring only when its count reaches zero.
//
// Pool is not safe for concurrent use. It is meant to be driven from a
// single audio callback.
type Pool struct {
	entries []Entry

	free    *IndexRing
	pending *IndexRing
	ready   *IndexRing
	window  *IndexRing

	channels  int
	chunkSize int
	windowCap int
	headroom  int
}

// New returns an unconfigured pool.
func New() *Pool {
	return &Pool{
		free:    NewIndexRing(0),
		pending: NewIndexRing(0),
		ready:   NewIndexRing(0),
		window:  NewIndexRing(0),
	}
}

// Configure sizes the pool for windowCapacity+headroom entries of
// channels x chunkSize. Storage is only reallocated when a dimension
// changed; rings and reference counts are always reset and every slot is
// seeded into the free ring.
func (p *Pool) Configure(channels, chunkSize, windowCapacity, headroom int) error {
	if channels <= 0 || chunkSize <= 0 || windowCapacity <= 0 || headroom < 0 {
		return fmt.Errorf("%w: channels=%d chunk=%d window=%d headroom=%d",
			ErrInvalidDimensions, channels, chunkSize, windowCapacity, headroom)
	}

	capacity := windowCapacity + headroom
	if capacity != len(p.entries) || channels != p.channels || chunkSize != p.chunkSize {
		entries := make([]Entry, capacity)
		for i := range entries {
			if i < len(p.entries) {
				entries[i] = p.entries[i]
				entries[i].Input.Resize(channels, chunkSize)
				entries[i].Output.Resize(channels, chunkSize)
				continue
			}
			entries[i] = Entry{
				Input:  audio.NewChunk(channels, chunkSize),
				Output: audio.NewChunk(channels, chunkSize),
			}
		}
		p.entries = entries
	}

	p.channels = channels
	p.chunkSize = chunkSize
	p.windowCap = windowCapacity
	p.headroom = headroom
	p.Reset()

	return nil
}

// Reset empties all rings, zeroes reference counts and returns every slot
// to the free ring without touching chunk storage.
func (p *Pool) Reset() {
	capacity := len(p.entries)
	p.free.Reset(capacity)
	p.pending.Reset(max(p.headroom, 1))
	p.ready.Reset(capacity)
	p.window.Reset(p.windowCap)

	for i := range p.entries {
		p.entries[i].RefCount = 0
		p.free.Push(i)
	}
}

func (p *Pool) Capacity() int  { return len(p.entries) }
func (p *Pool) Channels() int  { return p.channels }
func (p *Pool) ChunkSize() int { return p.chunkSize }

// Free, Pending, Ready and Window expose the rings. Callers that push into
// Pending, Ready or Window must Retain the slot first; callers that pop
// from them must Release it.
func (p *Pool) Free() *IndexRing    { return p.free }
func (p *Pool) Pending() *IndexRing { return p.pending }
func (p *Pool) Ready() *IndexRing   { return p.ready }
func (p *Pool) Window() *IndexRing  { return p.window }

// InUse is the number of slots with a non-zero reference count.
func (p *Pool) InUse() int {
	return len(p.entries) - p.free.Len()
}

func (p *Pool) valid(slot int) bool {
	return slot >= 0 && slot < len(p.entries)
}

// Acquire takes a slot off the free ring. The caller holds one reference.
// NoSlot is returned when the pool is exhausted.
func (p *Pool) Acquire() int {
	slot := p.free.Pop()
	if slot == NoSlot {
		return NoSlot
	}
	e := &p.entries[slot]
	e.RefCount = 1
	e.Input.Clear()
	e.Output.Clear()
	return slot
}

// Retain adds a reference to a slot that is already held.
func (p *Pool) Retain(slot int) bool {
	if !p.valid(slot) || p.entries[slot].RefCount <= 0 {
		return false
	}
	p.entries[slot].RefCount++
	return true
}

// Release drops one reference. At zero the slot goes back to the free
// ring. Releasing a slot nobody holds is a no-op that reports false.
func (p *Pool) Release(slot int) bool {
	if !p.valid(slot) || p.entries[slot].RefCount <= 0 {
		return false
	}
	p.entries[slot].RefCount--
	if p.entries[slot].RefCount == 0 {
		p.free.Push(slot)
	}
	return true
}

// RefCount returns the slot's reference count, or -1 for an invalid slot.
func (p *Pool) RefCount(slot int) int {
	if !p.valid(slot) {
		return -1
	}
	return p.entries[slot].RefCount
}

// Input returns the slot's input chunk or nil.
func (p *Pool) Input(slot int) *audio.Chunk {
	if !p.valid(slot) {
		return nil
	}
	return p.entries[slot].Input
}

// Output returns the slot's output chunk or nil.
func (p *Pool) Output(slot int) *audio.Chunk {
	if !p.valid(slot) {
		return nil
	}
	return p.entries[slot].Output
}

// Entry returns the slot's entry or nil.
func (p *Pool) Entry(slot int) *Entry {
	if !p.valid(slot) {
		return nil
	}
	return &p.entries[slot]
}

// RetainInto retains slot and pushes it onto ring. When the ring is full
// the retain is undone and false is returned.
func (p *Pool) RetainInto(ring *IndexRing, slot int) bool {
	if !p.Retain(slot) {
		return false
	}
	if !ring.Push(slot) {
		p.Release(slot)
		return false
	}
	return true
}

// PopRelease pops the oldest slot of ring and releases the ring's
// reference. It returns the popped slot or NoSlot.
func (p *Pool) PopRelease(ring *IndexRing) int {
	slot := ring.Pop()
	if slot != NoSlot {
		p.Release(slot)
	}
	return slot
}
