// SPDX-License-Identifier: EPL-2.0

package pool

// NoSlot is returned where a slot index is expected but none exists.
const NoSlot = -1

// IndexRing is a fixed-capacity FIFO of pool slot indices. Unused
// positions hold NoSlot. A ring never allocates after Reset.
type IndexRing struct {
	slots []int
	head  int // oldest element
	tail  int // next write position
	count int
}

// NewIndexRing allocates a ring able to hold capacity indices.
func NewIndexRing(capacity int) *IndexRing {
	r := &IndexRing{}
	r.Reset(capacity)
	return r
}

// Reset empties the ring and sets its capacity. Storage is reused when it
// is large enough.
func (r *IndexRing) Reset(capacity int) {
	capacity = max(capacity, 0)
	if cap(r.slots) < capacity {
		r.slots = make([]int, capacity)
	}
	r.slots = r.slots[:capacity]
	for i := range r.slots {
		r.slots[i] = NoSlot
	}
	r.head, r.tail, r.count = 0, 0, 0
}

func (r *IndexRing) Len() int   { return r.count }
func (r *IndexRing) Cap() int   { return len(r.slots) }
func (r *IndexRing) Full() bool { return r.count == len(r.slots) }

// Push appends slot. It reports false when the ring is full.
func (r *IndexRing) Push(slot int) bool {
	if r.count == len(r.slots) {
		return false
	}
	r.slots[r.tail] = slot
	r.tail = (r.tail + 1) % len(r.slots)
	r.count++
	return true
}

// Pop removes and returns the oldest slot, or NoSlot when empty.
func (r *IndexRing) Pop() int {
	if r.count == 0 {
		return NoSlot
	}
	slot := r.slots[r.head]
	r.slots[r.head] = NoSlot
	r.head = (r.head + 1) % len(r.slots)
	r.count--
	return slot
}

// Oldest returns the slot Pop would return without removing it.
func (r *IndexRing) Oldest() int {
	if r.count == 0 {
		return NoSlot
	}
	return r.slots[r.head]
}

// At returns the i-th element counting from the oldest, or NoSlot.
func (r *IndexRing) At(i int) int {
	if i < 0 || i >= r.count {
		return NoSlot
	}
	return r.slots[(r.head+i)%len(r.slots)]
}

// Contains reports whether slot is currently queued.
func (r *IndexRing) Contains(slot int) bool {
	for i := range r.count {
		if r.slots[(r.head+i)%len(r.slots)] == slot {
			return true
		}
	}
	return false
}
