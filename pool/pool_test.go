// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"errors"
	"testing"
)

// checkConservation verifies that every slot is either free or referenced
// and that the sum of reference counts equals the ring memberships plus
// outside holders.
func checkConservation(t *testing.T, p *Pool, outside int) {
	t.Helper()

	referenced := 0
	refs := 0
	for slot := range p.Capacity() {
		rc := p.RefCount(slot)
		if rc < 0 {
			t.Fatalf("slot %d has negative refcount %d", slot, rc)
		}
		inFree := p.Free().Contains(slot)
		if rc > 0 && inFree {
			t.Fatalf("slot %d is free while referenced (%d)", slot, rc)
		}
		if rc == 0 && !inFree {
			t.Fatalf("slot %d leaked: refcount 0 but not free", slot)
		}
		if rc > 0 {
			referenced++
		}
		refs += rc
	}

	if p.Free().Len()+referenced != p.Capacity() {
		t.Fatalf("free %d + referenced %d != capacity %d", p.Free().Len(), referenced, p.Capacity())
	}

	memberships := p.Pending().Len() + p.Ready().Len() + p.Window().Len() + outside
	if refs != memberships {
		t.Fatalf("sum of refcounts %d != ring memberships + holders %d", refs, memberships)
	}
}

func TestPool_ConfigureSeedsFreeRing(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(2, 128, 4, 3); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if p.Capacity() != 7 {
		t.Fatalf("Capacity() = %d, want 7", p.Capacity())
	}
	if p.Free().Len() != 7 || p.InUse() != 0 {
		t.Errorf("free=%d inUse=%d, want 7/0", p.Free().Len(), p.InUse())
	}
	if p.Window().Cap() != 4 || p.Pending().Cap() != 3 {
		t.Errorf("window cap=%d pending cap=%d, want 4/3", p.Window().Cap(), p.Pending().Cap())
	}
	in := p.Input(0)
	if in.Channels() != 2 || in.Frames() != 128 {
		t.Errorf("chunk shape = %dx%d, want 2x128", in.Channels(), in.Frames())
	}
	checkConservation(t, p, 0)
}

func TestPool_ConfigureKeepsStorageWhenUnchanged(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(1, 64, 2, 2); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	before := p.Input(1)
	p.Acquire()

	if err := p.Configure(1, 64, 2, 2); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if p.Input(1) != before {
		t.Error("Configure() with identical dimensions reallocated chunks")
	}
	if p.InUse() != 0 {
		t.Error("Configure() did not reset reference counts")
	}

	if err := p.Configure(1, 32, 2, 2); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if p.Input(1).Frames() != 32 {
		t.Error("Configure() with new chunk size did not resize chunks")
	}
}

func TestPool_ConfigureRejectsInvalid(t *testing.T) {
	t.Parallel()

	p := New()
	for _, dims := range [][4]int{{0, 64, 2, 2}, {1, 0, 2, 2}, {1, 64, 0, 2}, {1, 64, 2, -1}} {
		if err := p.Configure(dims[0], dims[1], dims[2], dims[3]); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("Configure(%v) error = %v, want ErrInvalidDimensions", dims, err)
		}
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(1, 16, 2, 1); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	var held []int
	for range p.Capacity() {
		slot := p.Acquire()
		if slot == NoSlot {
			t.Fatal("Acquire() failed before exhaustion")
		}
		held = append(held, slot)
	}
	if p.Acquire() != NoSlot {
		t.Fatal("Acquire() succeeded on exhausted pool")
	}
	checkConservation(t, p, len(held))

	for _, slot := range held {
		if !p.Release(slot) {
			t.Fatalf("Release(%d) = false", slot)
		}
	}
	if p.Release(held[0]) {
		t.Error("double Release() reported success")
	}
	if p.Free().Len() != p.Capacity() {
		t.Errorf("free = %d after releasing all, want %d", p.Free().Len(), p.Capacity())
	}
	checkConservation(t, p, 0)
}

func TestPool_SharedMembership(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(1, 16, 2, 2); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	slot := p.Acquire()
	if !p.RetainInto(p.Window(), slot) || !p.RetainInto(p.Pending(), slot) {
		t.Fatal("RetainInto() failed")
	}
	p.Release(slot)
	checkConservation(t, p, 0)

	if p.RefCount(slot) != 2 {
		t.Fatalf("RefCount() = %d, want 2", p.RefCount(slot))
	}

	p.PopRelease(p.Window())
	if p.Free().Contains(slot) {
		t.Fatal("slot returned to free while still pending")
	}
	checkConservation(t, p, 0)

	p.PopRelease(p.Pending())
	if !p.Free().Contains(slot) {
		t.Fatal("slot not free after last reference dropped")
	}
	checkConservation(t, p, 0)
}

func TestPool_RetainIntoFullRing(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(1, 16, 1, 2); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	a := p.Acquire()
	b := p.Acquire()
	p.RetainInto(p.Window(), a)
	if p.RetainInto(p.Window(), b) {
		t.Fatal("RetainInto() succeeded on full ring")
	}
	if p.RefCount(b) != 1 {
		t.Errorf("failed RetainInto() left refcount %d, want 1", p.RefCount(b))
	}
	checkConservation(t, p, 2)
}

func TestPool_InvalidSlotAccessors(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(1, 16, 1, 1); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	for _, slot := range []int{NoSlot, 2, 100} {
		if p.Input(slot) != nil || p.Output(slot) != nil || p.Entry(slot) != nil {
			t.Errorf("accessors for slot %d returned non-nil", slot)
		}
		if p.Retain(slot) || p.Release(slot) {
			t.Errorf("Retain/Release accepted invalid slot %d", slot)
		}
		if p.RefCount(slot) != -1 {
			t.Errorf("RefCount(%d) = %d, want -1", slot, p.RefCount(slot))
		}
	}
}

func TestPool_RandomWalkConservation(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Configure(1, 8, 3, 2); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	var held []int
	seed := uint32(12345)
	next := func() uint32 {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		return seed
	}

	for range 2000 {
		switch next() % 6 {
		case 0:
			if slot := p.Acquire(); slot != NoSlot {
				held = append(held, slot)
			}
		case 1:
			if len(held) > 0 {
				p.RetainInto(p.Window(), held[0])
			}
		case 2:
			if len(held) > 0 {
				p.RetainInto(p.Pending(), held[len(held)-1])
			}
		case 3:
			if len(held) > 0 {
				p.Release(held[0])
				held = held[1:]
			}
		case 4:
			p.PopRelease(p.Window())
		case 5:
			p.PopRelease(p.Pending())
		}
		checkConservation(t, p, len(held))
	}
}
