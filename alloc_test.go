package chainmap

import (
	"errors"
	"testing"
)

func TestArenaAllocatorReuse(t *testing.T) {
	a := NewArenaAllocator[string, int]()
	e, err := a.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	e.key, e.Value = "k", 7

	a.Release(e)
	e2, err := a.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if e2 != e {
		t.Fatalf("free list did not reuse the slot: %p vs %p", e2, e)
	}
	if e2.key != "" || e2.Value != 0 || e2.next != nil || e2.prev != nil {
		t.Fatalf("reused slot not zeroed: %+v", e2)
	}
}

func TestArenaAllocatorDistinctSlots(t *testing.T) {
	a := NewArenaAllocator[int, int]()
	seen := make(map[*EntryOf[int, int]]bool)
	// Enough to span several blocks.
	for i := 0; i < 1000; i++ {
		e, err := a.Acquire()
		if err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
		if seen[e] {
			t.Fatalf("slot %p handed out twice", e)
		}
		seen[e] = true
	}
}

func TestFixedAllocatorExhaustion(t *testing.T) {
	a := NewFixedAllocator[int, int](2)
	e1, err := a.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, err = a.Acquire(); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, err = a.Acquire(); !errors.Is(err, ErrAllocatorExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	// A failed Acquire leaves the pool usable; Release refills it.
	a.Release(e1)
	if _, err = a.Acquire(); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestFixedAllocatorZeroCapacity(t *testing.T) {
	a := NewFixedAllocator[int, int](0)
	if _, err := a.Acquire(); !errors.Is(err, ErrAllocatorExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
}
