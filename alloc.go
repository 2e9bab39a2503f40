package chainmap

import "unsafe"

// arenaBlockLines is the number of cache lines one arena block spans.
const arenaBlockLines = 16

// Allocator is the allocation strategy for map entries. Acquire hands out
// a zeroed entry with a stable address; Release returns an entry to the
// allocator for reuse. An Allocator instance must not be shared between
// maps, since entries travel with the map that links them.
//
// Acquire reports allocation failure through its error result; a failed
// Acquire must leave the allocator usable.
type Allocator[K, V any] interface {
	Acquire() (*EntryOf[K, V], error)
	Release(e *EntryOf[K, V])
}

// arenaAllocator is the default strategy: entries are carved out of
// blocks sized to a multiple of CacheLineSize, and released entries are
// recycled through an intrusive free list. Acquire never fails.
type arenaAllocator[K, V any] struct {
	free     *EntryOf[K, V]
	perBlock int
}

// NewArenaAllocator returns the default entry allocator.
func NewArenaAllocator[K, V any]() Allocator[K, V] {
	entrySize := unsafe.Sizeof(EntryOf[K, V]{})
	perBlock := int(arenaBlockLines * CacheLineSize / entrySize)
	if perBlock < 4 {
		perBlock = 4
	}
	return &arenaAllocator[K, V]{perBlock: perBlock}
}

func (a *arenaAllocator[K, V]) Acquire() (*EntryOf[K, V], error) {
	if e := a.free; e != nil {
		a.free = e.next
		e.next = nil
		return e, nil
	}
	block := make([]EntryOf[K, V], a.perBlock)
	for i := a.perBlock - 1; i > 0; i-- {
		block[i].next = a.free
		a.free = &block[i]
	}
	return &block[0], nil
}

func (a *arenaAllocator[K, V]) Release(e *EntryOf[K, V]) {
	// Zero the slot so no key or value is retained while on the free list.
	*e = EntryOf[K, V]{next: a.free}
	a.free = e
}

// FixedAllocator is a bounded entry pool: the whole capacity is allocated
// up front and never grows. Acquire returns ErrAllocatorExhausted once the
// pool is empty, which makes allocation failure an ordinary, testable
// error path rather than an out-of-memory abort.
type FixedAllocator[K, V any] struct {
	free *EntryOf[K, V]
}

// NewFixedAllocator returns an allocator holding exactly capacity entries.
func NewFixedAllocator[K, V any](capacity int) *FixedAllocator[K, V] {
	pool := make([]EntryOf[K, V], capacity)
	a := &FixedAllocator[K, V]{}
	for i := capacity - 1; i >= 0; i-- {
		pool[i].next = a.free
		a.free = &pool[i]
	}
	return a
}

func (a *FixedAllocator[K, V]) Acquire() (*EntryOf[K, V], error) {
	e := a.free
	if e == nil {
		return nil, ErrAllocatorExhausted
	}
	a.free = e.next
	e.next = nil
	return e, nil
}

func (a *FixedAllocator[K, V]) Release(e *EntryOf[K, V]) {
	*e = EntryOf[K, V]{next: a.free}
	a.free = e
}
