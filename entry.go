package chainmap

// EntryOf is a single key/value entry of a MapOf. Pointers to it act as
// stable handles: an entry never moves in memory once inserted, so a
// *EntryOf stays valid across insertions and erasures of other entries,
// and across rehashing. It is invalidated only by erasure of the entry
// itself (Erase, Delete, Clear).
//
// The key is fixed at insertion time; Value may be mutated freely.
type EntryOf[K, V any] struct {
	Value V

	key  K
	prev *EntryOf[K, V]
	next *EntryOf[K, V]
}

// Key returns the entry's key.
func (e *EntryOf[K, V]) Key() K { return e.key }

// Next returns the entry that follows e in traversal order,
// or nil if e is the last entry.
func (e *EntryOf[K, V]) Next() *EntryOf[K, V] { return e.next }

// Prev returns the entry that precedes e in traversal order,
// or nil if e is the first entry.
func (e *EntryOf[K, V]) Prev() *EntryOf[K, V] { return e.prev }

// entryStore is an ordered sequence of entries with O(1) append,
// O(1) insertion after a given entry, and O(1) unlinking. Entries are
// obtained from and returned to the owning Allocator; the links are
// intrusive, so the store itself never allocates.
type entryStore[K, V any] struct {
	head  *EntryOf[K, V]
	tail  *EntryOf[K, V]
	len   int
	alloc Allocator[K, V]
}

func (s *entryStore[K, V]) acquire() (*EntryOf[K, V], error) {
	return s.alloc.Acquire()
}

func (s *entryStore[K, V]) release(e *EntryOf[K, V]) {
	s.alloc.Release(e)
}

// pushBack links e as the last entry.
func (s *entryStore[K, V]) pushBack(e *EntryOf[K, V]) {
	e.prev, e.next = s.tail, nil
	if s.tail == nil {
		s.head = e
	} else {
		s.tail.next = e
	}
	s.tail = e
	s.len++
}

// insertAfter links e immediately after at. at must be linked.
func (s *entryStore[K, V]) insertAfter(e, at *EntryOf[K, V]) {
	e.prev, e.next = at, at.next
	if at.next == nil {
		s.tail = e
	} else {
		at.next.prev = e
	}
	at.next = e
	s.len++
}

// remove unlinks e and returns its successor (nil if e was last).
// e is not released; the caller decides whether the slot is recycled.
func (s *entryStore[K, V]) remove(e *EntryOf[K, V]) *EntryOf[K, V] {
	next := e.next
	if e.prev == nil {
		s.head = e.next
	} else {
		e.prev.next = e.next
	}
	if e.next == nil {
		s.tail = e.prev
	} else {
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
	s.len--
	return next
}
