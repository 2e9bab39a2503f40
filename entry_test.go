package chainmap

import "testing"

func newTestStore() *entryStore[int, int] {
	return &entryStore[int, int]{alloc: NewArenaAllocator[int, int]()}
}

func mustAcquire(t *testing.T, s *entryStore[int, int], key int) *EntryOf[int, int] {
	t.Helper()
	e, err := s.acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	e.key = key
	return e
}

func storeKeys(s *entryStore[int, int]) []int {
	var keys []int
	for e := s.head; e != nil; e = e.next {
		keys = append(keys, e.key)
	}
	return keys
}

func TestEntryStorePushBack(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 4; i++ {
		s.pushBack(mustAcquire(t, s, i))
	}
	if s.len != 4 {
		t.Fatalf("len %d, want 4", s.len)
	}
	got := storeKeys(s)
	for i, k := range got {
		if k != i {
			t.Fatalf("order %v", got)
		}
	}
	if s.head.prev != nil || s.tail.next != nil {
		t.Fatal("sequence ends not nil-terminated")
	}
}

func TestEntryStoreInsertAfter(t *testing.T) {
	s := newTestStore()
	a := mustAcquire(t, s, 1)
	c := mustAcquire(t, s, 3)
	s.pushBack(a)
	s.pushBack(c)

	b := mustAcquire(t, s, 2)
	s.insertAfter(b, a)
	got := storeKeys(s)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("order %v, want [1 2 3]", got)
	}

	// Insertion after the tail must move the tail.
	d := mustAcquire(t, s, 4)
	s.insertAfter(d, c)
	if s.tail != d {
		t.Fatalf("tail is %d, want 4", s.tail.key)
	}
	if d.prev != c || c.next != d {
		t.Fatal("tail links wrong")
	}
}

func TestEntryStoreRemove(t *testing.T) {
	s := newTestStore()
	var es []*EntryOf[int, int]
	for i := 0; i < 3; i++ {
		e := mustAcquire(t, s, i)
		s.pushBack(e)
		es = append(es, e)
	}

	if next := s.remove(es[1]); next != es[2] {
		t.Fatalf("remove returned %v, want successor", next)
	}
	if next := s.remove(es[2]); next != nil {
		t.Fatalf("remove of tail returned %v, want nil", next)
	}
	if next := s.remove(es[0]); next != nil {
		t.Fatalf("remove of last entry returned %v, want nil", next)
	}
	if s.len != 0 || s.head != nil || s.tail != nil {
		t.Fatalf("store not empty: len=%d head=%p tail=%p", s.len, s.head, s.tail)
	}
}

func TestEntryHandleStability(t *testing.T) {
	s := newTestStore()
	target := mustAcquire(t, s, 100)
	s.pushBack(target)

	// Unrelated churn must not disturb the handle.
	var churn []*EntryOf[int, int]
	for i := 0; i < 64; i++ {
		e := mustAcquire(t, s, i)
		s.pushBack(e)
		churn = append(churn, e)
	}
	for _, e := range churn {
		s.remove(e)
		s.release(e)
	}
	if target.key != 100 || s.head != target {
		t.Fatalf("handle disturbed: key=%d", target.key)
	}
}
