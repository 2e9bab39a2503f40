// Package chainmap provides MapOf, a hash table with separate chaining,
// caller-supplied hash and equality policies, and stable entry handles.
//
// All entries live in one ordered sequence; a bucket index partitions that
// sequence into contiguous per-bucket runs. Entries never move in memory,
// so a *EntryOf handle stays valid until its own entry is erased, across
// unrelated insertions, erasures, and rehashing.
//
// The hash and equality policies must agree:
//   - equal(a, b) implies hash(seed, a) == hash(seed, b)
//   - equal(a, a) must hold for every key a
//   - keys containing references must not be mutated in ways that change
//     either policy's result while the key is in a map
//
// MapOf is not safe for concurrent use.
package chainmap

import (
	"fmt"
	"hash/maphash"
	"math"
	"math/bits"
	"strings"
)

const (
	// defaultMinBucketCount is the bucket index floor; the index never
	// shrinks below it.
	defaultMinBucketCount = 8
	// defaultMaxLoadFactor is the default entries-per-bucket ceiling.
	defaultMaxLoadFactor = 1.0
)

// HashFunc hashes a key under the given seed. Good policies spread keys
// across all 64 bits of the result.
type HashFunc[K any] func(seed maphash.Seed, key K) uint64

// EqualFunc reports whether two keys are the same key.
type EqualFunc[K any] func(a, b K) bool

// bucketOf describes one bucket: the number of entries currently hashing
// to it and the first of them in the entry sequence. The count entries
// starting at head are always contiguous; count == 0 implies head == nil.
type bucketOf[K, V any] struct {
	count uint32
	head  *EntryOf[K, V]
}

// MapOf maps keys to values with separate chaining. Create instances with
// NewMapOf, NewMapOfWithHasher, or NewMapOfWithAllocator; the zero value
// is not usable because the key policies are bound at construction.
//
// Duplicate-key inserts keep the first value (use Ref to get a mutable
// reference instead). Traversal visits every live entry exactly once in an
// order callers must not depend on.
type MapOf[K, V any] struct {
	buckets  []bucketOf[K, V]
	store    entryStore[K, V]
	seed     maphash.Seed
	keyHash  HashFunc[K]
	keyEqual EqualFunc[K]
	maxLoad  float64

	totalGrowths uint32
}

// MapConfig defines configurable MapOf options.
type MapConfig struct {
	sizeHint      int
	maxLoadFactor float64
}

// WithPresize configures a new MapOf with enough buckets to hold sizeHint
// entries without rehashing. If sizeHint is zero or negative, the value is
// ignored.
func WithPresize(sizeHint int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.sizeHint = sizeHint
	}
}

// WithMaxLoadFactor configures the entries-per-bucket ceiling that
// triggers growth. If f is zero or negative, the value is ignored.
func WithMaxLoadFactor(f float64) func(*MapConfig) {
	return func(c *MapConfig) {
		c.maxLoadFactor = f
	}
}

// NewMapOf creates a MapOf keyed by the built-in hasher and ==.
func NewMapOf[K comparable, V any](options ...func(*MapConfig)) *MapOf[K, V] {
	return NewMapOfWithHasher[K, V](
		maphash.Comparable[K],
		func(a, b K) bool { return a == b },
		options...,
	)
}

// NewMapOfWithHasher creates a MapOf with custom hash and equality
// policies. Both policies are required; see the package comment for the
// contract between them.
func NewMapOfWithHasher[K, V any](
	keyHash HashFunc[K],
	keyEqual EqualFunc[K],
	options ...func(*MapConfig),
) *MapOf[K, V] {
	return NewMapOfWithAllocator[K, V](keyHash, keyEqual, nil, options...)
}

// NewMapOfWithAllocator creates a MapOf with custom policies and a custom
// entry allocation strategy. A nil alloc selects the default arena
// allocator. The allocator becomes owned by the map and must not be shared.
func NewMapOfWithAllocator[K, V any](
	keyHash HashFunc[K],
	keyEqual EqualFunc[K],
	alloc Allocator[K, V],
	options ...func(*MapConfig),
) *MapOf[K, V] {
	if keyHash == nil || keyEqual == nil {
		panic("chainmap: nil key policy")
	}
	m := &MapOf[K, V]{}
	m.init(keyHash, keyEqual, alloc, options...)
	return m
}

func (m *MapOf[K, V]) init(
	keyHash HashFunc[K],
	keyEqual EqualFunc[K],
	alloc Allocator[K, V],
	options ...func(*MapConfig),
) {
	c := &MapConfig{maxLoadFactor: defaultMaxLoadFactor}
	for _, o := range options {
		o(c)
	}
	if c.maxLoadFactor <= 0 {
		c.maxLoadFactor = defaultMaxLoadFactor
	}
	if alloc == nil {
		alloc = NewArenaAllocator[K, V]()
	}

	m.seed = maphash.MakeSeed()
	m.keyHash = keyHash
	m.keyEqual = keyEqual
	m.maxLoad = c.maxLoadFactor
	m.store = entryStore[K, V]{alloc: alloc}
	m.buckets = make([]bucketOf[K, V], calcBucketCount(c.sizeHint, c.maxLoadFactor))
}

// calcBucketCount computes the initial bucket count for a size hint.
// The result is always a power of 2, no smaller than the floor.
func calcBucketCount(sizeHint int, maxLoad float64) int {
	n := defaultMinBucketCount
	if sizeHint > 0 {
		if want := nextPowOf2(int(math.Ceil(float64(sizeHint) / maxLoad))); want > n {
			n = want
		}
	}
	return n
}

func (m *MapOf[K, V]) bucketFor(key K) *bucketOf[K, V] {
	idx := m.keyHash(m.seed, key) & uint64(len(m.buckets)-1)
	return &m.buckets[idx]
}

// scanRun walks b's run comparing keys with the equality policy. It
// returns the matching entry, or nil and the last entry of the run (nil
// for an empty bucket) so the caller can extend the run without a second
// walk.
func (m *MapOf[K, V]) scanRun(b *bucketOf[K, V], key K) (match, last *EntryOf[K, V]) {
	e := b.head
	for i := uint32(0); i < b.count; i++ {
		if m.keyEqual(e.key, key) {
			return e, nil
		}
		last = e
		e = e.next
	}
	return nil, last
}

// linkEntry places e adjacent to b's run and repairs the bucket metadata:
// an empty bucket adopts e as its head, otherwise e goes immediately after
// the run's last entry, keeping the run contiguous.
func (m *MapOf[K, V]) linkEntry(b *bucketOf[K, V], e, last *EntryOf[K, V]) {
	if b.count == 0 {
		m.store.pushBack(e)
		b.head = e
	} else {
		m.store.insertAfter(e, last)
	}
	b.count++
}

// growOnDemand rehashes before an insertion of n entries would push the
// load factor above the ceiling. It reports whether a rehash happened, in
// which case any bucket reference or run position the caller holds is
// stale.
func (m *MapOf[K, V]) growOnDemand(n int) bool {
	target := float64(m.store.len + n)
	if target <= m.maxLoad*float64(len(m.buckets)) {
		return false
	}
	newCount := len(m.buckets) * 2
	for target > m.maxLoad*float64(newCount) {
		newCount *= 2
	}
	m.rehash(newCount)
	return true
}

// Insert adds key with value if the key is absent. It returns the entry
// holding the key, whether an insertion happened, and the allocator's
// error if the entry could not be allocated. Inserting a present key is a
// no-op on the stored value.
func (m *MapOf[K, V]) Insert(key K, value V) (*EntryOf[K, V], bool, error) {
	b := m.bucketFor(key)
	match, last := m.scanRun(b, key)
	if match != nil {
		return match, false, nil
	}
	if m.growOnDemand(1) {
		b = m.bucketFor(key)
		_, last = m.scanRun(b, key)
	}
	e, err := m.store.acquire()
	if err != nil {
		return nil, false, err
	}
	e.key, e.Value = key, value
	m.linkEntry(b, e, last)
	return e, true, nil
}

// Emplace constructs an entry in place: the slot is acquired first and
// construct fills it. If construct fails, or the key turns out to be
// present, the speculative slot is released back to the allocator and the
// map is left unchanged; on the duplicate path the existing entry is
// returned with inserted == false.
func (m *MapOf[K, V]) Emplace(construct func() (K, V, error)) (*EntryOf[K, V], bool, error) {
	if construct == nil {
		return nil, false, ErrNilConstructor
	}
	e, err := m.store.acquire()
	if err != nil {
		return nil, false, err
	}
	key, value, err := construct()
	if err != nil {
		m.store.release(e)
		return nil, false, err
	}
	e.key, e.Value = key, value

	b := m.bucketFor(key)
	match, last := m.scanRun(b, key)
	if match != nil {
		m.store.release(e)
		return match, false, nil
	}
	if m.growOnDemand(1) {
		b = m.bucketFor(key)
		_, last = m.scanRun(b, key)
	}
	m.linkEntry(b, e, last)
	return e, true, nil
}

// Find returns the entry holding key, or nil if the key is absent.
// Find never mutates the map and never triggers growth.
func (m *MapOf[K, V]) Find(key K) *EntryOf[K, V] {
	match, _ := m.scanRun(m.bucketFor(key), key)
	return match
}

// Load retrieves the value stored for key.
func (m *MapOf[K, V]) Load(key K) (value V, ok bool) {
	if e := m.Find(key); e != nil {
		return e.Value, true
	}
	return
}

// At returns a pointer to the value stored for key, or ErrKeyNotFound.
func (m *MapOf[K, V]) At(key K) (*V, error) {
	if e := m.Find(key); e != nil {
		return &e.Value, nil
	}
	return nil, ErrKeyNotFound
}

// Ref returns a pointer to the live value for key, inserting a zero value
// first when the key is absent. The only possible error is the
// allocator's.
func (m *MapOf[K, V]) Ref(key K) (*V, error) {
	b := m.bucketFor(key)
	match, last := m.scanRun(b, key)
	if match != nil {
		return &match.Value, nil
	}
	if m.growOnDemand(1) {
		b = m.bucketFor(key)
		_, last = m.scanRun(b, key)
	}
	e, err := m.store.acquire()
	if err != nil {
		return nil, err
	}
	e.key = key
	m.linkEntry(b, e, last)
	return &e.Value, nil
}

// Erase removes the entry e from the map and returns e's successor in
// traversal order (nil if e was last). e must be a live handle obtained
// from this map; it is invalid once Erase returns.
func (m *MapOf[K, V]) Erase(e *EntryOf[K, V]) *EntryOf[K, V] {
	b := m.bucketFor(e.key)
	if b.head == e {
		if b.count == 1 {
			b.head = nil
		} else {
			// The run is contiguous, so the in-sequence successor is the
			// run's next entry.
			b.head = e.next
		}
	}
	b.count--
	next := m.store.remove(e)
	m.store.release(e)
	return next
}

// Delete removes the entry holding key and reports whether one existed.
func (m *MapOf[K, V]) Delete(key K) bool {
	e := m.Find(key)
	if e == nil {
		return false
	}
	m.Erase(e)
	return true
}

// Clear removes all entries and shrinks the bucket index back to the
// minimum bucket count. Allocated entries are returned to the allocator.
func (m *MapOf[K, V]) Clear() {
	for e := m.store.head; e != nil; {
		next := e.next
		m.store.release(e)
		e = next
	}
	m.store.head, m.store.tail, m.store.len = nil, nil, 0
	m.buckets = make([]bucketOf[K, V], defaultMinBucketCount)
}

// Rehash resizes the bucket index to at least bucketCount buckets (never
// below the minimum, never below what the current occupancy requires) and
// reindexes every live entry. Entry handles stay valid; traversal order is
// recomputed.
func (m *MapOf[K, V]) Rehash(bucketCount int) {
	m.rehash(bucketCount)
}

// rehash rebuilds both structures under a new bucket count: the entry
// sequence is detached, stable-partitioned into per-bucket chains, and the
// chains are stitched back in bucket order. Reusing the old sequence order
// would only be correct when old chains stay contiguous under the new
// count, so the order is always rebuilt. O(size + bucketCount).
func (m *MapOf[K, V]) rehash(bucketCount int) {
	if need := int(math.Ceil(float64(m.store.len) / m.maxLoad)); bucketCount < need {
		bucketCount = need
	}
	if bucketCount < defaultMinBucketCount {
		bucketCount = defaultMinBucketCount
	}
	bucketCount = nextPowOf2(bucketCount)

	buckets := make([]bucketOf[K, V], bucketCount)
	tails := make([]*EntryOf[K, V], bucketCount)
	mask := uint64(bucketCount - 1)

	e := m.store.head
	m.store.head, m.store.tail = nil, nil
	for e != nil {
		next := e.next
		idx := m.keyHash(m.seed, e.key) & mask
		b := &buckets[idx]
		if b.count == 0 {
			b.head = e
			e.prev = nil
		} else {
			t := tails[idx]
			t.next = e
			e.prev = t
		}
		e.next = nil
		tails[idx] = e
		b.count++
		e = next
	}

	var head, tail *EntryOf[K, V]
	for i := range buckets {
		b := &buckets[i]
		if b.count == 0 {
			continue
		}
		if head == nil {
			head = b.head
		} else {
			tail.next = b.head
			b.head.prev = tail
		}
		tail = tails[i]
	}
	m.store.head, m.store.tail = head, tail

	if bucketCount > len(m.buckets) {
		m.totalGrowths++
	}
	m.buckets = buckets
}

// Reserve grows the bucket index so that n entries fit without further
// rehashing under the current max load factor.
func (m *MapOf[K, V]) Reserve(n int) {
	if n <= 0 {
		return
	}
	if need := nextPowOf2(int(math.Ceil(float64(n) / m.maxLoad))); need > len(m.buckets) {
		m.rehash(need)
	}
}

// Size returns the number of live entries.
func (m *MapOf[K, V]) Size() int { return m.store.len }

// IsZero reports whether the map holds no entries.
func (m *MapOf[K, V]) IsZero() bool { return m.store.len == 0 }

// BucketCount returns the current size of the bucket index.
func (m *MapOf[K, V]) BucketCount() int { return len(m.buckets) }

// LoadFactor returns the current entries-per-bucket ratio.
func (m *MapOf[K, V]) LoadFactor() float64 {
	return float64(m.store.len) / float64(len(m.buckets))
}

// MaxLoadFactor returns the entries-per-bucket ceiling.
func (m *MapOf[K, V]) MaxLoadFactor() float64 { return m.maxLoad }

// SetMaxLoadFactor changes the entries-per-bucket ceiling, rehashing
// immediately if the current occupancy violates it. Non-positive values
// are ignored.
func (m *MapOf[K, V]) SetMaxLoadFactor(f float64) {
	if f <= 0 {
		return
	}
	m.maxLoad = f
	if m.LoadFactor() > f {
		m.rehash(int(math.Ceil(float64(m.store.len) / f)))
	}
}

// Clone returns a deep copy of the map: same policies, same ceiling, an
// independent bucket index sized to the source occupancy, and entries from
// a fresh default allocator. If allocation fails partway, the partial copy
// is released and only the error is returned.
func (m *MapOf[K, V]) Clone() (*MapOf[K, V], error) {
	clone := &MapOf[K, V]{}
	clone.init(m.keyHash, m.keyEqual, nil,
		WithPresize(m.store.len), WithMaxLoadFactor(m.maxLoad))
	clone.seed = m.seed
	for e := m.store.head; e != nil; e = e.next {
		if _, _, err := clone.Insert(e.key, e.Value); err != nil {
			clone.Clear()
			return nil, err
		}
	}
	return clone, nil
}

// MoveFrom steals src's entries, bucket index, policies, and allocator,
// releasing m's previous entries first. src is left empty and valid, with
// a fresh default allocator.
func (m *MapOf[K, V]) MoveFrom(src *MapOf[K, V]) {
	if m == src {
		return
	}
	m.Clear()
	m.buckets = src.buckets
	m.store = src.store
	m.seed = src.seed
	m.keyHash = src.keyHash
	m.keyEqual = src.keyEqual
	m.maxLoad = src.maxLoad

	src.store = entryStore[K, V]{alloc: NewArenaAllocator[K, V]()}
	src.buckets = make([]bucketOf[K, V], defaultMinBucketCount)
}

// Swap exchanges the complete contents of two maps, including policies
// and allocators.
func (m *MapOf[K, V]) Swap(other *MapOf[K, V]) {
	if m == other {
		return
	}
	*m, *other = *other, *m
}

// Front returns the first entry in traversal order, or nil when empty.
func (m *MapOf[K, V]) Front() *EntryOf[K, V] { return m.store.head }

// Back returns the last entry in traversal order, or nil when empty.
func (m *MapOf[K, V]) Back() *EntryOf[K, V] { return m.store.tail }

// RangeEntry calls yield for every live entry until yield returns false.
// Erasing the current entry inside yield is allowed; erasing any other
// entry or inserting during iteration is not.
func (m *MapOf[K, V]) RangeEntry(yield func(e *EntryOf[K, V]) bool) {
	for e := m.store.head; e != nil; {
		next := e.next
		if !yield(e) {
			return
		}
		e = next
	}
}

// Range calls yield for every key/value until yield returns false.
func (m *MapOf[K, V]) Range(yield func(key K, value V) bool) {
	m.RangeEntry(func(e *EntryOf[K, V]) bool {
		return yield(e.key, e.Value)
	})
}

// RangeKeys calls yield for every key until yield returns false.
func (m *MapOf[K, V]) RangeKeys(yield func(key K) bool) {
	m.RangeEntry(func(e *EntryOf[K, V]) bool {
		return yield(e.key)
	})
}

// RangeValues calls yield for every value until yield returns false.
func (m *MapOf[K, V]) RangeValues(yield func(value V) bool) {
	m.RangeEntry(func(e *EntryOf[K, V]) bool {
		return yield(e.Value)
	})
}

// MapStats is a point-in-time snapshot of map internals, for debugging
// and tuning. Retrieve it with Stats.
type MapStats struct {
	Size         int
	BucketCount  int
	EmptyBuckets int
	MaxRunLength int
	LoadFactor   float64
	TotalGrowths uint32
}

// Stats returns the current MapStats. O(BucketCount).
func (m *MapOf[K, V]) Stats() MapStats {
	s := MapStats{
		Size:         m.store.len,
		BucketCount:  len(m.buckets),
		LoadFactor:   m.LoadFactor(),
		TotalGrowths: m.totalGrowths,
	}
	for i := range m.buckets {
		n := int(m.buckets[i].count)
		if n == 0 {
			s.EmptyBuckets++
		}
		if n > s.MaxRunLength {
			s.MaxRunLength = n
		}
	}
	return s
}

// String returns a string representation of map stats.
func (s *MapStats) String() string {
	var sb strings.Builder
	sb.WriteString("MapStats{\n")
	sb.WriteString(fmt.Sprintf("Size:         %d\n", s.Size))
	sb.WriteString(fmt.Sprintf("BucketCount:  %d\n", s.BucketCount))
	sb.WriteString(fmt.Sprintf("EmptyBuckets: %d\n", s.EmptyBuckets))
	sb.WriteString(fmt.Sprintf("MaxRunLength: %d\n", s.MaxRunLength))
	sb.WriteString(fmt.Sprintf("LoadFactor:   %.2f\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("TotalGrowths: %d\n", s.TotalGrowths))
	sb.WriteString("}\n")
	return sb.String()
}

// nextPowOf2 calculates the smallest power of 2 that is greater than or
// equal to n. Compatible with both 32-bit and 64-bit systems.
func nextPowOf2(n int) int {
	if n <= 0 {
		return 1
	}

	if bits.UintSize == 32 {
		v := uint32(n)
		v--
		v |= v >> 1
		v |= v >> 2
		v |= v >> 4
		v |= v >> 8
		v |= v >> 16
		v++
		return int(v)
	}

	v := uint64(n)
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return int(v)
}
