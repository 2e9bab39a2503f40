package chainmap

// All returns a range-over-func iterator over all key/value pairs in
// traversal order.
//
//	for k, v := range m.All() { ... }
func (m *MapOf[K, V]) All() func(yield func(K, V) bool) { return m.Range }

// Backward returns a range-over-func iterator over all key/value pairs in
// reverse traversal order.
func (m *MapOf[K, V]) Backward() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for e := m.store.tail; e != nil; {
			prev := e.prev
			if !yield(e.key, e.Value) {
				return
			}
			e = prev
		}
	}
}
