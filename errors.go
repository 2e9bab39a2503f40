package chainmap

import "errors"

var (
	// ErrKeyNotFound is returned by At when the key is absent.
	// Probe with Find or Load first if absence is expected.
	ErrKeyNotFound = errors.New("chainmap: key not found")

	// ErrAllocatorExhausted is returned by a FixedAllocator whose pool
	// has no free entries left.
	ErrAllocatorExhausted = errors.New("chainmap: entry allocator exhausted")

	// ErrNilConstructor is returned by Emplace when construct is nil.
	ErrNilConstructor = errors.New("chainmap: nil entry constructor")
)
