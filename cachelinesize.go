//go:build !chainmap_opt_cachelinesize_32 && !chainmap_opt_cachelinesize_64 && !chainmap_opt_cachelinesize_128 && !chainmap_opt_cachelinesize_256

package chainmap

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the allocation granularity used when sizing entry
// arena blocks. It's automatically calculated using the `golang.org/x/sys`
// package, and can be pinned with the chainmap_opt_cachelinesize_* build tags.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})
