package util

import "runtime"

// GetOptimalPoolSize returns the worker/parser pool size for CPU-bound work.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Parsing goes through cgo, so twice the core count keeps cores busy while
// individual goroutines sit in C calls. The cap bounds parser memory.
//
// Used for:
//   - Parser pool size (parsers per grammar)
//   - Generator workers (source files processed concurrently)
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2
	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}
	return poolSize
}

// GetOptimalPoolSizeWithOverride returns override when positive, otherwise
// GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
