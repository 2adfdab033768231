// Package history keeps a bounded record of recent ingestion cycles.
package history

import "sync"

// Ring is a fixed-capacity circular buffer. When full, Push overwrites the
// oldest entry.
type Ring[T any] struct {
	buffer []T
	size   int
	head   int
	count  int
	mu     sync.RWMutex
}

// NewRing creates a ring holding at most size entries. Sizes below one are
// raised to one.
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

// Push adds an entry.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer[r.head] = v
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// Count returns the number of entries held.
func (r *Ring[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}

// Cap returns the capacity.
func (r *Ring[T]) Cap() int {
	return r.size
}

// Latest returns the most recent entry.
func (r *Ring[T]) Latest() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buffer[(r.head-1+r.size)%r.size], true
}

// Recent returns up to n entries, newest first.
func (r *Ring[T]) Recent(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count || n <= 0 {
		n = r.count
	}
	out := make([]T, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, r.buffer[(r.head-i+r.size)%r.size])
	}
	return out
}
