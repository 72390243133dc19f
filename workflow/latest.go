package workflow

import "sync"

// Latest is a value slot fed by asynchronous requests. Each request takes a
// sequence number from Begin; Complete applies its result only if no newer
// request has been issued since, so out-of-order responses are discarded
// deterministically.
type Latest[T any] struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	value   T
	ok      bool
}

// Begin issues the next sequence number.
func (l *Latest[T]) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return l.issued
}

// Complete stores v if seq is the latest issued number and reports whether
// it did.
func (l *Latest[T]) Complete(seq uint64, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.issued {
		return false
	}
	l.value, l.ok, l.applied = v, true, seq
	return true
}

// Get returns the last applied value. ok is false if nothing was applied.
func (l *Latest[T]) Get() (v T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.ok
}

// Pending reports whether the latest issued request has not completed.
func (l *Latest[T]) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issued != l.applied
}

// Reset empties the slot. Requests already in flight become stale.
func (l *Latest[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	l.issued++
	l.applied = l.issued
	l.value, l.ok = zero, false
}
