package sluice

import (
	"sync"
	"time"
)

// Failure is a watch poll error and the time it was observed.
type Failure struct {
	Time time.Time
	Err  error
}

// failureRing is a thread-safe ring buffer of recent watch failures.
type failureRing struct {
	mu    sync.RWMutex
	items []Failure
	size  int
	head  int
	count int
}

// newFailureRing creates a ring with the given capacity.
// If size is 0, the ring is disabled and all methods are no-ops.
func newFailureRing(size int) *failureRing {
	if size <= 0 {
		return nil
	}
	return &failureRing{
		items: make([]Failure, size),
		size:  size,
	}
}

// push records a failure, evicting the oldest when full.
func (r *failureRing) push(f Failure) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.head] = f
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// all returns the recorded failures, oldest first.
func (r *failureRing) all() []Failure {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	result := make([]Failure, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		result[i] = r.items[(start+i)%r.size]
	}
	return result
}
