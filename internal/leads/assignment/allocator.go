// Package assignment distributes new leads across eligible sales users in
// round-robin order.
package assignment

import (
	"sync"

	"github.com/google/uuid"
)

// Assignee is a user eligible to receive leads.
type Assignee struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Allocator hands out assignees one at a time, cycling through the pool in
// the order the caller provides it. The cursor lives in process memory, so
// fairness is best effort across restarts: after a restart the rotation
// begins again at the first assignee.
type Allocator struct {
	mu     sync.Mutex
	cursor int
}

// NewAllocator returns an allocator whose first pick is the first assignee
// in the pool.
func NewAllocator() *Allocator {
	return &Allocator{cursor: -1}
}

// Next returns the next assignee in rotation, or nil when the pool is empty.
// The pool is expected in a stable order (the caller sorts by creation time)
// so that consecutive calls walk it fairly. A pool that shrank since the
// last call wraps the cursor instead of skipping anyone.
func (a *Allocator) Next(pool []Assignee) *Assignee {
	if len(pool) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cursor = (a.cursor + 1) % len(pool)
	picked := pool[a.cursor]
	return &picked
}
