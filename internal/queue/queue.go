// Package queue implements the song queue: a FIFO ordered sequence of
// model.Entry with stable UUID identity, blocking peek/pop semantics, and
// mutation operations safe under concurrent admin use.
//
// The queue is the synchronization hinge of the whole system: a blocking
// Peek lets the playback coordinator wait for work without polling, while a
// single mutex around structural mutation prevents torn reads during
// concurrent admin operations. A sync.Cond lets readers suspend instead of
// spinning while the queue is empty.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/syng-dev/syng/internal/model"
)

// ErrClosed is returned by blocking operations when the queue has been
// closed while a caller was waiting.
var ErrClosed = errors.New("queue: closed")

// Queue is a FIFO sequence of *model.Entry.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
	items  []*model.Entry
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Close wakes every blocked Peek/PopFront with ErrClosed. Safe to call more
// than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Append pushes entry to the tail. Non-blocking.
func (q *Queue) Append(entry *model.Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, entry)
	q.cond.Broadcast()
}

// waitForNonEmptyLocked blocks until the queue is non-empty, closed, or ctx
// is done. Caller must hold q.mu; it is released during the wait and
// reacquired before returning.
func (q *Queue) waitForNonEmptyLocked(ctx context.Context) error {
	for len(q.items) == 0 {
		if q.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		q.cond.Wait()
		stop()
	}
	return nil
}

// Peek returns the head entry, suspending until one exists (or ctx is done,
// or the queue is closed). It does not consume: two Peeks without an
// intervening PopFront/Remove(head) return the same entry.
func (q *Queue) Peek(ctx context.Context) (*model.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.waitForNonEmptyLocked(ctx); err != nil {
		return nil, err
	}
	return q.items[0], nil
}

// PopFront suspends until non-empty, then removes and returns the head.
func (q *Queue) PopFront(ctx context.Context) (*model.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.waitForNonEmptyLocked(ctx); err != nil {
		return nil, err
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, nil
}

// Remove deletes the first occurrence of entry by UUID equality. A miss is a
// silent no-op.
func (q *Queue) Remove(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.items {
		if e.UUID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// FindByUUID returns the first matching entry, or nil. O(n).
func (q *Queue) FindByUUID(id uuid.UUID) *model.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.items {
		if e.UUID == id {
			return e
		}
	}
	return nil
}

// MoveUp swaps the entry at index i with the one at i-1, provided i > 1: the
// head ("now playing") and position 1 ("being prepared") are never
// reordered. No-op if id is not found or is already at index 0 or 1.
func (q *Queue) MoveUp(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.items {
		if e.UUID != id {
			continue
		}
		if i <= 1 {
			return
		}
		q.items[i], q.items[i-1] = q.items[i-1], q.items[i]
		return
	}
}

// MoveTo removes the entry and reinserts it at targetIndex. If targetIndex
// is greater than the entry's original index, the insertion index is
// decremented by one to account for the entry's own removal, so the entry
// lands just before the entry that held targetIndex before the move (moving
// index 0 "to index 3" in [a b c d e] gives [b c a d e]).
//
// Unlike MoveUp, MoveTo does not guard the first two positions: an entry
// can be moved to index 0 or 1. A targetIndex past the tail places the
// entry last; a negative one places it first.
func (q *Queue) MoveTo(id uuid.UUID, targetIndex int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	origIndex := -1
	for i, e := range q.items {
		if e.UUID == id {
			origIndex = i
			break
		}
	}
	if origIndex == -1 {
		return
	}

	entry := q.items[origIndex]
	rest := append(append([]*model.Entry{}, q.items[:origIndex]...), q.items[origIndex+1:]...)

	dest := targetIndex
	if targetIndex > origIndex {
		dest--
	}
	if dest < 0 {
		dest = 0
	}
	if dest > len(rest) {
		dest = len(rest)
	}

	result := make([]*model.Entry, 0, len(rest)+1)
	result = append(result, rest[:dest]...)
	result = append(result, entry)
	result = append(result, rest[dest:]...)
	q.items = result
}

// Update applies mutator to the first entry matching id. mutator runs while
// the queue lock is held, so it must not call back into the Queue.
func (q *Queue) Update(id uuid.UUID, mutator func(*model.Entry)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.items {
		if e.UUID == id {
			mutator(e)
			return
		}
	}
}

// Len returns the current number of entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ToList returns a snapshot copy suitable for serialization.
func (q *Queue) ToList() []*model.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.Entry, len(q.items))
	copy(out, q.items)
	return out
}

// Fold left-folds f over the entries in order.
func Fold[T any](q *Queue, init T, f func(acc T, e *model.Entry) T) T {
	q.mu.Lock()
	defer q.mu.Unlock()
	acc := init
	for _, e := range q.items {
		acc = f(acc, e)
	}
	return acc
}
