// Package queue provides the mutex-guarded FIFO used wherever producers on
// other goroutines hand work to the simulation loop or a writer goroutine.
package queue

import "sync"

// Queue is a FIFO safe for concurrent use. The zero value is ready to use.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
}

// TryPush appends item unless limit items are already waiting. A limit of
// zero or less never refuses.
func (q *Queue[T]) TryPush(limit int, item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit > 0 && len(q.items)-q.head >= limit {
		return false
	}
	q.items = append(q.items, item)
	return true
}

func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.head == len(q.items) {
		return zero, false
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items, q.head = q.items[:0], 0
	}
	return item, true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Drain hands back every waiting item in push order. The returned slice is
// owned by the caller.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items[q.head:]
	q.items, q.head = nil, 0
	return out
}
