package ipc

import (
	"sync"

	"soleondash/internal/telemetry"
)

// batchQueue is an unbounded FIFO shared by one pushing and one popping
// goroutine.
type batchQueue struct {
	mu    sync.Mutex
	items []telemetry.Batch
	head  int
}

func (q *batchQueue) push(b telemetry.Batch) {
	q.mu.Lock()
	q.items = append(q.items, b)
	q.mu.Unlock()
}

func (q *batchQueue) pop() (telemetry.Batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.items) {
		return nil, false
	}
	b := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return b, true
}

// drain removes and returns everything queued.
func (q *batchQueue) drain() []telemetry.Batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.items) {
		return nil
	}
	out := make([]telemetry.Batch, len(q.items)-q.head)
	copy(out, q.items[q.head:])
	q.items = q.items[:0]
	q.head = 0
	return out
}

func (q *batchQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
