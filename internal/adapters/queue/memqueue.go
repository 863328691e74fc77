package queue

import (
	"sync"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// MemQueue is a bounded FIFO of telemetry records backed by a ring buffer. Records
// refused because the ring is full are counted per vector name.
type MemQueue struct {
	mu       sync.Mutex
	ring     []ports.QueuedRecord
	head     int
	n        int
	rejected map[string]uint64
}

func NewMemQueue(capacity int) *MemQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemQueue{
		ring:     make([]ports.QueuedRecord, capacity),
		rejected: make(map[string]uint64),
	}
}

func (q *MemQueue) Enqueue(id ports.WALEntryID, r *domain.Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == len(q.ring) {
		if r != nil {
			q.rejected[r.Name]++
		}
		return false
	}
	q.ring[(q.head+q.n)%len(q.ring)] = ports.QueuedRecord{ID: id, Record: r}
	q.n++
	return true
}

// DequeueBatch removes up to max records in arrival order. max <= 0 drains the queue.
func (q *MemQueue) DequeueBatch(max int) []ports.QueuedRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return nil
	}
	if max <= 0 || max > q.n {
		max = q.n
	}
	out := make([]ports.QueuedRecord, max)
	for i := range out {
		slot := (q.head + i) % len(q.ring)
		out[i] = q.ring[slot]
		q.ring[slot] = ports.QueuedRecord{}
	}
	q.head = (q.head + max) % len(q.ring)
	q.n -= max
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Rejected returns how many records of each vector name found the queue full.
func (q *MemQueue) Rejected() map[string]uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]uint64, len(q.rejected))
	for name, n := range q.rejected {
		out[name] = n
	}
	return out
}

var _ ports.RecordQueue = (*MemQueue)(nil)
