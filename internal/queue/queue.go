// Package queue provides the chunk queue: the single shared, bounded-
// consumer source of chunk descriptors. It is deliberately the simplest
// possible shared structure — work stealing is achieved by pull rather
// than push, so a mutex-guarded slice is sufficient; there is no producer
// once the queue is populated, so no blocking beyond the critical section
// is ever needed.
package queue

import (
	"sync"

	"github.com/five82/clustercode/internal/chunk"
)

// ChunkQueue hands out pending chunks to any number of concurrent consumers,
// exactly once each, and reports Drained to latecomers. The zero value is
// not usable; use New.
type ChunkQueue struct {
	mu      sync.Mutex
	pending []chunk.Chunk
}

// New creates a ChunkQueue pre-populated with chunks, in a single operation
// performed before any consumer starts. Order among takers afterward is
// unspecified.
func New(chunks []chunk.Chunk) *ChunkQueue {
	q := &ChunkQueue{
		pending: make([]chunk.Chunk, len(chunks)),
	}
	copy(q.pending, chunks)
	return q
}

// Take atomically removes and returns one pending chunk. ok is false once
// the queue is drained.
func (q *ChunkQueue) Take() (c chunk.Chunk, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return chunk.Chunk{}, false
	}

	c = q.pending[0]
	q.pending = q.pending[1:]
	return c, true
}

// Remaining reports how many chunks have not yet been taken. Intended for
// progress reporting only; callers must not use it to decide whether Take
// will succeed, since another consumer may take concurrently.
func (q *ChunkQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
