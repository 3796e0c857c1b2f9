// Bounded FIFO of large allocations, owned by the RAM worker.
package stress

import "sync"

// ChunkRing keeps the most recently allocated chunks and drops the oldest
// once the capacity is reached, bounding resident growth no matter how long
// the worker runs.
type ChunkRing struct {
	mu       sync.Mutex
	chunks   [][]int64
	capacity int
}

// NewChunkRing creates a ring holding at most capacity chunks.
func NewChunkRing(capacity int) *ChunkRing {
	return &ChunkRing{capacity: capacity}
}

// Push appends chunk, evicting the oldest entry first when the ring is full.
func (r *ChunkRing) Push(chunk []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.chunks) == r.capacity {
		copy(r.chunks, r.chunks[1:])
		r.chunks[len(r.chunks)-1] = chunk
		return
	}
	r.chunks = append(r.chunks, chunk)
}

// Len returns the number of chunks currently held.
func (r *ChunkRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

// Chunks returns the held chunks in insertion order.
func (r *ChunkRing) Chunks() [][]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]int64, len(r.chunks))
	copy(out, r.chunks)
	return out
}

// Release drops every chunk so the backing memory can be reclaimed.
func (r *ChunkRing) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = nil
}
