// Memory-pressure worker: keeps allocating large chunks while the ring caps
// how many stay resident.
package stress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// RAMWorker allocates a fresh chunk per iteration, pushes it into the ring
// and rewrites it in place, exercising allocation, eviction and write
// bandwidth together.
type RAMWorker struct {
	chunkLen int
	ring     *ChunkRing
	pause    time.Duration
	logger   *zap.Logger
	metrics  telemetry.WorkerMetrics
}

// NewRAMWorker creates the single memory worker. chunkBytes is rounded down
// to whole int64 elements.
func NewRAMWorker(chunkBytes, ringCapacity int, pause time.Duration, logger *zap.Logger, metrics telemetry.WorkerMetrics) *RAMWorker {
	return &RAMWorker{
		chunkLen: chunkBytes / 8,
		ring:     NewChunkRing(ringCapacity),
		pause:    pause,
		logger:   logger,
		metrics:  metrics,
	}
}

// Tag returns the worker tag.
func (w *RAMWorker) Tag() string { return "RAM" }

// Run allocates until the token fires. Every chunk the ring holds is
// released on every exit path, normal or not.
func (w *RAMWorker) Run(ctx context.Context, tok *cancel.Token) error {
	defer func() {
		w.ring.Release()
		w.logger.Info("chunks released")
	}()

	w.logger.Info("allocation loop started",
		zap.Int("chunk_bytes", w.chunkLen*8),
		zap.Int("ring_capacity", w.ring.capacity))

	for !tok.IsSet() {
		chunk := ascendingChunk(w.chunkLen)
		w.ring.Push(chunk)
		if w.ring.Len() > 1 {
			reverseChunk(chunk)
		}
		w.metrics.Iterations.Inc()
		sleepOrCancel(tok, w.pause)
	}
	w.logger.Info("allocation loop stopped")
	return nil
}

// ascendingChunk allocates n int64 values 0..n-1. The sequential fill forces
// every page of the chunk to be committed, not just reserved.
func ascendingChunk(n int) []int64 {
	chunk := make([]int64, n)
	for i := range chunk {
		chunk[i] = int64(i)
	}
	return chunk
}

// reverseChunk reverses the chunk in place, touching every element again.
func reverseChunk(chunk []int64) {
	for i, j := 0, len(chunk)-1; i < j; i, j = i+1, j-1 {
		chunk[i], chunk[j] = chunk[j], chunk[i]
	}
}
