// Cache-thrashing worker: touches a multi-GiB array at a fixed stride so
// nearly every access misses the CPU caches.
package stress

import (
	"context"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// Each touch is a read-modify-write so the pass cannot be elided; the values
// drift upward but are never read back.
const (
	thrashScale = 1.0000000001
	thrashBias  = 1.0
)

// CacheWorker walks a large float64 array at a stride wider than a cache
// line, one full pass per iteration.
type CacheWorker struct {
	elements int
	stride   int
	logger   *zap.Logger
	metrics  telemetry.WorkerMetrics
}

// NewCacheWorker creates the single cache-thrash worker.
func NewCacheWorker(elements, stride int, logger *zap.Logger, metrics telemetry.WorkerMetrics) *CacheWorker {
	return &CacheWorker{
		elements: elements,
		stride:   stride,
		logger:   logger,
		metrics:  metrics,
	}
}

// Tag returns the worker tag.
func (w *CacheWorker) Tag() string { return "CACHE" }

// Run allocates the backing array and thrashes it until the token fires.
// The token is polled once per full pass.
func (w *CacheWorker) Run(ctx context.Context, tok *cancel.Token) error {
	data := make([]float64, w.elements)
	w.logger.Info("thrash array allocated",
		zap.Int("elements", w.elements),
		zap.Int("stride", w.stride),
		zap.Int("touches_per_pass", passTouches(w.elements, w.stride)))

	for !tok.IsSet() {
		thrashPass(data, w.stride)
		w.metrics.Iterations.Inc()
	}
	w.logger.Info("thrash loop stopped")
	return nil
}

// thrashPass performs one strided read-modify-write pass and returns the
// number of elements touched.
func thrashPass(data []float64, stride int) int {
	touches := 0
	for i := 0; i < len(data); i += stride {
		data[i] = data[i]*thrashScale + thrashBias
		touches++
	}
	return touches
}

// passTouches is the touch count of one pass: one per stride step.
func passTouches(elements, stride int) int {
	if elements <= 0 || stride <= 0 {
		return 0
	}
	return (elements + stride - 1) / stride
}
