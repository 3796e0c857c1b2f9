// GPU-placeholder worker: models an accelerator's workload on the CPU with a
// much larger matrix than the per-core compute workers. Real GPU offload is
// out of scope.
package stress

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// GPUWorker runs oversized matrix multiplies. Each iteration reallocates and
// re-randomizes both operands with a small probability, simulating the
// host-to-device transfer overhead a real accelerator would see.
type GPUWorker struct {
	size          int
	reallocChance float64
	logger        *zap.Logger
	metrics       telemetry.WorkerMetrics
	rng           *rand.Rand
}

// NewGPUWorker creates the single GPU-placeholder worker.
func NewGPUWorker(matrixSize int, reallocChance float64, logger *zap.Logger, metrics telemetry.WorkerMetrics) *GPUWorker {
	return &GPUWorker{
		size:          matrixSize,
		reallocChance: reallocChance,
		logger:        logger,
		metrics:       metrics,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Tag returns the worker tag.
func (w *GPUWorker) Tag() string { return "GPU" }

// Run multiplies until the token fires.
func (w *GPUWorker) Run(ctx context.Context, tok *cancel.Token) error {
	a := newRandomMatrix(w.rng, w.size)
	b := newRandomMatrix(w.rng, w.size)
	dst := make([]float64, w.size*w.size)

	w.logger.Info("compute loop started",
		zap.Int("matrix_size", w.size),
		zap.Float64("realloc_chance", w.reallocChance))
	for !tok.IsSet() {
		if w.rng.Float64() < w.reallocChance {
			a = newRandomMatrix(w.rng, w.size)
			b = newRandomMatrix(w.rng, w.size)
			w.logger.Debug("operands reallocated")
		}
		matmul(dst, a, b, w.size)
		w.metrics.Iterations.Inc()
	}
	w.logger.Info("compute loop stopped")
	return nil
}
