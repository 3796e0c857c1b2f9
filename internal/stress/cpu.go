// Compute worker: saturates one logical core with dense matrix multiplies.
package stress

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// CPUWorker multiplies two fixed random matrices in a tight loop, discarding
// the result. One instance runs per logical core.
type CPUWorker struct {
	index   int
	size    int
	logger  *zap.Logger
	metrics telemetry.WorkerMetrics
	rng     *rand.Rand
}

// NewCPUWorker creates the compute worker for one core slot.
func NewCPUWorker(index, matrixSize int, logger *zap.Logger, metrics telemetry.WorkerMetrics) *CPUWorker {
	return &CPUWorker{
		index:   index,
		size:    matrixSize,
		logger:  logger,
		metrics: metrics,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano() + int64(index))),
	}
}

// CPUTag returns the tag for the compute worker at the given core slot.
func CPUTag(index int) string {
	return fmt.Sprintf("CPU %d", index)
}

// Tag returns the worker tag, unique per instance.
func (w *CPUWorker) Tag() string {
	return CPUTag(w.index)
}

// Run multiplies until the token fires. The operands stay fixed; only the
// destination is rewritten each iteration.
func (w *CPUWorker) Run(ctx context.Context, tok *cancel.Token) error {
	a := newRandomMatrix(w.rng, w.size)
	b := newRandomMatrix(w.rng, w.size)
	dst := make([]float64, w.size*w.size)

	w.logger.Info("compute loop started", zap.Int("matrix_size", w.size))
	for !tok.IsSet() {
		matmul(dst, a, b, w.size)
		w.metrics.Iterations.Inc()
	}
	w.logger.Info("compute loop stopped")
	return nil
}
