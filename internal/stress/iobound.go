// Context-switch worker: does no useful work, just yields to the scheduler
// as fast as possible.
package stress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// IOBoundWorker sleeps for a handful of microseconds per iteration, forcing
// constant suspend and resume traffic through the OS scheduler.
type IOBoundWorker struct {
	sleep   time.Duration
	logger  *zap.Logger
	metrics telemetry.WorkerMetrics
}

// NewIOBoundWorker creates the single context-switch worker.
func NewIOBoundWorker(sleep time.Duration, logger *zap.Logger, metrics telemetry.WorkerMetrics) *IOBoundWorker {
	return &IOBoundWorker{
		sleep:   sleep,
		logger:  logger,
		metrics: metrics,
	}
}

// Tag returns the worker tag.
func (w *IOBoundWorker) Tag() string { return "IO_BOUND" }

// Run sleeps in a tight loop until the token fires.
func (w *IOBoundWorker) Run(ctx context.Context, tok *cancel.Token) error {
	w.logger.Info("context-switch loop started", zap.Duration("sleep", w.sleep))
	for !tok.IsSet() {
		time.Sleep(w.sleep)
		w.metrics.Iterations.Inc()
	}
	w.logger.Info("context-switch loop stopped")
	return nil
}
