// Package stress implements the subsystem workers. Each worker is an
// independent loop that saturates one resource (compute, cache, RAM, disk,
// network, scheduler) until the shared cancellation token fires. Workers
// share nothing beyond the token and their tagged loggers.
package stress

import (
	"context"
	"time"

	"github.com/burnin-project/burnin/internal/cancel"
)

// Worker is one stress loop. Run blocks until the token is set or the worker
// hits a fatal condition; the returned error is fatal for this worker only.
// The context carries the pool's stop request and bounds any blocking I/O.
type Worker interface {
	Tag() string
	Run(ctx context.Context, tok *cancel.Token) error
}

// sleepOrCancel pauses for d, returning early when the token fires.
func sleepOrCancel(tok *cancel.Token, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-tok.Done():
	case <-timer.C:
	}
}
