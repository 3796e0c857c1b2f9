package stress

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// testMetrics returns unregistered instruments so tests can count iterations
// without a full collector.
func testMetrics() telemetry.WorkerMetrics {
	return telemetry.WorkerMetrics{
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_iterations_total"}),
		Errors:     prometheus.NewCounter(prometheus.CounterOpts{Name: "test_errors_total"}),
	}
}

func counterValue(c prometheus.Counter) float64 {
	return testutil.ToFloat64(c)
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// runWorker starts w and returns a channel carrying its Run result.
func runWorker(w Worker, tok *cancel.Token) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), tok)
	}()
	return done
}

func waitStopped(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
		return nil
	}
}

func TestCPUWorkerStopsOnToken(t *testing.T) {
	m := testMetrics()
	w := NewCPUWorker(3, 16, zap.NewNop(), m)

	if got := w.Tag(); got != "CPU 3" {
		t.Errorf("Tag = %q, want %q", got, "CPU 3")
	}

	tok := cancel.NewToken()
	done := runWorker(w, tok)

	waitFor(t, 5*time.Second, "first multiply", func() bool {
		return counterValue(m.Iterations) >= 1
	})
	tok.Set()
	if err := waitStopped(t, done); err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestGPUWorkerReallocatesAndStops(t *testing.T) {
	m := testMetrics()
	// Realloc chance 1 exercises the operand refresh path every iteration.
	w := NewGPUWorker(16, 1.0, zap.NewNop(), m)

	if got := w.Tag(); got != "GPU" {
		t.Errorf("Tag = %q, want %q", got, "GPU")
	}

	tok := cancel.NewToken()
	done := runWorker(w, tok)

	waitFor(t, 5*time.Second, "two multiplies", func() bool {
		return counterValue(m.Iterations) >= 2
	})
	tok.Set()
	if err := waitStopped(t, done); err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestIOBoundWorkerStopsOnToken(t *testing.T) {
	m := testMetrics()
	w := NewIOBoundWorker(time.Microsecond, zap.NewNop(), m)

	if got := w.Tag(); got != "IO_BOUND" {
		t.Errorf("Tag = %q, want %q", got, "IO_BOUND")
	}

	tok := cancel.NewToken()
	done := runWorker(w, tok)

	waitFor(t, 5*time.Second, "a few sleep cycles", func() bool {
		return counterValue(m.Iterations) >= 3
	})
	tok.Set()
	if err := waitStopped(t, done); err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestSleepOrCancelReturnsEarly(t *testing.T) {
	tok := cancel.NewToken()
	tok.Set()

	start := time.Now()
	sleepOrCancel(tok, time.Minute)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sleepOrCancel took %v with a fired token", elapsed)
	}
}
