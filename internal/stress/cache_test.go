package stress

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
)

func TestPassTouches(t *testing.T) {
	tests := []struct {
		elements int
		stride   int
		want     int
	}{
		{256_000_000, 4096, 62_500},
		{10, 3, 4},
		{5, 1, 5},
		{4096, 4096, 1},
		{0, 5, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := passTouches(tt.elements, tt.stride); got != tt.want {
			t.Errorf("passTouches(%d, %d) = %d, want %d", tt.elements, tt.stride, got, tt.want)
		}
	}
}

func TestThrashPassTouchesOnlyStrideMultiples(t *testing.T) {
	const size, stride = 100, 7
	data := make([]float64, size)

	touches := thrashPass(data, stride)

	if want := passTouches(size, stride); touches != want {
		t.Errorf("touches = %d, want %d", touches, want)
	}
	for i, v := range data {
		touched := i%stride == 0
		if touched && v != thrashBias {
			t.Errorf("data[%d] = %g, want %g after first touch", i, v, thrashBias)
		}
		if !touched && v != 0 {
			t.Errorf("data[%d] = %g, want untouched zero", i, v)
		}
	}
}

func TestThrashPassReadModifyWrite(t *testing.T) {
	data := []float64{2.0}

	thrashPass(data, 1)

	if want := 2.0*thrashScale + thrashBias; data[0] != want {
		t.Errorf("data[0] = %g, want %g", data[0], want)
	}
}

func TestCacheWorkerStopsAfterFullPass(t *testing.T) {
	m := testMetrics()
	w := NewCacheWorker(1024, 16, zap.NewNop(), m)

	if got := w.Tag(); got != "CACHE" {
		t.Errorf("Tag = %q, want %q", got, "CACHE")
	}

	tok := cancel.NewToken()
	done := runWorker(w, tok)

	waitFor(t, 5*time.Second, "one full pass", func() bool {
		return counterValue(m.Iterations) >= 1
	})
	tok.Set()
	if err := waitStopped(t, done); err != nil {
		t.Errorf("Run returned %v", err)
	}
}
