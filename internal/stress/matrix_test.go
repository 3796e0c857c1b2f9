package stress

import (
	"math/rand"
	"testing"
)

func TestMatmulIdentity(t *testing.T) {
	n := 3
	identity := []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	b := []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	dst := make([]float64, n*n)

	matmul(dst, identity, b, n)

	for i := range b {
		if dst[i] != b[i] {
			t.Fatalf("dst[%d] = %g, want %g", i, dst[i], b[i])
		}
	}
}

func TestMatmulKnownProduct(t *testing.T) {
	n := 2
	a := []float64{
		1, 2,
		3, 4,
	}
	b := []float64{
		5, 6,
		7, 8,
	}
	want := []float64{
		19, 22,
		43, 50,
	}
	dst := make([]float64, n*n)

	matmul(dst, a, b, n)

	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %g, want %g", i, dst[i], want[i])
		}
	}
}

func TestMatmulOverwritesPreviousResult(t *testing.T) {
	n := 2
	a := []float64{1, 0, 0, 1}
	b := []float64{2, 0, 0, 2}
	dst := []float64{99, 99, 99, 99}

	matmul(dst, a, b, n)

	want := []float64{2, 0, 0, 2}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %g, want %g (stale data left behind)", i, dst[i], want[i])
		}
	}
}

func TestNewRandomMatrixShapeAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 8
	m := newRandomMatrix(rng, n)

	if len(m) != n*n {
		t.Fatalf("len = %d, want %d", len(m), n*n)
	}
	for i, v := range m {
		if v < 0 || v >= 1 {
			t.Fatalf("m[%d] = %g, want value in [0, 1)", i, v)
		}
	}
}
