// Dense matrix kernel shared by the compute workers. Matrices are flat
// row-major float64 slices; the multiply uses the i-k-j loop order so the
// inner loop walks both operands sequentially.
package stress

import "math/rand"

// newRandomMatrix returns an n×n matrix of values in [0, 1).
func newRandomMatrix(rng *rand.Rand, n int) []float64 {
	m := make([]float64, n*n)
	for i := range m {
		m[i] = rng.Float64()
	}
	return m
}

// matmul computes dst = a×b for n×n operands. dst is reused across calls to
// keep the loop allocation-free; the result is never read.
func matmul(dst, a, b []float64, n int) {
	for i := range dst {
		dst[i] = 0
	}
	for i := 0; i < n; i++ {
		out := dst[i*n : (i+1)*n]
		for k := 0; k < n; k++ {
			aik := a[i*n+k]
			row := b[k*n : (k+1)*n]
			for j := range row {
				out[j] += aik * row[j]
			}
		}
	}
}
