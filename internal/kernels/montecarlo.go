package kernels

import (
	"math"

	"github.com/heterokit/offload/internal/graph"
)

const monteCarloIterations = 25000

// MonteCarloPi builds the Monte Carlo stage: each kernel invocation
// derives its own pseudo-random stream from its index (a 48-bit LCG, so
// the result is independent of how the device schedules the index
// space) and counts samples landing inside the unit circle. The result
// buffer stays on the device until the caller reads it back.
func MonteCarloPi(results *graph.F32) graph.Stage {
	return graph.Stage{
		Name:         "compute",
		ParallelDims: []int{results.Len()},
		Kernel: func(b *graph.Bindings, idx []int) {
			seed := int64(idx[0])
			next := func() float32 {
				seed = (seed*0x5DEECE66D + 0xB) & ((1 << 48) - 1)
				seed = (seed*0x5DEECE66D + 0xB) & ((1 << 48) - 1)
				return float32(seed&0x0FFFFFFF) / 268435455.0
			}
			sum := float32(0)
			for j := 0; j < monteCarloIterations; j++ {
				x := next()
				y := next()
				if math.Sqrt(float64(x*x+y*y)) <= 1.0 {
					sum += 1.0
				}
			}
			b.F32(results.Name()).Data[idx[0]] = sum
		},
		Outputs:     []graph.Buffer{results},
		TransferOut: graph.OnDemand,
	}
}

// EstimatePi turns the per-index sample counts into a pi estimate.
func EstimatePi(results *graph.F32) float64 {
	var inside float64
	for _, v := range results.Data {
		inside += float64(v)
	}
	total := float64(results.Len()) * monteCarloIterations
	return 4.0 * inside / total
}
