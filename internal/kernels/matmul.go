package kernels

import (
	"github.com/heterokit/offload/internal/graph"
)

// MatMul builds c = a * b for square n x n matrices in row-major order,
// one kernel invocation per output cell. Operands move once, the result
// comes back every execution.
func MatMul(a, b, c *graph.F64, n int) graph.Stage {
	return graph.Stage{
		Name:         "mxm",
		Inputs:       []graph.Buffer{a, b},
		TransferIn:   graph.FirstExecution,
		ParallelDims: []int{n, n},
		Kernel: func(bd *graph.Bindings, idx []int) {
			i, j := idx[0], idx[1]
			ma := bd.F64(a.Name())
			mb := bd.F64(b.Name())
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += ma.Data[i*n+k] * mb.Data[k*n+j]
			}
			bd.F64(c.Name()).Data[i*n+j] = sum
		},
		Outputs:     []graph.Buffer{c},
		TransferOut: graph.EveryExecution,
	}
}
