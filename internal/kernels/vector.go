// Package kernels provides the data-parallel stage descriptors used by
// the demo commands and the migration server. The arithmetic is simple
// on purpose; each kernel exercises a distinct parallel shape and
// transfer-policy combination.
package kernels

import (
	"github.com/heterokit/offload/internal/graph"
)

// Double builds the stage the migration server executes per request:
// out[i] = in[i] + in[i]. Input moves on every execution because the
// server re-randomizes it per cycle.
func Double(in, out *graph.F32) graph.Stage {
	return graph.Stage{
		Name:         "t0",
		Inputs:       []graph.Buffer{in},
		TransferIn:   graph.EveryExecution,
		ParallelDims: []int{in.Len()},
		Kernel: func(b *graph.Bindings, idx []int) {
			src := b.F32(in.Name())
			dst := b.F32(out.Name())
			v := src.Data[idx[0]]
			dst.Data[idx[0]] = v + v
		},
		Outputs:     []graph.Buffer{out},
		TransferOut: graph.EveryExecution,
	}
}

// VectorAdd builds c[i] = a[i] + b[i]. The operands move once, the
// result comes back every execution.
func VectorAdd(a, b, c *graph.F32) graph.Stage {
	return graph.Stage{
		Name:         "add",
		Inputs:       []graph.Buffer{a, b},
		TransferIn:   graph.FirstExecution,
		ParallelDims: []int{c.Len()},
		Kernel: func(bd *graph.Bindings, idx []int) {
			i := idx[0]
			bd.F32(c.Name()).Data[i] = bd.F32(a.Name()).Data[i] + bd.F32(b.Name()).Data[i]
		},
		Outputs:     []graph.Buffer{c},
		TransferOut: graph.EveryExecution,
	}
}

// InitializeAndSquare builds the two-stage pipeline of the hello demo:
// t0 fills the array with its index + 1, t1 squares it in place. The
// second stage consumes the first stage's device-side output.
func InitializeAndSquare(arr *graph.F32) []graph.Stage {
	init := graph.Stage{
		Name:         "t0",
		Inputs:       []graph.Buffer{arr},
		TransferIn:   graph.EveryExecution,
		ParallelDims: []int{arr.Len()},
		Kernel: func(b *graph.Bindings, idx []int) {
			b.F32(arr.Name()).Data[idx[0]] = float32(idx[0] + 1)
		},
		Outputs:     []graph.Buffer{arr},
		TransferOut: graph.OnDemand,
	}
	square := graph.Stage{
		Name:         "t1",
		Inputs:       []graph.Buffer{arr},
		TransferIn:   graph.EveryExecution,
		ParallelDims: []int{arr.Len()},
		Kernel: func(b *graph.Bindings, idx []int) {
			buf := b.F32(arr.Name())
			buf.Data[idx[0]] *= buf.Data[idx[0]]
		},
		Outputs:     []graph.Buffer{arr},
		TransferOut: graph.EveryExecution,
	}
	return []graph.Stage{init, square}
}
