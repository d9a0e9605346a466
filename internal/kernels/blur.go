package kernels

import (
	"github.com/heterokit/offload/internal/graph"
)

// BlurChannel builds a convolution stage over one image channel. The
// filter window is clamped at the image edges. filterWidth must be odd.
// Channel data and filter move once; the blurred channel comes back
// every execution.
func BlurChannel(name string, channel, blurred *graph.I32, rows, cols int, filter *graph.F32, filterWidth int) graph.Stage {
	half := filterWidth / 2
	return graph.Stage{
		Name:         name,
		Inputs:       []graph.Buffer{channel, filter},
		TransferIn:   graph.FirstExecution,
		ParallelDims: []int{rows, cols},
		Kernel: func(b *graph.Bindings, idx []int) {
			r, c := idx[0], idx[1]
			src := b.I32(channel.Name())
			flt := b.F32(filter.Name())
			result := float32(0)
			for fr := -half; fr <= half; fr++ {
				for fc := -half; fc <= half; fc++ {
					ir := clamp(r+fr, 0, rows-1)
					ic := clamp(c+fc, 0, cols-1)
					imageValue := float32(src.Data[ir*cols+ic])
					filterValue := flt.Data[(fr+half)*filterWidth+fc+half]
					result += imageValue * filterValue
				}
			}
			if result > 255 {
				result = 255
			}
			b.I32(blurred.Name()).Data[r*cols+c] = int32(result)
		},
		Outputs:     []graph.Buffer{blurred},
		TransferOut: graph.EveryExecution,
	}
}

// BoxFilter allocates a normalized filterWidth x filterWidth mean
// filter.
func BoxFilter(name string, filterWidth int) *graph.F32 {
	f := graph.NewF32(name, filterWidth*filterWidth)
	v := 1.0 / float32(filterWidth*filterWidth)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
