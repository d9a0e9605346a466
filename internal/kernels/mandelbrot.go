package kernels

import (
	"github.com/heterokit/offload/internal/graph"
)

const mandelbrotIterations = 10000

// Mandelbrot builds the fractal stage: a size x size escape-time
// iteration over the complex plane, one kernel invocation per pixel.
// Output is produced entirely on the device, so there is nothing to
// transfer in; the image comes back every execution.
func Mandelbrot(size int, image *graph.I32) graph.Stage {
	space := 2.0 / float32(size)
	return graph.Stage{
		Name:         "fractal",
		ParallelDims: []int{size, size},
		Kernel: func(b *graph.Bindings, idx []int) {
			i, j := idx[0], idx[1]
			var zr, zi, zrN, ziN float32
			cr := float32(j)*space - 1.5
			ci := float32(i)*space - 1.0
			y := 0
			for it := 0; it < mandelbrotIterations; it++ {
				if ziN+zrN > 4.0 {
					break
				}
				zi = 2.0*zr*zi + ci
				zr = zrN - ziN + cr
				ziN = zi * zi
				zrN = zr * zr
				y++
			}
			b.I32(image.Name()).Data[i*size+j] = int32((y * 255) / mandelbrotIterations)
		},
		Outputs:     []graph.Buffer{image},
		TransferOut: graph.EveryExecution,
	}
}
