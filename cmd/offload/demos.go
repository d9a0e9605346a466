package main

import (
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/graph"
	"github.com/heterokit/offload/internal/kernels"
)

func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "backend", Usage: "Backend index"},
		&cli.IntFlag{Name: "device", Usage: "Device index within the backend"},
		&cli.IntFlag{Name: "iterations", Value: 1, Usage: "How many times to execute the graph"},
	}
}

// runDemo builds a session for the graph, binds the selected device and
// executes it the requested number of times, printing per-run timings.
func runDemo(c *cli.Context, log *zap.Logger, g *graph.Graph) (*graph.Session, error) {
	reg := device.NewHostRegistry(log)
	session := graph.NewSession(reg, g, log).
		WithDevice(device.Handle{Backend: c.Int("backend"), Device: c.Int("device")})

	for i := 0; i < c.Int("iterations"); i++ {
		res, err := session.Execute()
		if err != nil {
			return nil, err
		}
		fmt.Printf("Run %d on %s: total %s", i, res.DeviceName, res.Total)
		for _, st := range res.Stages {
			fmt.Printf("  [%s %s]", st.Name, st.Duration)
		}
		fmt.Println()
	}
	return session, nil
}

func vectorAddCommand(log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "vectoradd",
		Usage: "Run the vector addition demo",
		Flags: append(deviceFlags(),
			&cli.IntFlag{Name: "size", Value: 1 << 20, Usage: "Vector length"}),
		Action: func(c *cli.Context) error {
			n := c.Int("size")
			a := graph.NewF32("a", n)
			b := graph.NewF32("b", n)
			out := graph.NewF32("c", n)
			for i := 0; i < n; i++ {
				a.Data[i] = rand.Float32()
				b.Data[i] = rand.Float32()
			}

			g, err := graph.New("vectoradd", kernels.VectorAdd(a, b, out))
			if err != nil {
				return err
			}
			_, err = runDemo(c, *log, g)
			if err != nil {
				return err
			}
			fmt.Printf("c[0] = %f\n", out.Data[0])
			return nil
		},
	}
}

func mandelbrotCommand(log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mandelbrot",
		Usage: "Run the Mandelbrot fractal demo",
		Flags: append(deviceFlags(),
			&cli.IntFlag{Name: "size", Value: 512, Usage: "Image width and height"}),
		Action: func(c *cli.Context) error {
			size := c.Int("size")
			image := graph.NewI32("image", size*size)

			g, err := graph.New("mandelbrot", kernels.Mandelbrot(size, image))
			if err != nil {
				return err
			}
			if _, err := runDemo(c, *log, g); err != nil {
				return err
			}
			fmt.Printf("Rendered %dx%d pixels\n", size, size)
			return nil
		},
	}
}

func monteCarloCommand(log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "montecarlo",
		Usage: "Estimate pi with the Monte Carlo demo",
		Flags: append(deviceFlags(),
			&cli.IntFlag{Name: "size", Value: 8192 * 2, Usage: "Number of sample streams"}),
		Action: func(c *cli.Context) error {
			results := graph.NewF32("results", c.Int("size"))

			g, err := graph.New("montecarlo", kernels.MonteCarloPi(results))
			if err != nil {
				return err
			}
			session, err := runDemo(c, *log, g)
			if err != nil {
				return err
			}
			// The result buffer stays on the device until asked for.
			if err := session.Read(results); err != nil {
				return err
			}
			fmt.Printf("pi ~ %f\n", kernels.EstimatePi(results))
			return nil
		},
	}
}

func matMulCommand(log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mxm",
		Usage: "Run the matrix multiplication demo",
		Flags: append(deviceFlags(),
			&cli.IntFlag{Name: "size", Value: 512, Usage: "Matrix dimension"}),
		Action: func(c *cli.Context) error {
			n := c.Int("size")
			a := graph.NewF64("a", n*n)
			b := graph.NewF64("b", n*n)
			out := graph.NewF64("c", n*n)
			for i := 0; i < n*n; i++ {
				a.Data[i] = rand.Float64()
				b.Data[i] = rand.Float64()
			}

			g, err := graph.New("mxm", kernels.MatMul(a, b, out, n))
			if err != nil {
				return err
			}
			if _, err := runDemo(c, *log, g); err != nil {
				return err
			}
			flops := 2.0 * float64(n) * float64(n) * float64(n)
			fmt.Printf("%d x %d multiply, %.0f flops per run\n", n, n, flops)
			return nil
		},
	}
}
