package main

import (
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/config"
	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/graph"
	"github.com/heterokit/offload/internal/kmeans"
)

func kmeansCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "kmeans",
		Usage: "Cluster random 2D points until the centroids converge",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "points", Usage: "Number of points (0 uses the configured default)"},
			&cli.IntFlag{Name: "k", Usage: "Number of clusters (0 uses the configured default)"},
			&cli.IntFlag{Name: "backend", Usage: "Backend index to run the assign phase on"},
			&cli.IntFlag{Name: "device", Usage: "Device index within the backend"},
			&cli.BoolFlag{Name: "seq", Usage: "Force the sequential reference path"},
			&cli.BoolFlag{Name: "print", Usage: "Print the final clusters"},
		},
		Action: func(c *cli.Context) error {
			conf, rootLogger := *cfg, *log

			n := c.Int("points")
			if n == 0 {
				n = conf.KMeans.Points
			}
			k := c.Int("k")
			if k == 0 {
				k = conf.KMeans.Clusters
			}

			seed := conf.KMeans.Seed
			var rng *rand.Rand
			if seed != 0 {
				rng = rand.New(rand.NewSource(seed))
			} else {
				rng = rand.New(rand.NewSource(rand.Int63()))
			}
			points := make([]graph.Point, n)
			for i := range points {
				points[i] = graph.Point{
					X: float64(rng.Intn(n)),
					Y: float64(rng.Intn(n)),
				}
			}

			opts := []kmeans.Option{}
			if seed != 0 {
				opts = append(opts, kmeans.WithSeed(seed))
			}

			var res *kmeans.Result
			var err error
			if c.Bool("seq") {
				res, err = kmeans.RunSequential(points, k, rootLogger, opts...)
			} else {
				reg := device.NewHostRegistry(rootLogger)
				handle := device.Handle{Backend: c.Int("backend"), Device: c.Int("device")}
				opts = append(opts, kmeans.WithDevice(handle))
				var loop *kmeans.Loop
				loop, err = kmeans.New(reg, points, k, rootLogger, opts...)
				if err != nil {
					return err
				}
				res, err = loop.Run()
			}
			if err != nil {
				return err
			}

			fmt.Printf("Converged after %d iterations in %s\n", res.Iterations, res.Elapsed)
			for cluster, members := range res.Members {
				fmt.Printf("Cluster %d: centroid <%.4f, %.4f>, %d points\n",
					cluster, res.Centroids[cluster].X, res.Centroids[cluster].Y, len(members))
				if c.Bool("print") {
					for _, i := range members {
						fmt.Printf("    <%.1f, %.1f>\n", points[i].X, points[i].Y)
					}
				}
			}
			return nil
		},
	}
}
