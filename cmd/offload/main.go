package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/config"
	"github.com/heterokit/offload/internal/logger"
)

func main() {
	var configPath string
	var cfg *config.Config
	var rootLogger *zap.Logger

	app := &cli.App{
		Name:  "offload",
		Usage: "Heterogeneous compute-offload demos with runtime device migration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to the YAML config file",
				EnvVars:     []string{"OFFLOAD_CONFIG"},
				Destination: &configPath,
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if configPath != "" {
				cfg, err = config.LoadConfig(configPath)
				if err != nil {
					return err
				}
			} else {
				cfg = config.DefaultConfig()
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity)
			if err != nil {
				return err
			}
			rootLogger = zapLogger.Named("offload")
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(&cfg, &rootLogger),
			clientCommand(&cfg, &rootLogger),
			kmeansCommand(&cfg, &rootLogger),
			devicesCommand(&rootLogger),
			vectorAddCommand(&rootLogger),
			mandelbrotCommand(&rootLogger),
			monteCarloCommand(&rootLogger),
			matMulCommand(&rootLogger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if rootLogger != nil {
			rootLogger.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
