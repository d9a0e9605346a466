package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/config"
	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/migration"
)

func serveCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the task-migration server",
		Action: func(c *cli.Context) error {
			conf, rootLogger := *cfg, *log

			banner := figure.NewFigure("offload", "", true)
			banner.Print()
			fmt.Println("")

			reg := device.NewHostRegistry(rootLogger)

			if conf.Server.MetricsPort > 0 {
				metricsAddr := fmt.Sprintf(":%d", conf.Server.MetricsPort)
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					rootLogger.Info("serving metrics", zap.String("address", metricsAddr))
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						rootLogger.Error("metrics server stopped", zap.Error(err))
					}
				}()
			}

			addr := fmt.Sprintf("%s:%d", conf.Server.ListenAddress, conf.Server.ListenPort)
			srv := migration.NewServer(reg, rootLogger,
				migration.WithVectorSize(conf.Server.VectorSize))
			return srv.ListenAndServe(context.Background(), addr)
		},
	}
}

func clientCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Connect to a task-migration server and send device selectors interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Server address (defaults to the configured listen address)",
			},
		},
		Action: func(c *cli.Context) error {
			conf := *cfg
			addr := c.String("addr")
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", conf.Server.ListenAddress, conf.Server.ListenPort)
			}
			return migration.RunClient(addr, c.App.Reader, c.App.Writer)
		},
	}
}
