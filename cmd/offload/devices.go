package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
)

func devicesCommand(log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List the available backends and devices",
		Action: func(c *cli.Context) error {
			reg := device.NewHostRegistry(*log)
			for b := 0; b < reg.BackendCount(); b++ {
				fmt.Printf("Backend %d: %s\n", b, reg.BackendName(b))
				for d := 0; d < reg.DeviceCount(b); d++ {
					dev, err := reg.Device(b, d)
					if err != nil {
						return err
					}
					fmt.Printf("  Device %d:%d  %s\n", b, d, dev.Name())
				}
			}
			return nil
		},
	}
}
