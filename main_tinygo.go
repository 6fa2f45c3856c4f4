//go:build tinygo

package main

import (
	"context"

	"voxos/app"
	"voxos/config"
	"voxos/fault"
	"voxos/hal"
)

func main() {
	fw := hal.New()
	a, err := app.Boot(fw, app.Options{Config: config.Default()})
	if err != nil {
		fw.Runtime().ResetSystem(hal.ResetShutdown, fault.StatusOf(err))
		select {}
	}
	a.Shutdown(a.Run(context.Background()))
	select {}
}
