// Package main is the kinetree command.
package main

import (
	"os"

	"go.viam.com/kinetree/cli"
	"go.viam.com/kinetree/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("kinetree").Error(err)
		os.Exit(1)
	}
}
