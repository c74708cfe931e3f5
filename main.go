package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "civicreport",
		Usage: "Citizen issue reporting API",
		Commands: []*cli.Command{
			serveCommand,
			createAdminCommand,
			exportCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
