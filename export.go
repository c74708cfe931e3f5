package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"civicreport/config"
	"civicreport/issues"

	"github.com/urfave/cli/v2"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "Write every issue to a file or stdout",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or csv"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "file path, or \"-\" for stdout; defaults to the dated export filename"},
	},
	Action: export,
}

func export(cCtx *cli.Context) error {
	format, err := issues.ParseExportFormat(cCtx.String("format"))
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Environment)

	b, err := openBackend(cCtx.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(cCtx.Context)

	all, err := b.Store.ListIssues(cCtx.Context)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}

	path := cCtx.String("output")
	if path == "" {
		path = format.Filename(time.Now())
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if err := issues.Export(w, format, all); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	logger.WithField("count", len(all)).WithField("output", path).Info("issues exported")
	return nil
}
