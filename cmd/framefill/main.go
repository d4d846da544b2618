package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "framefill",
		Usage: "extract frame-aware page content and fill forms from free text",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "env-dir", Value: ".", Usage: "directory holding .env files"},
			&cli.BoolFlag{Name: "debug", Usage: "debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "merge every readable frame of a page and print its markdown",
				ArgsUsage: " ",
				Flags: append(pageFlags(),
					&cli.BoolFlag{Name: "json", Usage: "print the full extraction result as JSON"},
				),
				Action: extractAction,
			},
			{
				Name:  "fill",
				Usage: "detect forms, pick the relevant one and fill it from free text",
				Flags: append(pageFlags(),
					&cli.StringFlag{Name: "content", Usage: "free-text content; read from stdin when empty"},
					&cli.StringFlag{Name: "model", Usage: "model for both reasoning stages"},
					&cli.StringFlag{Name: "language", Usage: "language for generated values; detected when empty"},
					&cli.BoolFlag{Name: "no-backup", Usage: "do not record previous values"},
					&cli.BoolFlag{Name: "no-validate", Usage: "do not read values back after filling"},
					&cli.BoolFlag{Name: "no-highlight", Usage: "do not highlight filled fields"},
					&cli.StringFlag{Name: "screenshot", Usage: "save a JPEG of the page after filling"},
					&cli.StringFlag{Name: "out", Usage: "write the filled document (static pages only)"},
				),
				Action: fillAction,
			},
			{
				Name:  "serve",
				Usage: "expose the pipeline over HTTP",
				Flags: append(pageFlags(),
					&cli.StringFlag{Name: "addr", Usage: "listen address, overrides server.addr"},
				),
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "page to open in the browser"},
		&cli.StringFlag{Name: "file", Usage: "serve this HTML file and its directory instead of a browser"},
	}
}
