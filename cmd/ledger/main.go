package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/thanhnp/pow-ledger/internal/logging"
)

var logger = slog.Default()

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "ledger"
	cliApp.Usage = "Build, inspect and verify proof-of-work ledgers."
	cliApp.Version = "1.0.0"
	cliApp.Commands = cmds
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log-level, l",
			Value: "warn",
			Usage: "debug|info|warn|error",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "json|text",
		},
	}
	cliApp.Before = func(c *cli.Context) error {
		logger = logging.NewWithWriter(logging.Config{
			Level:  c.GlobalString("log-level"),
			Format: c.GlobalString("log-format"),
		}, os.Stderr)
		return nil
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
