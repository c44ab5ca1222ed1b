package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/urfave/cli.v1"

	"github.com/thanhnp/pow-ledger/internal/config"
	"github.com/thanhnp/pow-ledger/internal/ledger"
	"github.com/thanhnp/pow-ledger/internal/storage"
)

var storeFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "engine",
		Value: config.EnginePebble,
		Usage: "storage engine: pebble|bolt",
	},
	cli.StringFlag{
		Name:  "path",
		Value: "./data/ledger",
		Usage: "storage path",
	},
}

var cmds = []cli.Command{
	{
		Name:    "demo",
		Usage:   "Mine an in-memory chain, tamper with it and show that validation fails.",
		Aliases: []string{"x"},
		Action:  cmdDemo,
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "difficulty, d",
				Value: 3,
				Usage: "leading zero hex characters required per block",
			},
			cli.IntFlag{
				Name:  "tamper",
				Value: 2,
				Usage: "index of the block to rewrite",
			},
			cli.StringFlag{
				Name:  "tamper-data",
				Value: "Transaction : Bob -> Eve (MODIFIED)",
				Usage: "payload written by the tamper step",
			},
		},
		ArgsUsage: "[<payload>...]",
	},
	{
		Name:    "verify",
		Usage:   "Validate a stored chain.",
		Aliases: []string{"v"},
		Action:  cmdVerify,
		Flags:   storeFlags,
	},
	{
		Name:    "print",
		Usage:   "Print every block of a stored chain.",
		Aliases: []string{"p"},
		Action:  cmdPrint,
		Flags:   storeFlags,
	},
}

func cmdDemo(c *cli.Context) error {
	payloads := []string(c.Args())
	if len(payloads) == 0 {
		payloads = defaultPayloads
	}
	_, err := runDemo(os.Stdout, demoConfig{
		Difficulty: c.Int("difficulty"),
		Payloads:   payloads,
		TamperAt:   c.Int("tamper"),
		TamperData: c.String("tamper-data"),
	})
	return err
}

// openStored opens an existing ledger without creating one
func openStored(engine, path string) (*ledger.Service, func(), error) {
	file := path
	if engine == config.EngineBolt {
		file = filepath.Join(path, "ledger.db")
	}
	if _, err := os.Stat(file); err != nil {
		return nil, nil, fmt.Errorf("no ledger at %s: %w", path, err)
	}

	db, err := storage.Open(engine, path)
	if err != nil {
		return nil, nil, err
	}
	service, err := ledger.OpenExisting(context.Background(), db, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return service, func() { db.Close() }, nil
}

func cmdVerify(c *cli.Context) error {
	service, closeDB, err := openStored(c.String("engine"), c.String("path"))
	if err != nil {
		return err
	}
	defer closeDB()

	report := service.Validate()
	if !report.Valid {
		return cli.NewExitError(fmt.Sprintf("chain invalid: block %d: %s", report.Index, report.Reason), 2)
	}
	fmt.Printf("chain valid: %d blocks, difficulty %d\n", service.Height()+1, service.Difficulty())
	return nil
}

func cmdPrint(c *cli.Context) error {
	service, closeDB, err := openStored(c.String("engine"), c.String("path"))
	if err != nil {
		return err
	}
	defer closeDB()

	for _, rec := range service.Blocks() {
		fmt.Printf("%d\t%s\t%d\t%s\t%q\n", rec.Index, rec.Hash, rec.Nonce, rec.PreviousHash, rec.Data)
	}
	return nil
}
