package main

import (
	"fmt"
	"io"

	"github.com/thanhnp/pow-ledger/internal/blockchain"
)

var defaultPayloads = []string{
	"Transaction : Alice -> Bob",
	"Transaction : Bob -> Charlie",
	"Transaction : Charlie -> David",
}

type demoConfig struct {
	Difficulty int
	Payloads   []string
	TamperAt   int
	TamperData string
	Clock      blockchain.Clock
}

type demoResult struct {
	ValidBefore bool
	ValidAfter  bool
	Failure     error
}

// runDemo builds a chain, prints it, tampers with one block and validates
// again. Mining events are printed as they happen.
func runDemo(w io.Writer, cfg demoConfig) (demoResult, error) {
	var res demoResult

	fmt.Fprintf(w, "Initialising blockchain (difficulty=%d)...\n\n", cfg.Difficulty)
	sink := blockchain.EventSinkFunc(func(e blockchain.MiningEvent) {
		fmt.Fprintf(w, "Mined: index=%d nonce=%d hash=%s (time=%.3fs, attempts=%d)\n",
			e.Index, e.Nonce, e.Hash, e.Elapsed.Seconds(), e.Attempts)
	})

	chain, err := blockchain.New(cfg.Difficulty,
		blockchain.WithEventSink(sink),
		blockchain.WithLogger(logger),
		blockchain.WithClock(cfg.Clock))
	if err != nil {
		return res, err
	}
	for _, p := range cfg.Payloads {
		chain.AddBlock(p)
	}

	fmt.Fprintln(w, "\n--- Chain after mining ---")
	printChain(w, chain)
	res.ValidBefore = chain.IsValid()
	fmt.Fprintf(w, "Chain valid: %t\n", res.ValidBefore)

	fmt.Fprintf(w, "\n--- Tampering: rewriting block %d without mining ---\n", cfg.TamperAt)
	if err := chain.TamperUnsafe(cfg.TamperAt, cfg.TamperData); err != nil {
		return res, err
	}
	printChain(w, chain)

	res.Failure = chain.Validate()
	res.ValidAfter = res.Failure == nil
	fmt.Fprintf(w, "Chain valid after tampering (expect false): %t\n", res.ValidAfter)
	if res.Failure != nil {
		fmt.Fprintf(w, "Reason: %v\n", res.Failure)
	}
	return res, nil
}

func printChain(w io.Writer, c *blockchain.Chain) {
	for _, b := range c.Blocks() {
		fmt.Fprintln(w, b.String())
		fmt.Fprintln(w)
	}
}
