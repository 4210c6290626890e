// Command bci is the entry point for the language's execution pipeline:
// scan, parse, compile, run, or analyze a source file, plus an
// interactive repl. Per the bare `<binary> <path>` contract, a single
// argument that is not a known subcommand name and does name an existing
// file is treated as `run <path>`.
package main

import (
	"context"
	"os"

	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/internal/maincmd"
)

func main() {
	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	code := maincmd.Run(ctx, mainer.CurrentStdio(), os.Args[1:])
	os.Exit(int(code))
}
