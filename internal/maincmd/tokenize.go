package maincmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/scanner"
)

type tokenizeCmd struct {
	stdio mainer.Stdio
}

func (*tokenizeCmd) Name() string     { return "tokenize" }
func (*tokenizeCmd) Synopsis() string { return "scan a source file and print its token stream" }
func (*tokenizeCmd) Usage() string    { return "tokenize <path>:\n  print the token stream for path.\n" }
func (*tokenizeCmd) SetFlags(*flag.FlagSet) {}

func (c *tokenizeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.stdio.Stderr, "tokenize: exactly one source path required")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	src, err := readSource(path)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	toks, errs := scanner.ScanAll(path, src)
	for _, t := range toks {
		if t.Lit != "" {
			fmt.Fprintf(c.stdio.Stdout, "%d: %s %q\n", t.Line, t.Token, t.Lit)
		} else {
			fmt.Fprintf(c.stdio.Stdout, "%d: %s\n", t.Line, t.Token)
		}
	}
	if err := errs.Err(); err != nil {
		scanner.PrintError(c.stdio.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
