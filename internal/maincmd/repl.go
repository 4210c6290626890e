package maincmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/compiler"
	"github.com/seal9055/baby-interpreter/lang/machine"
	"github.com/seal9055/baby-interpreter/lang/parser"
	"github.com/seal9055/baby-interpreter/lang/scanner"
)

type replCmd struct {
	stdio mainer.Stdio
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "read-eval-print loop" }
func (*replCmd) Usage() string    { return "repl:\n  start an interactive session.\n" }
func (*replCmd) SetFlags(*flag.FlagSet) {}

// Execute runs a line-at-a-time REPL: each line is independently scanned,
// parsed, lowered, and executed. There is no shared variable environment
// across lines, matching the lack of any persistent interpreter state in
// the language's execution model -- each line is its own complete
// top-level program.
func (c *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "bci> ",
		Stdin:       io.NopCloser(c.stdio.Stdin),
		Stdout:      c.stdio.Stdout,
		Stderr:      c.stdio.Stderr,
		HistoryFile: "",
	})
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	cfg, err := loadConfig()
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintln(c.stdio.Stdout, "bci interactive session -- Ctrl-D to exit")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return subcommands.ExitSuccess
		}
		if line == "" {
			continue
		}

		prog, err := parser.ParseFile("<repl>", []byte(line))
		if err != nil {
			scanner.PrintError(c.stdio.Stderr, err)
			continue
		}
		compiled, err := compiler.Lower(prog)
		if err != nil {
			printErr(c.stdio, err)
			continue
		}
		m := machine.New(compiled, stdoutPrinter{c.stdio.Stdout})
		m.MaxSteps = cfg.MaxSteps
		if err := m.Run(); err != nil {
			printErr(c.stdio, err)
		}
	}
}
