// Package maincmd wires the pipeline stages (scan, parse, compile, run,
// analyze) to the command line, one subcommand per stage, following the
// same mainer.Stdio plumbing the teacher uses: stdin/stdout/stderr flow
// through explicit parameters instead of the os package's globals, so
// every command is trivially testable with an in-memory Stdio.
package maincmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/mna/mainer"
)

// Register attaches every pipeline subcommand to cdr, using stdio for all
// command output so tests can substitute buffers for the real streams.
func Register(cdr *subcommands.Commander, stdio mainer.Stdio) {
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.CommandsCommand(), "")
	cdr.Register(&tokenizeCmd{stdio: stdio}, "")
	cdr.Register(&parseCmd{stdio: stdio}, "")
	cdr.Register(&compileCmd{stdio: stdio}, "")
	cdr.Register(&disasmCmd{stdio: stdio}, "")
	cdr.Register(&runCmd{stdio: stdio}, "")
	cdr.Register(&analyzeCmd{stdio: stdio}, "")
	cdr.Register(&replCmd{stdio: stdio}, "")
}

// Run is the entry point cmd/bci calls. It implements the §6 CLI contract
// for the bare `<binary> <path>` invocation form (exactly one argument
// that is not a registered subcommand name and names an existing file is
// treated as `run <path>`),
// while still allowing the richer subcommand surface for the other
// pipeline stages.
func Run(ctx context.Context, stdio mainer.Stdio, args []string) mainer.ExitCode {
	fs := flag.NewFlagSet("bci", flag.ContinueOnError)
	fs.SetOutput(stdio.Stderr)

	cdr := subcommands.NewCommander(fs, "bci")
	Register(cdr, stdio)

	if len(args) == 1 && !isSubcommand(cdr, args[0]) {
		if _, err := os.Stat(args[0]); err == nil {
			args = []string{"run", args[0]}
		}
	}

	if err := fs.Parse(args); err != nil {
		return mainer.ExitCode(subcommands.ExitUsageError)
	}

	status := cdr.Execute(ctx)
	return mainer.ExitCode(status)
}

var subcommandNames = map[string]bool{
	"help": true, "flags": true, "commands": true,
	"tokenize": true, "parse": true, "compile": true,
	"disasm": true, "run": true, "analyze": true, "repl": true,
}

func isSubcommand(_ *subcommands.Commander, name string) bool {
	return subcommandNames[name]
}

func printErr(stdio mainer.Stdio, err error) {
	fmt.Fprintf(stdio.Stderr, "%s\n", err)
}

func readSource(path string) ([]byte, error) {
	return os.ReadFile(path)
}
