package maincmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/machine"
)

type runCmd struct {
	stdio    mainer.Stdio
	useCache bool
	debug    bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and execute a source file" }
func (*runCmd) Usage() string    { return "run <path>:\n  execute path.\n" }
func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.useCache, "cache", true, "use/write the .bcc cache file")
	f.BoolVar(&c.debug, "debug", false, "echo the source and resolved entry point before running")
}

func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.stdio.Stderr, "run: exactly one source path required")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	src, err := readSource(path)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	cfg, err := loadConfig()
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	res, err := compileOrLoad(path, src, c.useCache, cfg)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	if c.debug {
		fmt.Fprintf(c.stdio.Stderr, "-- source: %s --\n%s\n", path, src)
		fmt.Fprintf(c.stdio.Stderr, "-- entry point: %d (from cache: %v) --\n", res.Program.EntryPoint, res.FromCache)
	}

	m := machine.New(res.Program, stdoutPrinter{c.stdio.Stdout})
	m.MaxSteps = cfg.MaxSteps
	if err := m.Run(); err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// stdoutPrinter adapts an io.Writer to machine.Printer, matching the
// specification's "unbuffered, line-oriented" Print semantics.
type stdoutPrinter struct {
	w io.Writer
}

func (p stdoutPrinter) Println(args ...interface{}) {
	fmt.Fprintln(p.w, args...)
}
