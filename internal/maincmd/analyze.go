package maincmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/absint"
	"github.com/seal9055/baby-interpreter/lang/cfg"
)

type analyzeCmd struct {
	stdio    mainer.Stdio
	useCache bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "build the CFG and run the abstract interpreter" }
func (*analyzeCmd) Usage() string {
	return "analyze <path>:\n  dump the control-flow graph and abstract memory map for path's entry point.\n"
}
func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.useCache, "cache", true, "use/write the .bcc cache file")
}

func (c *analyzeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.stdio.Stderr, "analyze: exactly one source path required")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	src, err := readSource(path)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	cfgFile, err := loadConfig()
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	res, err := compileOrLoad(path, src, c.useCache, cfgFile)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	graphs := map[string]*cfg.Graph{"<entry>": cfg.Build(res.Program, res.Program.EntryPoint)}
	for name, start := range res.Program.FunctionList {
		graphs[name] = cfg.Build(res.Program, start)
	}

	fmt.Fprintln(c.stdio.Stdout, "-- control-flow graphs --")
	fmt.Fprint(c.stdio.Stdout, spew.Sdump(graphs))

	mem := absint.Run(res.Program, graphs["<entry>"])
	fmt.Fprintln(c.stdio.Stdout, "-- abstract memory map (entry point) --")
	mem.Each(func(idx absint.MemIdx, v absint.MemVal) {
		fmt.Fprintln(c.stdio.Stdout, spew.Sdump(idx), "->", spew.Sdump(v))
	})
	return subcommands.ExitSuccess
}
