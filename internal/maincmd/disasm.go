package maincmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/compiler"
)

type disasmCmd struct {
	stdio    mainer.Stdio
	useCache bool
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "print the compiled bytecode for a source file" }
func (*disasmCmd) Usage() string {
	return "disasm <path>:\n  print the bytecode, const pool, and function table for path.\n"
}
func (c *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.useCache, "cache", true, "use/write the .bcc cache file")
}

func (c *disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.stdio.Stderr, "disasm: exactly one source path required")
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

	fmt.Fprint(c.stdio.Stdout, compiler.Disassemble(res.Program))
	return subcommands.ExitSuccess
}
