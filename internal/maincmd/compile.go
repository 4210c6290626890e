package maincmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/bytecode"
	"github.com/seal9055/baby-interpreter/lang/compiler"
	"github.com/seal9055/baby-interpreter/lang/parser"
	"github.com/seal9055/baby-interpreter/lang/scanner"
)

// compiledResult bundles a lowered Program with whether it came from the
// on-disk mmap-backed cache.
type compiledResult struct {
	Program   *bytecode.Program
	FromCache bool
}

type compileCmd struct {
	stdio     mainer.Stdio
	noCache   bool
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "lower a source file to bytecode and cache it" }
func (*compileCmd) Usage() string {
	return "compile <path>:\n  lower path to bytecode and write a .bcc cache file next to it.\n"
}
func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noCache, "no-cache", false, "do not write a .bcc cache file")
}

func (c *compileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.stdio.Stderr, "compile: exactly one source path required")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	src, err := readSource(path)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	prog, err := parser.ParseFile(path, src)
	if err != nil {
		scanner.PrintError(c.stdio.Stderr, err)
		return subcommands.ExitFailure
	}

	compiled, err := compiler.Lower(prog)
	if err != nil {
		printErr(c.stdio, err)
		return subcommands.ExitFailure
	}

	if !c.noCache {
		cfg, err := loadConfig()
		if err != nil {
			printErr(c.stdio, err)
			return subcommands.ExitFailure
		}
		if err := compiler.SaveCache(cachePathFor(path, cfg), path, compiled); err != nil {
			printErr(c.stdio, err)
			return subcommands.ExitFailure
		}
	}

	fmt.Fprintf(c.stdio.Stdout, "compiled %s: %d instructions, %d functions, %d const(s)\n",
		path, len(compiled.Bytecode), len(compiled.FunctionList), len(compiled.ConstPool))
	return subcommands.ExitSuccess
}

// compileOrLoad lowers src, first trying the mtime/size-guarded cache next
// to path (or under cfg.CacheDir, if set) unless useCache is false.
func compileOrLoad(path string, src []byte, useCache bool, cfg *config) (*compiledResult, error) {
	cachePath := cachePathFor(path, cfg)
	if useCache {
		if prog, ok, err := compiler.LoadCached(cachePath, path); err == nil && ok {
			return &compiledResult{Program: prog, FromCache: true}, nil
		}
	}
	ast, err := parser.ParseFile(path, src)
	if err != nil {
		return nil, err
	}
	prog, err := compiler.Lower(ast)
	if err != nil {
		return nil, err
	}
	if useCache {
		_ = compiler.SaveCache(cachePath, path, prog)
	}
	return &compiledResult{Program: prog}, nil
}
