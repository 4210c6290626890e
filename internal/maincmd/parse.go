package maincmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"
	"github.com/mna/mainer"

	"github.com/seal9055/baby-interpreter/lang/ast"
	"github.com/seal9055/baby-interpreter/lang/parser"
	"github.com/seal9055/baby-interpreter/lang/scanner"
)

type parseCmd struct {
	stdio mainer.Stdio
}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "parse a source file and print its AST" }
func (*parseCmd) Usage() string    { return "parse <path>:\n  print the parsed AST for path.\n" }
func (*parseCmd) SetFlags(*flag.FlagSet) {}

func (c *parseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.stdio.Stderr, "parse: exactly one source path required")
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
	printProgram(c.stdio.Stdout, prog)
	return subcommands.ExitSuccess
}

// printProgram renders prog's statement tree with one indentation level
// per nesting depth. It exists only to give the CLI something to show for
// the parse/repl commands; it is not a module of the pipeline itself.
func printProgram(w io.Writer, prog *ast.Program) {
	for _, s := range prog.Stmts {
		printStmt(w, s, 0)
	}
}

func indent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
}

func printStmt(w io.Writer, s ast.Stmt, depth int) {
	indent(w, depth)
	switch s := s.(type) {
	case *ast.VarDecl:
		fmt.Fprintf(w, "var %s = %s\n", s.Name, exprString(s.Init))
	case *ast.FuncDecl:
		fmt.Fprintf(w, "function %s(%v)\n", s.Name, s.Params)
		printStmt(w, s.Body, depth+1)
	case *ast.Block:
		fmt.Fprintln(w, "{")
		for _, inner := range s.Stmts {
			printStmt(w, inner, depth+1)
		}
		indent(w, depth)
		fmt.Fprintln(w, "}")
	case *ast.If:
		fmt.Fprintf(w, "if (%s)\n", exprString(s.Cond))
		printStmt(w, s.Then, depth+1)
		if s.Else != nil {
			indent(w, depth)
			fmt.Fprintln(w, "else")
			printStmt(w, s.Else, depth+1)
		}
	case *ast.While:
		fmt.Fprintf(w, "while (%s)\n", exprString(s.Cond))
		printStmt(w, s.Body, depth+1)
	case *ast.Return:
		fmt.Fprintf(w, "return %s\n", exprString(s.Value))
	case *ast.Print:
		fmt.Fprintf(w, "console.log(%s)\n", exprString(s.Arg))
	case *ast.ExprStmt:
		fmt.Fprintf(w, "%s\n", exprString(s.X))
	default:
		fmt.Fprintf(w, "<unknown stmt %T>\n", s)
	}
}

func exprString(e ast.Expr) string {
	if e == nil {
		return ""
	}
	switch e := e.(type) {
	case *ast.NumberLit:
		return fmt.Sprintf("%g", e.Value)
	case *ast.StringLit:
		return fmt.Sprintf("%q", e.Value)
	case *ast.Ident:
		return e.Name
	case *ast.Group:
		return "(" + exprString(e.X) + ")"
	case *ast.Assign:
		return fmt.Sprintf("%s = %s", e.Name, exprString(e.Value))
	case *ast.Unary:
		return fmt.Sprintf("%s%s", e.Op, exprString(e.X))
	case *ast.Binary:
		return fmt.Sprintf("%s %s %s", exprString(e.X), e.Op, exprString(e.Y))
	case *ast.Logical:
		return fmt.Sprintf("%s %s %s", exprString(e.X), e.Op, exprString(e.Y))
	case *ast.Call:
		args := ""
		for i, a := range e.Args {
			if i > 0 {
				args += ", "
			}
			args += exprString(a)
		}
		return fmt.Sprintf("%s(%s)", e.Callee, args)
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}
