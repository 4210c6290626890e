// Package ast defines the statement and expression node types produced by
// the parser and consumed by the compiler. It covers exactly the source
// surface named in the language specification: declarations, functions,
// if/while/for, return, console.log, blocks, and the usual expression
// forms.
package ast

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	Line() int
}

// Expr is implemented by every expression node.
type Expr interface {
	exprNode()
	Line() int
}

// Program is the root node: a flat sequence of top-level statements.
type Program struct {
	Stmts []Stmt
}
