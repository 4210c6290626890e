package ast

import "github.com/seal9055/baby-interpreter/lang/token"

// NumberLit is a numeric literal, parsed as a double.
type NumberLit struct {
	Value float64
	Ln    int
}

// StringLit is a double-quoted string literal.
type StringLit struct {
	Value string
	Ln    int
}

// Ident is a variable or function name reference.
type Ident struct {
	Name string
	Ln   int
}

// Call is a function call `callee(args...)`. The callee is restricted to a
// named top-level function (no first-class function values).
type Call struct {
	Callee string
	Args   []Expr
	Ln     int
}

// Unary is a prefix unary expression: `-x` or `!x`.
type Unary struct {
	Op token.Token
	X  Expr
	Ln int
}

// Binary is a binary arithmetic or comparison expression.
type Binary struct {
	Op token.Token
	X  Expr
	Y  Expr
	Ln int
}

// Logical is a `&&`/`||` expression. The parser builds this node but the
// compiler has no lowering for it (see DESIGN.md Open Question decisions).
type Logical struct {
	Op token.Token
	X  Expr
	Y  Expr
	Ln int
}

// Group is a parenthesized expression, kept only to preserve source shape;
// it lowers exactly like its inner expression.
type Group struct {
	X  Expr
	Ln int
}

// Assign is `name = expr`, either as a standalone expression statement or as
// the initializer re-assignment form.
type Assign struct {
	Name  string
	Value Expr
	Ln    int
}

func (n *NumberLit) exprNode() {}
func (n *StringLit) exprNode() {}
func (n *Ident) exprNode()     {}
func (n *Call) exprNode()      {}
func (n *Unary) exprNode()     {}
func (n *Binary) exprNode()    {}
func (n *Logical) exprNode()   {}
func (n *Group) exprNode()     {}
func (n *Assign) exprNode()    {}

func (n *NumberLit) Line() int { return n.Ln }
func (n *StringLit) Line() int { return n.Ln }
func (n *Ident) Line() int     { return n.Ln }
func (n *Call) Line() int      { return n.Ln }
func (n *Unary) Line() int     { return n.Ln }
func (n *Binary) Line() int    { return n.Ln }
func (n *Logical) Line() int   { return n.Ln }
func (n *Group) Line() int     { return n.Ln }
func (n *Assign) Line() int    { return n.Ln }
