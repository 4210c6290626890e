package parser

import (
	"strconv"

	"github.com/seal9055/baby-interpreter/lang/ast"
	tok "github.com/seal9055/baby-interpreter/lang/token"
)

// parseExpr parses a full expression, including the lowest-precedence
// assignment form `ident = expr`.
func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	left := p.parseOr()
	if p.check(tok.EQ) {
		line := p.cur().Line
		p.advance()
		ident, ok := left.(*ast.Ident)
		if !ok {
			p.errorf("invalid assignment target")
			return left
		}
		value := p.parseAssignment()
		return &ast.Assign{Name: ident.Name, Value: value, Ln: line}
	}
	return left
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.check(tok.PIPEPIPE) {
		line := p.cur().Line
		p.advance()
		right := p.parseAnd()
		left = &ast.Logical{Op: tok.PIPEPIPE, X: left, Y: right, Ln: line}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.check(tok.AMPAMP) {
		line := p.cur().Line
		p.advance()
		right := p.parseEquality()
		left = &ast.Logical{Op: tok.AMPAMP, X: left, Y: right, Ln: line}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.check(tok.EQEQ) || p.check(tok.BANGEQ) {
		op := p.cur().Token
		line := p.cur().Line
		p.advance()
		right := p.parseComparison()
		left = &ast.Binary{Op: op, X: left, Y: right, Ln: line}
	}
	return left
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseTerm()
	for p.check(tok.LT) || p.check(tok.LE) || p.check(tok.GT) || p.check(tok.GE) {
		op := p.cur().Token
		line := p.cur().Line
		p.advance()
		right := p.parseTerm()
		left = &ast.Binary{Op: op, X: left, Y: right, Ln: line}
	}
	return left
}

func (p *parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	for p.check(tok.PLUS) || p.check(tok.MINUS) {
		op := p.cur().Token
		line := p.cur().Line
		p.advance()
		right := p.parseFactor()
		left = &ast.Binary{Op: op, X: left, Y: right, Ln: line}
	}
	return left
}

func (p *parser) parseFactor() ast.Expr {
	left := p.parseUnary()
	for p.check(tok.STAR) || p.check(tok.SLASH) {
		op := p.cur().Token
		line := p.cur().Line
		p.advance()
		right := p.parseUnary()
		left = &ast.Binary{Op: op, X: left, Y: right, Ln: line}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.check(tok.MINUS) || p.check(tok.BANG) {
		op := p.cur().Token
		line := p.cur().Line
		p.advance()
		x := p.parseUnary()
		return &ast.Unary{Op: op, X: x, Ln: line}
	}
	return p.parseCallOrPrimary()
}

func (p *parser) parseCallOrPrimary() ast.Expr {
	line := p.cur().Line
	if p.check(tok.IDENT) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Token == tok.LPAREN {
		name := p.advance().Lit
		p.advance() // (
		var args []ast.Expr
		if !p.check(tok.RPAREN) {
			args = append(args, p.parseExpr())
			for p.match(tok.COMMA) {
				args = append(args, p.parseExpr())
			}
		}
		p.expect(tok.RPAREN)
		return &ast.Call{Callee: name, Args: args, Ln: line}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Token {
	case tok.NUMBER:
		p.advance()
		v, err := strconv.ParseFloat(t.Lit, 64)
		if err != nil {
			p.errorf("invalid number literal %q", t.Lit)
		}
		return &ast.NumberLit{Value: v, Ln: t.Line}
	case tok.STRING:
		p.advance()
		return &ast.StringLit{Value: t.Lit, Ln: t.Line}
	case tok.IDENT:
		p.advance()
		return &ast.Ident{Name: t.Lit, Ln: t.Line}
	case tok.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(tok.RPAREN)
		return &ast.Group{X: x, Ln: t.Line}
	}

	p.errorf("unexpected token %s in expression", t.Token)
	p.advance()
	return &ast.NumberLit{Value: 0, Ln: t.Line}
}
