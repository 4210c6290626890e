// Package parser implements a recursive-descent parser that turns scanned
// tokens into the AST consumed by the compiler. It covers the source
// surface named in the language specification, including the parser-level
// desugaring of `for` into `{ init; while (cond) { body; incr; } }`.
package parser

import (
	"fmt"
	"go/token"

	"github.com/seal9055/baby-interpreter/lang/ast"
	"github.com/seal9055/baby-interpreter/lang/scanner"
	tok "github.com/seal9055/baby-interpreter/lang/token"
)

// ParseFile scans and parses a single source file. The returned error, if
// non-nil, is a scanner.ErrorList aggregating every scan and parse error
// found; the parser does not stop at the first error within a file.
func ParseFile(filename string, src []byte) (*ast.Program, error) {
	toks, scanErrs := scanner.ScanAll(filename, src)

	p := &parser{filename: filename, toks: toks}
	prog := p.parseProgram()

	var all scanner.ErrorList
	all = append(all, scanErrs...)
	all = append(all, p.errs...)
	all.Sort()
	if err := all.Err(); err != nil {
		return prog, err
	}
	return prog, nil
}

type parser struct {
	filename string
	toks     []scanner.TokenAndValue
	pos      int
	errs     scanner.ErrorList
}

func (p *parser) cur() scanner.TokenAndValue  { return p.toks[p.pos] }
func (p *parser) atEnd() bool                 { return p.cur().Token == tok.EOF }
func (p *parser) check(t tok.Token) bool      { return p.cur().Token == t }
func (p *parser) advance() scanner.TokenAndValue {
	t := p.toks[p.pos]
	if t.Token != tok.EOF {
		p.pos++
	}
	return t
}

func (p *parser) match(t tok.Token) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(t tok.Token) scanner.TokenAndValue {
	if p.check(t) {
		return p.advance()
	}
	p.errorf("expected %s, found %s", t, p.cur().Token)
	return p.cur()
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errs.Add(token.Position{Filename: p.filename, Line: p.cur().Line}, fmt.Sprintf(format, args...))
}

// synchronize skips tokens until a likely statement boundary, so that a
// single syntax error does not cascade into a wall of follow-on errors.
func (p *parser) synchronize() {
	for !p.atEnd() {
		if p.cur().Token == tok.SEMI {
			p.advance()
			return
		}
		switch p.cur().Token {
		case tok.VAR, tok.LET, tok.FUNCTION, tok.IF, tok.WHILE, tok.FOR, tok.RETURN, tok.RBRACE:
			return
		}
		p.advance()
	}
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.atEnd() {
		before := p.pos
		prog.Stmts = append(prog.Stmts, p.parseStmt())
		if p.pos == before {
			// safety valve: parseStmt must always consume at least one token
			p.advance()
		}
	}
	return prog
}

func (p *parser) parseStmt() ast.Stmt {
	line := p.cur().Line
	switch p.cur().Token {
	case tok.VAR, tok.LET:
		return p.parseVarDecl()
	case tok.FUNCTION:
		return p.parseFuncDecl()
	case tok.IF:
		return p.parseIf()
	case tok.WHILE:
		return p.parseWhile()
	case tok.FOR:
		return p.parseFor()
	case tok.RETURN:
		return p.parseReturn()
	case tok.LBRACE:
		return p.parseBlock()
	case tok.CONSOLE:
		return p.parsePrint()
	default:
		s := &ast.ExprStmt{X: p.parseExpr(), Ln: line}
		p.expect(tok.SEMI)
		return s
	}
}

func (p *parser) parseVarDecl() ast.Stmt {
	line := p.cur().Line
	p.advance() // var | let
	name := p.expect(tok.IDENT).Lit
	var init ast.Expr
	if p.match(tok.EQ) {
		init = p.parseExpr()
	}
	p.expect(tok.SEMI)
	return &ast.VarDecl{Name: name, Init: init, Ln: line}
}

func (p *parser) parseFuncDecl() ast.Stmt {
	line := p.cur().Line
	p.advance() // function
	name := p.expect(tok.IDENT).Lit
	p.expect(tok.LPAREN)
	var params []string
	if !p.check(tok.RPAREN) {
		params = append(params, p.expect(tok.IDENT).Lit)
		for p.match(tok.COMMA) {
			params = append(params, p.expect(tok.IDENT).Lit)
		}
	}
	p.expect(tok.RPAREN)
	body := p.parseBlock()
	return &ast.FuncDecl{Name: name, Params: params, Body: body, Ln: line}
}

func (p *parser) parseBlock() *ast.Block {
	line := p.cur().Line
	p.expect(tok.LBRACE)
	b := &ast.Block{Ln: line}
	for !p.check(tok.RBRACE) && !p.atEnd() {
		before := p.pos
		b.Stmts = append(b.Stmts, p.parseStmt())
		if p.pos == before {
			p.advance()
		}
	}
	p.expect(tok.RBRACE)
	return b
}

func (p *parser) parseIf() ast.Stmt {
	line := p.cur().Line
	p.advance() // if
	p.expect(tok.LPAREN)
	cond := p.parseExpr()
	p.expect(tok.RPAREN)
	then := p.parseStmt()
	var els ast.Stmt
	if p.match(tok.ELSE) {
		els = p.parseStmt()
	}
	return &ast.If{Cond: cond, Then: then, Else: els, Ln: line}
}

func (p *parser) parseWhile() ast.Stmt {
	line := p.cur().Line
	p.advance() // while
	p.expect(tok.LPAREN)
	cond := p.parseExpr()
	p.expect(tok.RPAREN)
	body := p.parseStmt()
	return &ast.While{Cond: cond, Body: body, Ln: line}
}

// parseFor desugars `for (init; cond; incr) body` into
// `{ init; while (cond) { body; incr; } }`, per the language specification.
// A missing condition is a parse error: the source this language is modeled
// on crashes outright on a missing condition (an unwrap of an absent
// value); this parser keeps that strictness but reports it through the
// ordinary error channel instead of panicking.
func (p *parser) parseFor() ast.Stmt {
	line := p.cur().Line
	p.advance() // for
	p.expect(tok.LPAREN)

	outer := &ast.Block{Ln: line}

	if !p.check(tok.SEMI) {
		outer.Stmts = append(outer.Stmts, p.parseForInit())
	} else {
		p.advance()
	}

	if p.check(tok.SEMI) {
		p.errorf("missing for-loop condition")
		p.advance()
	}
	cond := p.parseExpr()
	p.expect(tok.SEMI)

	var incr ast.Expr
	if !p.check(tok.RPAREN) {
		incr = p.parseExpr()
	}
	p.expect(tok.RPAREN)

	body := p.parseStmt()

	innerLine := body.Line()
	inner := &ast.Block{Ln: innerLine}
	inner.Stmts = append(inner.Stmts, body)
	if incr != nil {
		inner.Stmts = append(inner.Stmts, &ast.ExprStmt{X: incr, Ln: innerLine})
	}

	outer.Stmts = append(outer.Stmts, &ast.While{Cond: cond, Body: inner, Ln: line})
	return outer
}

// parseForInit parses a non-empty init clause of a for-loop, which is either
// a var declaration or an expression statement, and consumes the `;` that
// terminates it.
func (p *parser) parseForInit() ast.Stmt {
	if p.check(tok.VAR) || p.check(tok.LET) {
		return p.parseVarDecl()
	}
	line := p.cur().Line
	x := p.parseExpr()
	p.expect(tok.SEMI)
	return &ast.ExprStmt{X: x, Ln: line}
}

func (p *parser) parseReturn() ast.Stmt {
	line := p.cur().Line
	p.advance() // return
	var val ast.Expr
	if !p.check(tok.SEMI) {
		val = p.parseExpr()
	}
	p.expect(tok.SEMI)
	return &ast.Return{Value: val, Ln: line}
}

// parsePrint parses `console.log(expr);`.
func (p *parser) parsePrint() ast.Stmt {
	line := p.cur().Line
	p.advance() // console
	p.expect(tok.DOT)
	name := p.expect(tok.IDENT)
	if name.Lit != "log" {
		p.errorf("expected 'log' after 'console.', found %q", name.Lit)
	}
	p.expect(tok.LPAREN)
	arg := p.parseExpr()
	p.expect(tok.RPAREN)
	p.expect(tok.SEMI)
	return &ast.Print{Arg: arg, Ln: line}
}
