package scanner_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/seal9055/baby-interpreter/lang/scanner"
	tok "github.com/seal9055/baby-interpreter/lang/token"
)

func toks(t *testing.T, src string) []scanner.TokenAndValue {
	t.Helper()
	out, errs := scanner.ScanAll("<test>", []byte(src))
	if err := errs.Err(); err != nil {
		t.Fatalf("unexpected scan errors: %v", err)
	}
	return out
}

func TestScanPunctAndOperators(t *testing.T) {
	out := toks(t, "+ - * / ! < <= > >= == != && || = ; , . ( ) { }")
	want := []tok.Token{
		tok.PLUS, tok.MINUS, tok.STAR, tok.SLASH, tok.BANG, tok.LT, tok.LE,
		tok.GT, tok.GE, tok.EQEQ, tok.BANGEQ, tok.AMPAMP, tok.PIPEPIPE, tok.EQ,
		tok.SEMI, tok.COMMA, tok.DOT, tok.LPAREN, tok.RPAREN, tok.LBRACE,
		tok.RBRACE, tok.EOF,
	}
	if len(out) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].Token != w {
			t.Errorf("token %d: got %v, want %v", i, out[i].Token, w)
		}
	}
}

func TestScanKeywordsVsIdents(t *testing.T) {
	out := toks(t, "var let function if else while for return console x foo")
	want := []tok.Token{
		tok.VAR, tok.LET, tok.FUNCTION, tok.IF, tok.ELSE, tok.WHILE, tok.FOR,
		tok.RETURN, tok.CONSOLE, tok.IDENT, tok.IDENT, tok.EOF,
	}
	for i, w := range want {
		if out[i].Token != w {
			t.Errorf("token %d: got %v, want %v", i, out[i].Token, w)
		}
	}
}

func TestScanNumberLiterals(t *testing.T) {
	cases := []string{"0", "42", "3.14", "1e3", "1.5e-2", "2E+1"}
	for _, c := range cases {
		out := toks(t, c)
		if out[0].Token != tok.NUMBER || out[0].Lit != c {
			t.Errorf("scanning %q: got token %v lit %q", c, out[0].Token, out[0].Lit)
		}
	}
}

func TestScanStringLiteral(t *testing.T) {
	out := toks(t, `"hello, world"`)
	if out[0].Token != tok.STRING {
		t.Fatalf("got %v, want STRING", out[0].Token)
	}
}

func TestScanLineNumberTracking(t *testing.T) {
	out := toks(t, "var x;\nvar y;\n")
	var lines []int
	for _, tv := range out {
		if tv.Token == tok.VAR {
			lines = append(lines, tv.Line)
		}
	}
	if len(lines) != 2 || lines[0] != 1 || lines[1] != 2 {
		t.Errorf("got lines %v, want [1 2]", lines)
	}
}

func TestScanCommentsSkipped(t *testing.T) {
	out := toks(t, "var x; // trailing line comment\n/* block\ncomment */ var y;")
	var names []tok.Token
	for _, tv := range out {
		names = append(names, tv.Token)
	}
	want := []tok.Token{tok.VAR, tok.IDENT, tok.SEMI, tok.VAR, tok.IDENT, tok.SEMI, tok.EOF}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i, w := range want {
		if names[i] != w {
			t.Errorf("token %d: got %v, want %v", i, names[i], w)
		}
	}
}

func TestScanUnexpectedCharacterReportsError(t *testing.T) {
	_, errs := scanner.ScanAll("<test>", []byte("var x = @;"))
	if err := errs.Err(); err == nil {
		t.Fatal("expected a scan error for '@'")
	}
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	_, errs := scanner.ScanAll("<test>", []byte("/* never closed"))
	if err := errs.Err(); err == nil {
		t.Fatal("expected an error for an unterminated block comment")
	}
}

// ScanAll twice over the same source must produce identical token streams:
// the scanner carries no state across independent runs.
func TestScanIdempotent(t *testing.T) {
	src := "function add(a, b) { return a + b; } console.log(add(2, 5));"
	first := toks(t, src)
	second := toks(t, src)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("token %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}

	if patch := diff.Diff(renderTokens(first), renderTokens(second)); patch != "" {
		t.Errorf("unexpected diff between two scans of the same source:\n%s", patch)
	}
}

func renderTokens(toks []scanner.TokenAndValue) string {
	var b strings.Builder
	for _, tv := range toks {
		fmt.Fprintf(&b, "%d:%s:%q\n", tv.Line, tv.Token, tv.Lit)
	}
	return b.String()
}
