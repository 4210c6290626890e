package token

import "testing"

func TestTokenString(t *testing.T) {
	for tok := ILLEGAL; tok <= RBRACE; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation of token %d", tok)
		}
	}
}

func TestTokenStringIllegal(t *testing.T) {
	got := Token(127).String()
	if got == "" {
		t.Fatalf("expected a non-empty fallback string")
	}
}

func TestKeywordsRoundTrip(t *testing.T) {
	for kw, want := range Keywords {
		if got := want.String(); got != kw {
			t.Errorf("Keywords[%q] = %v, String() = %q", kw, want, got)
		}
	}
}

func TestIsComparison(t *testing.T) {
	yes := []Token{LT, LE, GT, GE, EQEQ, BANGEQ}
	for _, tok := range yes {
		if !IsComparison(tok) {
			t.Errorf("IsComparison(%v) = false, want true", tok)
		}
	}
	no := []Token{PLUS, MINUS, EQ, SEMI, IDENT}
	for _, tok := range no {
		if IsComparison(tok) {
			t.Errorf("IsComparison(%v) = true, want false", tok)
		}
	}
}
