package bytecode

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	for op := LoadI; op <= Print; op++ {
		if opcodeNames[op] == "" {
			t.Errorf("missing string representation of opcode %d", op)
		}
		if s := op.String(); strings.Contains(s, "illegal") {
			t.Errorf("invalid string representation of opcode %d: %s", op, s)
		}
	}
}

func TestOpcodeStringIllegal(t *testing.T) {
	got := Opcode(255).String()
	if !strings.Contains(got, "illegal") {
		t.Fatalf("expected illegal-op fallback, got %q", got)
	}
}

func TestArity(t *testing.T) {
	cases := []struct {
		op   Opcode
		want int
	}{
		{Ret, 0},
		{JmpIf, 1},
		{Jmp, 1},
		{Call, 1},
		{Print, 1},
		{LoadI, 2},
		{LoadR, 2},
		{LoadP, 2},
		{LoadA, 2},
		{PushP, 2},
		{PushA, 2},
		{LoadC, 2},
		{Add, 3},
		{Sub, 3},
		{Mul, 3},
		{Div, 3},
		{CmpLT, 3},
		{CmpLE, 3},
		{CmpGT, 3},
		{CmpGE, 3},
		{CmpEq, 3},
	}
	for _, c := range cases {
		if got := Arity(c.op); got != c.want {
			t.Errorf("Arity(%v) = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestArityPanicsOnUnknownOpcode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an opcode past Print")
		}
	}()
	Arity(Opcode(255))
}

func TestIsComparison(t *testing.T) {
	for _, op := range []Opcode{CmpLT, CmpLE, CmpGT, CmpGE, CmpEq} {
		if !IsComparison(op) {
			t.Errorf("IsComparison(%v) = false, want true", op)
		}
	}
	for _, op := range []Opcode{Add, Sub, Jmp, Print} {
		if IsComparison(op) {
			t.Errorf("IsComparison(%v) = true, want false", op)
		}
	}
}

func TestIsBranch(t *testing.T) {
	for _, op := range []Opcode{Jmp, JmpIf, Call, Ret} {
		if !IsBranch(op) {
			t.Errorf("IsBranch(%v) = false, want true", op)
		}
	}
	for _, op := range []Opcode{Add, Sub, Print, LoadI} {
		if IsBranch(op) {
			t.Errorf("IsBranch(%v) = true, want false", op)
		}
	}
}

func TestBcArrString(t *testing.T) {
	if got := I(Add).String(); got != "add" {
		t.Errorf("I(Add).String() = %q, want %q", got, "add")
	}
	if got := V(Reg(3)).String(); got != "r3" {
		t.Errorf("V(Reg(3)).String() = %q, want %q", got, "r3")
	}
}

func TestValueStrings(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil{}, "NIL"},
		{Number(1.5), "1.5"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{StringLiteral("hi"), "hi"},
		{Reg(2), "r2"},
		{Pool(4), "p4"},
		{CPool(1), "c1"},
		{VAddr(-3), "@-3"},
		{Arg(0), "a0"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("%#v.String() = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestValuePredicates(t *testing.T) {
	if n, ok := IsNumber(Number(3)); !ok || n != 3 {
		t.Errorf("IsNumber(Number(3)) = %v, %v", n, ok)
	}
	if _, ok := IsNumber(Bool(true)); ok {
		t.Errorf("IsNumber(Bool(true)) = true, want false")
	}
	if s, ok := IsString(StringLiteral("x")); !ok || s != "x" {
		t.Errorf("IsString(StringLiteral(\"x\")) = %v, %v", s, ok)
	}
	if b, ok := IsBool(Bool(true)); !ok || !bool(b) {
		t.Errorf("IsBool(Bool(true)) = %v, %v", b, ok)
	}
}
