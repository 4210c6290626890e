// Package compiler lowers an AST into the register-oriented bytecode the
// machine package executes: an AST-walking code generator that assigns
// registers, tracks scoped locals, and patches relative jumps.
//
// Much of the structure here is adapted from the two-phase "emit, then
// patch forward branches" shape of a Starlark-style compiler, generalized
// from a stack machine's jump-threaded block graph to this specification's
// single-pass, explicit-patch-slot jump model.
package compiler

import (
	"fmt"

	"github.com/seal9055/baby-interpreter/lang/ast"
	"github.com/seal9055/baby-interpreter/lang/bytecode"
	"github.com/seal9055/baby-interpreter/lang/token"
)

// scopeVar is one entry of the compile-time local pool stack: a declared
// name and the lexical depth at which it was declared.
type scopeVar struct {
	name  string
	depth int
}

// lowerer holds all compiler state for one Lower call. There is exactly one
// lowerer per program: functions and top-level code share the same
// register-id counter, local pool, and constant pool, per the
// specification's single flat address space.
type lowerer struct {
	code      []bytecode.BcArr
	constPool []bytecode.Value
	functions map[string]int

	regCounter uint16
	depth      int
	pool       []scopeVar

	entryPoint int
	entrySet   bool
}

// Lower consumes a finite sequence of statements and returns the compiled
// Program. Failure is always fatal: redeclaration of a local at the same
// depth, redeclaration of a function, an unresolved call target, an
// unsupported operator, or failure to ever emit a top-level instruction.
func Lower(prog *ast.Program) (*bytecode.Program, error) {
	lw := &lowerer{
		regCounter: 1, // register 0 is reserved for return values
		functions:  make(map[string]int),
	}
	if err := lw.stmts(prog.Stmts); err != nil {
		return nil, err
	}
	if !lw.entrySet {
		return nil, fmt.Errorf("compiler: program has no top-level instruction, cannot determine entry point")
	}
	return &bytecode.Program{
		Bytecode:     lw.code,
		EntryPoint:   lw.entryPoint,
		FunctionList: lw.functions,
		ConstPool:    lw.constPool,
	}, nil
}

// --- low-level emission ---------------------------------------------------

// markEntry fixes entry_point to the next instruction's index the first
// time an instruction is emitted while at top-level (depth 0). Function
// bodies are always emitted at depth >= 1 (see funcDecl), so they never
// qualify.
func (lw *lowerer) markEntry() {
	if !lw.entrySet && lw.depth == 0 {
		lw.entryPoint = len(lw.code)
		lw.entrySet = true
	}
}

func (lw *lowerer) emitOp(op bytecode.Opcode) {
	lw.markEntry()
	lw.code = append(lw.code, bytecode.I(op))
}

func (lw *lowerer) emitVal(v bytecode.Value) {
	lw.code = append(lw.code, bytecode.V(v))
}

// emitJump emits op followed by a placeholder VAddr(0) operand and returns
// the index of that operand slot, to be filled in later by patchJump.
func (lw *lowerer) emitJump(op bytecode.Opcode) int {
	lw.emitOp(op)
	lw.emitVal(bytecode.VAddr(0))
	return len(lw.code) - 1
}

func (lw *lowerer) patchJump(slot int, offset int) {
	lw.code[slot] = bytecode.V(bytecode.VAddr(offset))
}

func (lw *lowerer) nextReg() bytecode.Reg {
	r := lw.regCounter
	lw.regCounter++
	return bytecode.Reg(r)
}

// --- scope pool ------------------------------------------------------------

func (lw *lowerer) enterBlock() { lw.depth++ }

// exitBlock removes every pool entry declared at the depth being left,
// preserving the LIFO discipline described in the specification.
func (lw *lowerer) exitBlock() {
	d := lw.depth
	kept := lw.pool[:0]
	for _, v := range lw.pool {
		if v.depth != d {
			kept = append(kept, v)
		}
	}
	lw.pool = kept
	lw.depth--
}

// declareLocal registers a new local at the current depth and returns its
// pool index. Redeclaring a name already live at the same depth is fatal.
func (lw *lowerer) declareLocal(name string) (bytecode.Pool, error) {
	for _, v := range lw.pool {
		if v.name == name && v.depth == lw.depth {
			return 0, fmt.Errorf("compiler: cannot redeclare local %q at the same scope depth", name)
		}
	}
	lw.pool = append(lw.pool, scopeVar{name: name, depth: lw.depth})
	return bytecode.Pool(len(lw.pool) - 1), nil
}

// lookupLocal returns the pool index of the entry for name with the
// greatest still-live depth, implementing shadowing.
func (lw *lowerer) lookupLocal(name string) (bytecode.Pool, error) {
	idx := -1
	bestDepth := -1
	for i, v := range lw.pool {
		if v.name == name && v.depth > bestDepth {
			idx = i
			bestDepth = v.depth
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("compiler: undefined variable %q", name)
	}
	return bytecode.Pool(idx), nil
}

// --- statements --------------------------------------------------------

func (lw *lowerer) stmts(list []ast.Stmt) error {
	for _, s := range list {
		if err := lw.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (lw *lowerer) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.VarDecl:
		return lw.varDecl(s)
	case *ast.FuncDecl:
		return lw.funcDecl(s)
	case *ast.Block:
		lw.enterBlock()
		err := lw.stmts(s.Stmts)
		lw.exitBlock()
		return err
	case *ast.If:
		return lw.ifStmt(s)
	case *ast.While:
		return lw.whileStmt(s)
	case *ast.Return:
		return lw.returnStmt(s)
	case *ast.Print:
		return lw.printStmt(s)
	case *ast.ExprStmt:
		_, err := lw.expr(s.X)
		return err
	default:
		return fmt.Errorf("compiler: unsupported statement %T", s)
	}
}

func (lw *lowerer) varDecl(v *ast.VarDecl) error {
	var reg bytecode.Reg
	if v.Init != nil {
		r, err := lw.expr(v.Init)
		if err != nil {
			return err
		}
		reg = r
	} else {
		reg = lw.nextReg()
		lw.emitOp(bytecode.LoadI)
		lw.emitVal(reg)
		lw.emitVal(bytecode.Nil{})
	}
	idx, err := lw.declareLocal(v.Name)
	if err != nil {
		return err
	}
	lw.emitOp(bytecode.PushP)
	lw.emitVal(reg)
	lw.emitVal(idx)
	return nil
}

// funcDecl lowers a function declaration: (a) record its start index in
// function_list so recursive and later calls can resolve it; (b) reset
// register 0 to a default so a function that falls off the end without an
// explicit return yields Number(0.0); (c) bind parameters at depth+1; (d)
// lower the body; (e) emit the trailing Ret. A `return` statement inside
// the body never jumps to this Ret -- it only loads register 0 and falls
// through, exactly as the source specification describes.
func (lw *lowerer) funcDecl(f *ast.FuncDecl) error {
	if _, exists := lw.functions[f.Name]; exists {
		return fmt.Errorf("compiler: cannot redeclare function %q", f.Name)
	}
	start := len(lw.code)
	lw.functions[f.Name] = start

	savedReg := lw.regCounter
	lw.enterBlock()

	lw.emitOp(bytecode.LoadI)
	lw.emitVal(bytecode.Reg(0))
	lw.emitVal(bytecode.Number(0))

	for i, param := range f.Params {
		idx, err := lw.declareLocal(param)
		if err != nil {
			lw.exitBlock()
			return err
		}
		lw.emitOp(bytecode.LoadA)
		lw.emitVal(idx)
		lw.emitVal(bytecode.Arg(i))
	}

	if err := lw.stmt(f.Body); err != nil {
		lw.exitBlock()
		return err
	}

	lw.emitOp(bytecode.Ret)
	lw.exitBlock()
	lw.regCounter = savedReg
	return nil
}

// ifStmt implements the six-step emit-then-patch sequence from the
// specification: JmpIf skips the else block and lands on the then-block;
// the else block falls through; a trailing Jmp skips the then-block.
func (lw *lowerer) ifStmt(n *ast.If) error {
	if _, err := lw.expr(n.Cond); err != nil {
		return err
	}

	// Only one branch runs, so both start allocating at the register id
	// right after the condition's, and the counter is restored after them.
	savedReg := lw.regCounter

	s1 := lw.emitJump(bytecode.JmpIf)

	if n.Else != nil {
		if err := lw.stmt(n.Else); err != nil {
			return err
		}
	}
	lw.regCounter = savedReg

	s2 := lw.emitJump(bytecode.Jmp)

	lw.patchJump(s1, len(lw.code)-s1-1)

	if err := lw.stmt(n.Then); err != nil {
		return err
	}
	lw.regCounter = savedReg

	lw.patchJump(s2, len(lw.code)-s2-1)
	return nil
}

// whileStmt lowers `while (cond) body` as an initial forward jump to the
// condition, the loop body, the condition, and a trailing JmpIf with a
// negative offset back to the body. Offsets are computed from recorded
// instruction-stream positions rather than a fixed constant, per the
// specification's design notes.
func (lw *lowerer) whileStmt(n *ast.While) error {
	jmpSlot := lw.emitJump(bytecode.Jmp)

	// The condition runs before the body's first pass, so both start
	// allocating at the same register id.
	savedReg := lw.regCounter

	bodyStart := len(lw.code)
	if err := lw.stmt(n.Body); err != nil {
		return err
	}
	lw.regCounter = savedReg

	condStart := len(lw.code)
	if _, err := lw.expr(n.Cond); err != nil {
		return err
	}

	jmpIfSlot := lw.emitJump(bytecode.JmpIf)

	lw.patchJump(jmpSlot, condStart-(jmpSlot+1))
	lw.patchJump(jmpIfSlot, bodyStart-(jmpIfSlot+1))
	return nil
}

func (lw *lowerer) returnStmt(n *ast.Return) error {
	if n.Value != nil {
		reg, err := lw.expr(n.Value)
		if err != nil {
			return err
		}
		lw.emitOp(bytecode.LoadR)
		lw.emitVal(bytecode.Reg(0))
		lw.emitVal(reg)
		return nil
	}
	lw.emitOp(bytecode.LoadI)
	lw.emitVal(bytecode.Reg(0))
	lw.emitVal(bytecode.Number(0))
	return nil
}

func (lw *lowerer) printStmt(n *ast.Print) error {
	reg, err := lw.expr(n.Arg)
	if err != nil {
		return err
	}
	lw.emitOp(bytecode.Print)
	lw.emitVal(reg)
	return nil
}

// --- expressions ---------------------------------------------------------

func (lw *lowerer) expr(e ast.Expr) (bytecode.Reg, error) {
	switch e := e.(type) {
	case *ast.NumberLit:
		r := lw.nextReg()
		lw.emitOp(bytecode.LoadI)
		lw.emitVal(r)
		lw.emitVal(bytecode.Number(e.Value))
		return r, nil

	case *ast.StringLit:
		idx := len(lw.constPool)
		lw.constPool = append(lw.constPool, bytecode.StringLiteral(e.Value))
		r := lw.nextReg()
		lw.emitOp(bytecode.LoadC)
		lw.emitVal(r)
		lw.emitVal(bytecode.CPool(idx))
		return r, nil

	case *ast.Ident:
		idx, err := lw.lookupLocal(e.Name)
		if err != nil {
			return 0, err
		}
		r := lw.nextReg()
		lw.emitOp(bytecode.LoadP)
		lw.emitVal(r)
		lw.emitVal(idx)
		return r, nil

	case *ast.Group:
		return lw.expr(e.X)

	case *ast.Assign:
		reg, err := lw.expr(e.Value)
		if err != nil {
			return 0, err
		}
		idx, err := lw.lookupLocal(e.Name)
		if err != nil {
			return 0, err
		}
		lw.emitOp(bytecode.PushP)
		lw.emitVal(reg)
		lw.emitVal(idx)
		return reg, nil

	case *ast.Unary:
		return lw.unary(e)

	case *ast.Binary:
		return lw.binary(e)

	case *ast.Logical:
		// The parser builds Logical nodes for && and ||, but there is no
		// lowering for them: see DESIGN.md's Open Question decisions.
		return 0, fmt.Errorf("compiler: operator %q is not implemented", e.Op)

	case *ast.Call:
		return lw.call(e)

	default:
		return 0, fmt.Errorf("compiler: unsupported expression %T", e)
	}
}

// unary desugars `-x` as `0 - x` using the Sub opcode, since the
// instruction set has no dedicated unary-negate opcode. `!x` has no
// representable lowering (no boolean-negate opcode exists either) and is
// rejected the same way Logical nodes are.
func (lw *lowerer) unary(n *ast.Unary) (bytecode.Reg, error) {
	if n.Op != token.MINUS {
		return 0, fmt.Errorf("compiler: operator %q is not implemented", n.Op)
	}
	x, err := lw.expr(n.X)
	if err != nil {
		return 0, err
	}
	zero := lw.nextReg()
	lw.emitOp(bytecode.LoadI)
	lw.emitVal(zero)
	lw.emitVal(bytecode.Number(0))

	res := lw.nextReg()
	lw.emitOp(bytecode.Sub)
	lw.emitVal(res)
	lw.emitVal(zero)
	lw.emitVal(x)
	return res, nil
}

func (lw *lowerer) binary(n *ast.Binary) (bytecode.Reg, error) {
	var op bytecode.Opcode
	switch n.Op {
	case token.PLUS:
		op = bytecode.Add
	case token.MINUS:
		op = bytecode.Sub
	case token.STAR:
		op = bytecode.Mul
	case token.SLASH:
		op = bytecode.Div
	case token.LT:
		op = bytecode.CmpLT
	case token.LE:
		op = bytecode.CmpLE
	case token.GT:
		op = bytecode.CmpGT
	case token.GE:
		op = bytecode.CmpGE
	case token.EQEQ:
		op = bytecode.CmpEq
	default:
		// BANGEQ has no opcode (no CmpNeq in the instruction set) and is
		// rejected the same way unary `!` is.
		return 0, fmt.Errorf("compiler: operator %q is not implemented", n.Op)
	}

	r1, err := lw.expr(n.X)
	if err != nil {
		return 0, err
	}
	r2, err := lw.expr(n.Y)
	if err != nil {
		return 0, err
	}
	res := lw.nextReg()
	lw.emitOp(op)
	lw.emitVal(res)
	lw.emitVal(r1)
	lw.emitVal(r2)
	return res, nil
}

func (lw *lowerer) call(n *ast.Call) (bytecode.Reg, error) {
	for i, a := range n.Args {
		r, err := lw.expr(a)
		if err != nil {
			return 0, err
		}
		lw.emitOp(bytecode.PushA)
		lw.emitVal(bytecode.Arg(i))
		lw.emitVal(r)
	}
	target, ok := lw.functions[n.Callee]
	if !ok {
		return 0, fmt.Errorf("compiler: call to unresolved function %q", n.Callee)
	}
	lw.emitOp(bytecode.Call)
	lw.emitVal(bytecode.VAddr(target))
	return bytecode.Reg(0), nil
}
