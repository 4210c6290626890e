// Package absint is a worklist-driven abstract interpreter over the
// control-flow graphs built by lang/cfg: an interval domain for numeric
// locations and a tri-state boolean lattice for comparison results.
//
// It is deliberately a single-pass soundness demonstrator, not a
// production widening analysis: the worklist skips any block it has
// already visited, which is unsound across loop back-edges (see the
// doc comment on Run). This is the source specification's own documented
// behavior, not an oversight to fix here.
package absint

import (
	"github.com/dolthub/swiss"

	"github.com/seal9055/baby-interpreter/lang/bytecode"
	"github.com/seal9055/baby-interpreter/lang/cfg"
)

// Label identifies a basic block, carried over from the originating
// Rust prototype's vocabulary (ai.rs).
type Label = int

// BoolState is the tri-state boolean lattice: Unknown sits below True and
// False, which both sit below Either (top).
type BoolState int

const (
	Unknown BoolState = iota
	True
	False
	Either
)

func (s BoolState) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case True:
		return "True"
	case False:
		return "False"
	case Either:
		return "Either"
	default:
		return "?"
	}
}

// Interval is an inclusive numeric range. A singleton Interval(n, n)
// records an exactly-known value.
type Interval struct {
	Lo, Hi float64
}

// MemKind distinguishes a register location from a local-pool location.
type MemKind int

const (
	KindReg MemKind = iota
	KindPool
)

// MemIdx is an abstract memory location: R(i) or P(i).
type MemIdx struct {
	Kind MemKind
	Idx  int
}

func R(i int) MemIdx { return MemIdx{Kind: KindReg, Idx: i} }
func P(i int) MemIdx { return MemIdx{Kind: KindPool, Idx: i} }

// MemVal is the abstract value stored at a MemIdx: exactly one of an
// Interval or a BoolState is meaningful, selected by IsBool.
type MemVal struct {
	IsBool   bool
	Bool     BoolState
	Interval Interval
}

func numVal(n float64) MemVal        { return MemVal{Interval: Interval{Lo: n, Hi: n}} }
func boolVal(b BoolState) MemVal     { return MemVal{IsBool: true, Bool: b} }

// Mem is the abstract memory map produced by one Run: MemIdx -> MemVal.
type Mem struct {
	m *swiss.Map[MemIdx, MemVal]
}

func newMem() Mem { return Mem{m: swiss.NewMap[MemIdx, MemVal](8)} }

// Get returns the abstract value at idx, if any has been recorded.
func (m Mem) Get(idx MemIdx) (MemVal, bool) { return m.m.Get(idx) }

func (m Mem) set(idx MemIdx, v MemVal) { m.m.Put(idx, v) }

// Each calls fn for every recorded memory location. Iteration order is
// unspecified.
func (m Mem) Each(fn func(MemIdx, MemVal)) {
	m.m.Iter(func(k MemIdx, v MemVal) bool {
		fn(k, v)
		return false
	})
}

// Run performs the worklist traversal over g starting at block 0,
// applying the minimum-viable transfer functions from the specification.
// It returns the memory map as it stood after the final processed block.
//
// The worklist rule is intentionally the source's: if a block has already
// been popped once, a later push of the same block id is dropped, even if
// a predecessor's abstract state changed since the first visit. That
// means back-edges in a loop never refine a variable's interval a second
// time. A sound implementation would revisit any block whose predecessor
// out-state changed, with a join operator and widening on back-edges; this
// analysis does not do that by design.
func Run(prog *bytecode.Program, g *cfg.Graph) Mem {
	mem := newMem()
	visitedIDs := swiss.NewMap[int, struct{}](8)

	worklist := []int{g.Entry}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]

		if visitedIDs.Has(id) {
			continue
		}
		visitedIDs.Put(id, struct{}{})

		b, ok := g.Blocks[id]
		if !ok {
			continue
		}
		for _, ip := range b.Instrs {
			transfer(prog, mem, ip)
		}
		worklist = append(worklist, b.Edges...)
	}
	return mem
}

// transfer applies the instruction at ip's abstract effect to mem. Only
// the minimum viable set from the specification is implemented; every
// other opcode is a no-op for this analysis.
func transfer(prog *bytecode.Program, mem Mem, ip int) {
	slot := prog.Bytecode[ip]
	if !slot.IsOp {
		return
	}
	switch slot.Op {
	case bytecode.LoadI:
		r, ok1 := operandReg(prog, ip+1)
		v, ok2 := operandVal(prog, ip+2)
		if !ok1 || !ok2 {
			return
		}
		if n, ok := bytecode.IsNumber(v); ok {
			mem.set(R(int(r)), numVal(float64(n)))
		}

	case bytecode.PushP:
		r, ok1 := operandReg(prog, ip+1)
		p, ok2 := operandPool(prog, ip+2)
		if !ok1 || !ok2 {
			return
		}
		if v, ok := mem.Get(R(int(r))); ok {
			mem.set(P(int(p)), v)
		}

	case bytecode.LoadP:
		r, ok1 := operandReg(prog, ip+1)
		p, ok2 := operandPool(prog, ip+2)
		if !ok1 || !ok2 {
			return
		}
		if v, ok := mem.Get(P(int(p))); ok {
			mem.set(R(int(r)), v)
		}

	case bytecode.CmpLT, bytecode.CmpLE, bytecode.CmpGT, bytecode.CmpGE, bytecode.CmpEq:
		r, ok := operandReg(prog, ip+1)
		if !ok {
			return
		}
		mem.set(R(int(r)), boolVal(Unknown))

	default:
		// Add, Jmp, JmpIf, Print, and everything else: no abstract
		// side effect in this minimal version.
	}
}

func operandReg(prog *bytecode.Program, i int) (bytecode.Reg, bool) {
	if i >= len(prog.Bytecode) {
		return 0, false
	}
	r, ok := prog.Bytecode[i].Val.(bytecode.Reg)
	return r, ok
}

func operandPool(prog *bytecode.Program, i int) (bytecode.Pool, bool) {
	if i >= len(prog.Bytecode) {
		return 0, false
	}
	p, ok := prog.Bytecode[i].Val.(bytecode.Pool)
	return p, ok
}

func operandVal(prog *bytecode.Program, i int) (bytecode.Value, bool) {
	if i >= len(prog.Bytecode) {
		return nil, false
	}
	return prog.Bytecode[i].Val, !prog.Bytecode[i].IsOp
}
