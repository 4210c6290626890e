// Package cfg partitions a compiled bytecode stream into basic blocks with
// successor edges, one graph per function plus one for the top-level
// entry point. Functions are analysed independently: Call and Ret never
// contribute an intra-procedural edge.
package cfg

import (
	"sort"

	"github.com/dolthub/swiss"

	"github.com/seal9055/baby-interpreter/lang/bytecode"
)

// Block is a maximal straight-line run of instructions, identified by the
// bytecode index of its first opcode slot.
type Block struct {
	ID      int
	Instrs  []int // opcode-slot indices, in order
	Edges   []int // successor block ids
}

// Graph is the block_id -> block mapping the builder yields for one
// function (or for the top-level entry point).
type Graph struct {
	Entry  int
	Blocks map[int]*Block
}

// Build partitions the bytecode from start to the end of the stream into
// basic blocks. start is either prog.EntryPoint or a function_list entry.
// Leaders are found by a linear scan, not by following edges, so code after
// start that is not reachable from it (for example a later function body)
// is partitioned too.
func Build(prog *bytecode.Program, start int) *Graph {
	leaders := leaders(prog, start)

	sorted := make([]int, 0, leaders.Count())
	leaders.Iter(func(ip int, _ struct{}) bool {
		sorted = append(sorted, ip)
		return false
	})
	sort.Ints(sorted)

	g := &Graph{Entry: start, Blocks: make(map[int]*Block, len(sorted))}
	for i, ip := range sorted {
		end := len(prog.Bytecode)
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		g.Blocks[ip] = blockAt(prog, ip, end)
	}
	return g
}

// leaders returns the set of opcode-slot indices that begin a block:
// start itself, every branch target, and every instruction immediately
// following a branch.
func leaders(prog *bytecode.Program, start int) *swiss.Map[int, struct{}] {
	set := swiss.NewMap[int, struct{}](8)
	set.Put(start, struct{}{})

	ip := start
	for ip < len(prog.Bytecode) {
		slot := prog.Bytecode[ip]
		if !slot.IsOp {
			ip++
			continue
		}
		op := slot.Op
		n := bytecode.Arity(op)
		operandsAt := ip + 1

		if op == bytecode.Jmp || op == bytecode.JmpIf {
			if off, ok := prog.Bytecode[operandsAt].Val.(bytecode.VAddr); ok {
				set.Put(operandsAt+1+int(off), struct{}{})
			}
		}
		if bytecode.IsBranch(op) {
			end := operandsAt + n
			if end < len(prog.Bytecode) {
				set.Put(end, struct{}{})
			}
		}
		ip = operandsAt + n
	}
	return set
}

// blockAt collects the opcode-slot indices between [start,end) and
// computes this block's successor edges.
func blockAt(prog *bytecode.Program, start, end int) *Block {
	b := &Block{ID: start}

	ip := start
	var lastOp bytecode.Opcode
	var lastOpIP int
	hasOp := false
	for ip < end {
		slot := prog.Bytecode[ip]
		if slot.IsOp {
			b.Instrs = append(b.Instrs, ip)
			lastOp = slot.Op
			lastOpIP = ip
			hasOp = true
			ip += 1 + bytecode.Arity(slot.Op)
		} else {
			ip++
		}
	}

	if !hasOp {
		return b
	}

	switch lastOp {
	case bytecode.Jmp:
		if off, ok := prog.Bytecode[lastOpIP+1].Val.(bytecode.VAddr); ok {
			b.Edges = append(b.Edges, lastOpIP+2+int(off))
		}
	case bytecode.JmpIf:
		if off, ok := prog.Bytecode[lastOpIP+1].Val.(bytecode.VAddr); ok {
			b.Edges = append(b.Edges, end)                     // fall-through
			b.Edges = append(b.Edges, lastOpIP+2+int(off))     // taken
		}
	case bytecode.Ret, bytecode.Call:
		// no intra-procedural edge
	default:
		if end < len(prog.Bytecode) {
			b.Edges = append(b.Edges, end)
		}
	}
	return b
}
