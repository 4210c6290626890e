package compiler

import (
	"fmt"
	"strings"

	"github.com/seal9055/baby-interpreter/lang/bytecode"
)

// Disassemble renders prog as a human-readable assembly listing: one
// instruction per line, annotated with the entry point, the function
// table, and the constant pool. It is the repository's stand-in for the
// source's DEBUG-gated pipeline trace.
func Disassemble(prog *bytecode.Program) string {
	var b strings.Builder

	fmt.Fprintf(&b, "entry_point: %d\n", prog.EntryPoint)

	if len(prog.FunctionList) > 0 {
		fmt.Fprintln(&b, "function_list:")
		for name, ip := range prog.FunctionList {
			fmt.Fprintf(&b, "  %s -> %d\n", name, ip)
		}
	}

	if len(prog.ConstPool) > 0 {
		fmt.Fprintln(&b, "const_pool:")
		for i, v := range prog.ConstPool {
			fmt.Fprintf(&b, "  c%d = %s\n", i, v)
		}
	}

	fmt.Fprintln(&b, "bytecode:")
	ip := 0
	for ip < len(prog.Bytecode) {
		slot := prog.Bytecode[ip]
		if !slot.IsOp {
			// Desynchronized stream (shouldn't happen for a well-formed
			// Program); print the raw value and keep going.
			fmt.Fprintf(&b, "%6d: <stray operand %s>\n", ip, slot.Val)
			ip++
			continue
		}
		n := bytecode.Arity(slot.Op)
		var operands []string
		for i := 0; i < n; i++ {
			operands = append(operands, prog.Bytecode[ip+1+i].Val.String())
		}
		marker := "  "
		if ip == prog.EntryPoint {
			marker = "=>"
		}
		fmt.Fprintf(&b, "%s%6d: %-6s %s\n", marker, ip, slot.Op, strings.Join(operands, ", "))
		ip += 1 + n
	}
	return b.String()
}
