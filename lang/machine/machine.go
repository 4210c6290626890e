// Package machine implements the register-oriented stack-capable virtual
// machine that executes a compiled bytecode.Program: a fetch-decode-execute
// loop over a flat heterogeneous instruction stream, with a growing
// register file, local pool, and argument pool, a call stack of return
// addresses, and a single comparison flag.
package machine

import (
	"fmt"
	"strconv"

	"github.com/seal9055/baby-interpreter/lang/bytecode"
)

// Printer receives the host-visible output of Print instructions. In
// normal operation this is stdout; tests substitute a buffer.
type Printer interface {
	Println(args ...interface{})
}

// RuntimeError is a fatal VM error: any type mismatch, missing call
// target, empty call-stack pop, or out-of-range write halts execution
// immediately and is reported with the offending instruction pointer.
type RuntimeError struct {
	IP      int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at ip=%d: %s", e.IP, e.Message)
}

// Machine is the VM's complete mutable state plus the read-only program it
// executes.
type Machine struct {
	prog *bytecode.Program
	out  Printer

	// MaxSteps caps the number of fetch-decode-execute cycles Run will
	// perform before giving up with a fatal error, guarding against a
	// runaway program (an unbounded loop with no side-effect an operator
	// could observe to know it is still alive). A value <= 0 means no
	// limit, matching the teacher's own MaxSteps convention.
	MaxSteps int

	ip        int
	regs      []bytecode.Value
	localPool []bytecode.Value
	args      []bytecode.Value
	callStack []int
	flag      bool

	steps, maxSteps uint64
}

// New constructs a Machine ready to Run prog, with register 0 initialized
// to Number(0.0) so instructions that harmlessly read it before any write
// see a concrete value.
func New(prog *bytecode.Program, out Printer) *Machine {
	return &Machine{
		prog: prog,
		out:  out,
		ip:   prog.EntryPoint,
		regs: []bytecode.Value{bytecode.Number(0)},
	}
}

// Run executes the program from its entry point until ip runs off the end
// of the bytecode stream, a fatal runtime error occurs, or MaxSteps is
// exceeded.
func (m *Machine) Run() error {
	if m.MaxSteps <= 0 {
		m.maxSteps-- // wrap to MaxUint64: effectively unlimited
	} else {
		m.maxSteps = uint64(m.MaxSteps)
	}

	n := len(m.prog.Bytecode)
	for m.ip < n {
		m.steps++
		if m.steps > m.maxSteps {
			return m.fail(m.ip, "exceeded maximum step count (%d)", m.MaxSteps)
		}
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

// fetch returns the slot at ip and advances ip by one.
func (m *Machine) fetch() (bytecode.BcArr, error) {
	if m.ip < 0 || m.ip >= len(m.prog.Bytecode) {
		return bytecode.BcArr{}, &RuntimeError{IP: m.ip, Message: "ip ran past the end of the bytecode stream"}
	}
	slot := m.prog.Bytecode[m.ip]
	m.ip++
	return slot, nil
}

func (m *Machine) fetchValue() (bytecode.Value, error) {
	slot, err := m.fetch()
	if err != nil {
		return nil, err
	}
	if slot.IsOp {
		return nil, &RuntimeError{IP: m.ip - 1, Message: fmt.Sprintf("expected operand, found opcode %s", slot.Op)}
	}
	return slot.Val, nil
}

func (m *Machine) fail(ip int, format string, args ...interface{}) error {
	return &RuntimeError{IP: ip, Message: fmt.Sprintf(format, args...)}
}

func (m *Machine) step() error {
	startIP := m.ip
	slot, err := m.fetch()
	if err != nil {
		return err
	}
	if !slot.IsOp {
		return m.fail(startIP, "expected opcode, found operand %s", slot.Val)
	}

	switch slot.Op {
	case bytecode.LoadI:
		r, v, err := m.operandRegVal()
		if err != nil {
			return err
		}
		return m.writeReg(startIP, r, v)

	case bytecode.LoadR:
		dst, err := m.operandReg()
		if err != nil {
			return err
		}
		src, err := m.operandReg()
		if err != nil {
			return err
		}
		v, err := m.readReg(startIP, src)
		if err != nil {
			return err
		}
		return m.writeReg(startIP, dst, v)

	case bytecode.LoadP:
		r, err := m.operandReg()
		if err != nil {
			return err
		}
		p, err := m.operandPool()
		if err != nil {
			return err
		}
		v, err := m.readPool(startIP, p)
		if err != nil {
			return err
		}
		return m.writeReg(startIP, r, v)

	case bytecode.LoadA:
		p, err := m.operandPool()
		if err != nil {
			return err
		}
		a, err := m.operandArg()
		if err != nil {
			return err
		}
		v, err := m.readArg(startIP, a)
		if err != nil {
			return err
		}
		return m.writePool(startIP, p, v)

	case bytecode.PushP:
		r, err := m.operandReg()
		if err != nil {
			return err
		}
		p, err := m.operandPool()
		if err != nil {
			return err
		}
		v, err := m.readReg(startIP, r)
		if err != nil {
			return err
		}
		return m.writePool(startIP, p, v)

	case bytecode.PushA:
		a, err := m.operandArg()
		if err != nil {
			return err
		}
		r, err := m.operandReg()
		if err != nil {
			return err
		}
		v, err := m.readReg(startIP, r)
		if err != nil {
			return err
		}
		return m.writeArg(startIP, a, v)

	case bytecode.LoadC:
		r, err := m.operandReg()
		if err != nil {
			return err
		}
		c, err := m.operandCPool()
		if err != nil {
			return err
		}
		if int(c) < 0 || int(c) >= len(m.prog.ConstPool) {
			return m.fail(startIP, "const pool index %d out of range", c)
		}
		return m.writeReg(startIP, r, m.prog.ConstPool[c])

	case bytecode.Add:
		return m.binaryArith(startIP, addValues)
	case bytecode.Sub:
		return m.binaryArith(startIP, numericOp(func(a, b float64) float64 { return a - b }))
	case bytecode.Mul:
		return m.binaryArith(startIP, numericOp(func(a, b float64) float64 { return a * b }))
	case bytecode.Div:
		return m.binaryArith(startIP, numericOp(func(a, b float64) float64 { return a / b }))

	case bytecode.CmpLT:
		return m.compare(startIP, func(a, b float64) bool { return a < b })
	case bytecode.CmpLE:
		return m.compare(startIP, func(a, b float64) bool { return a <= b })
	case bytecode.CmpGT:
		return m.compare(startIP, func(a, b float64) bool { return a > b })
	case bytecode.CmpGE:
		return m.compare(startIP, func(a, b float64) bool { return a >= b })
	case bytecode.CmpEq:
		return m.compareEq(startIP)

	case bytecode.Jmp:
		off, err := m.operandVAddr()
		if err != nil {
			return err
		}
		m.ip += int(off)
		return nil

	case bytecode.JmpIf:
		off, err := m.operandVAddr()
		if err != nil {
			return err
		}
		if m.flag {
			m.ip += int(off)
		}
		return nil

	case bytecode.Call:
		target, err := m.operandVAddr()
		if err != nil {
			return err
		}
		m.callStack = append(m.callStack, m.ip)
		m.ip = int(target)
		return nil

	case bytecode.Ret:
		if len(m.callStack) == 0 {
			return m.fail(startIP, "return with empty call stack")
		}
		top := len(m.callStack) - 1
		m.ip = m.callStack[top]
		m.callStack = m.callStack[:top]
		return nil

	case bytecode.Print:
		r, err := m.operandReg()
		if err != nil {
			return err
		}
		v, err := m.readReg(startIP, r)
		if err != nil {
			return err
		}
		return m.print(startIP, v)

	default:
		return m.fail(startIP, "unimplemented opcode %s", slot.Op)
	}
}

// --- operand decoding ------------------------------------------------------

func (m *Machine) operandReg() (bytecode.Reg, error) {
	v, err := m.fetchValue()
	if err != nil {
		return 0, err
	}
	r, ok := v.(bytecode.Reg)
	if !ok {
		return 0, m.fail(m.ip-1, "expected register operand, found %s", v)
	}
	return r, nil
}

func (m *Machine) operandPool() (bytecode.Pool, error) {
	v, err := m.fetchValue()
	if err != nil {
		return 0, err
	}
	p, ok := v.(bytecode.Pool)
	if !ok {
		return 0, m.fail(m.ip-1, "expected pool operand, found %s", v)
	}
	return p, nil
}

func (m *Machine) operandArg() (bytecode.Arg, error) {
	v, err := m.fetchValue()
	if err != nil {
		return 0, err
	}
	a, ok := v.(bytecode.Arg)
	if !ok {
		return 0, m.fail(m.ip-1, "expected argument operand, found %s", v)
	}
	return a, nil
}

func (m *Machine) operandCPool() (bytecode.CPool, error) {
	v, err := m.fetchValue()
	if err != nil {
		return 0, err
	}
	c, ok := v.(bytecode.CPool)
	if !ok {
		return 0, m.fail(m.ip-1, "expected const-pool operand, found %s", v)
	}
	return c, nil
}

func (m *Machine) operandVAddr() (bytecode.VAddr, error) {
	v, err := m.fetchValue()
	if err != nil {
		return 0, err
	}
	a, ok := v.(bytecode.VAddr)
	if !ok {
		return 0, m.fail(m.ip-1, "expected address operand, found %s", v)
	}
	return a, nil
}

func (m *Machine) operandRegVal() (bytecode.Reg, bytecode.Value, error) {
	r, err := m.operandReg()
	if err != nil {
		return 0, nil, err
	}
	v, err := m.fetchValue()
	if err != nil {
		return 0, nil, err
	}
	switch v.(type) {
	case bytecode.Reg, bytecode.Pool, bytecode.CPool, bytecode.VAddr, bytecode.Arg:
		return 0, nil, m.fail(m.ip-1, "LoadI operand must be a runtime value, found %s", v)
	}
	return r, v, nil
}

// --- register/pool/arg access with grow-or-overwrite discipline -----------

func readSlot(ip int, slots []bytecode.Value, i int, kind string) (bytecode.Value, error) {
	if i < 0 || i >= len(slots) {
		return nil, &RuntimeError{IP: ip, Message: fmt.Sprintf("read of uninitialised %s slot %d", kind, i)}
	}
	return slots[i], nil
}

func writeSlot(ip int, slots *[]bytecode.Value, i int, v bytecode.Value, kind string) error {
	switch {
	case i == len(*slots):
		*slots = append(*slots, v)
	case i < len(*slots):
		(*slots)[i] = v
	default:
		return &RuntimeError{IP: ip, Message: fmt.Sprintf("write past end of %s slot %d (length %d)", kind, i, len(*slots))}
	}
	return nil
}

func (m *Machine) readReg(ip int, r bytecode.Reg) (bytecode.Value, error) {
	return readSlot(ip, m.regs, int(r), "register")
}

func (m *Machine) writeReg(ip int, r bytecode.Reg, v bytecode.Value) error {
	return writeSlot(ip, &m.regs, int(r), v, "register")
}

func (m *Machine) readPool(ip int, p bytecode.Pool) (bytecode.Value, error) {
	return readSlot(ip, m.localPool, int(p), "local pool")
}

func (m *Machine) writePool(ip int, p bytecode.Pool, v bytecode.Value) error {
	return writeSlot(ip, &m.localPool, int(p), v, "local pool")
}

func (m *Machine) readArg(ip int, a bytecode.Arg) (bytecode.Value, error) {
	return readSlot(ip, m.args, int(a), "argument")
}

func (m *Machine) writeArg(ip int, a bytecode.Arg, v bytecode.Value) error {
	return writeSlot(ip, &m.args, int(a), v, "argument")
}

// --- arithmetic and comparison ---------------------------------------------

// numericOp lifts a plain float64 binary operator to the shape binaryArith
// expects, rejecting non-numeric operands.
func numericOp(f func(a, b float64) float64) func(*Machine, int, bytecode.Value, bytecode.Value) (bytecode.Value, error) {
	return func(m *Machine, ip int, x, y bytecode.Value) (bytecode.Value, error) {
		a, ok := bytecode.IsNumber(x)
		if !ok {
			return nil, m.fail(ip, "expected numeric operand, found %s", x)
		}
		b, ok := bytecode.IsNumber(y)
		if !ok {
			return nil, m.fail(ip, "expected numeric operand, found %s", y)
		}
		return bytecode.Number(f(float64(a), float64(b))), nil
	}
}

// addValues implements Add's polymorphism: num+num is numeric addition;
// any combination involving a string concatenates via each operand's
// decimal textual form.
func addValues(m *Machine, ip int, x, y bytecode.Value) (bytecode.Value, error) {
	if a, ok := bytecode.IsNumber(x); ok {
		if b, ok := bytecode.IsNumber(y); ok {
			return bytecode.Number(float64(a) + float64(b)), nil
		}
	}
	xs, xIsString := bytecode.IsString(x)
	ys, yIsString := bytecode.IsString(y)
	if xIsString || yIsString {
		left := string(xs)
		if !xIsString {
			left = decimalText(x)
		}
		right := string(ys)
		if !yIsString {
			right = decimalText(y)
		}
		return bytecode.StringLiteral(left + right), nil
	}
	return nil, m.fail(ip, "unsupported operand combination for Add: %s, %s", x, y)
}

// decimalText renders a runtime Number using its decimal textual form, the
// same representation used for mixed-type string comparison and
// concatenation.
func decimalText(v bytecode.Value) string {
	if n, ok := bytecode.IsNumber(v); ok {
		return strconv.FormatFloat(float64(n), 'f', -1, 64)
	}
	return v.String()
}

func (m *Machine) binaryArith(ip int, op func(*Machine, int, bytecode.Value, bytecode.Value) (bytecode.Value, error)) error {
	res, err := m.operandReg()
	if err != nil {
		return err
	}
	r1, err := m.operandReg()
	if err != nil {
		return err
	}
	r2, err := m.operandReg()
	if err != nil {
		return err
	}
	x, err := m.readReg(ip, r1)
	if err != nil {
		return err
	}
	y, err := m.readReg(ip, r2)
	if err != nil {
		return err
	}
	v, err := op(m, ip, x, y)
	if err != nil {
		return err
	}
	return m.writeReg(ip, res, v)
}

func (m *Machine) compare(ip int, cmp func(a, b float64) bool) error {
	res, err := m.operandReg()
	if err != nil {
		return err
	}
	r1, err := m.operandReg()
	if err != nil {
		return err
	}
	r2, err := m.operandReg()
	if err != nil {
		return err
	}
	x, err := m.readReg(ip, r1)
	if err != nil {
		return err
	}
	y, err := m.readReg(ip, r2)
	if err != nil {
		return err
	}
	a, ok := bytecode.IsNumber(x)
	if !ok {
		return m.fail(ip, "expected numeric operand, found %s", x)
	}
	b, ok := bytecode.IsNumber(y)
	if !ok {
		return m.fail(ip, "expected numeric operand, found %s", y)
	}
	result := cmp(float64(a), float64(b))
	m.flag = result
	return m.writeReg(ip, res, bytecode.Bool(result))
}

// compareEq implements CmpEq: numbers, strings, and mixed number/string
// compared by decimal text form -- preserved exactly as specified, even
// though it means "1" == 1.0 is true.
func (m *Machine) compareEq(ip int) error {
	res, err := m.operandReg()
	if err != nil {
		return err
	}
	r1, err := m.operandReg()
	if err != nil {
		return err
	}
	r2, err := m.operandReg()
	if err != nil {
		return err
	}
	x, err := m.readReg(ip, r1)
	if err != nil {
		return err
	}
	y, err := m.readReg(ip, r2)
	if err != nil {
		return err
	}

	_, xNum := bytecode.IsNumber(x)
	_, xStr := bytecode.IsString(x)
	_, yNum := bytecode.IsNumber(y)
	_, yStr := bytecode.IsString(y)
	if (!xNum && !xStr) || (!yNum && !yStr) {
		return m.fail(ip, "expected numeric or string operand, found %s, %s", x, y)
	}

	var result bool
	if xNum && yNum {
		a, _ := bytecode.IsNumber(x)
		b, _ := bytecode.IsNumber(y)
		result = a == b
	} else {
		result = decimalText(x) == decimalText(y)
	}
	m.flag = result
	return m.writeReg(ip, res, bytecode.Bool(result))
}

// print renders v to the host; Nil prints the literal token NIL, other
// runtime kinds print verbatim, and anything else (an encoding-only
// value reaching Print) is a fatal error.
func (m *Machine) print(ip int, v bytecode.Value) error {
	switch v.(type) {
	case bytecode.Nil, bytecode.Number, bytecode.Bool, bytecode.StringLiteral:
		m.out.Println(v.String())
		return nil
	default:
		return m.fail(ip, "Print given a non-runtime value %s", v)
	}
}
