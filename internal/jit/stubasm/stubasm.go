// Package stubasm is a textual stand-in jit.Assembler used by the
// backend's own tests: instead of encoding real machine bytes, every
// operation is rendered to a human-readable line and appended to a
// log, so a test can assert on the emitted op sequence directly (spec
// §8 "stub assembler that emits textual ops").
package stubasm

import (
	"fmt"
	"strings"

	"github.com/vireltech/vrjit/internal/jit"
)

const (
	RegCount = 8
	Base     = 6
	Stack    = 7
	Thread   = 5
	RetLow   = 0
	RetHigh  = 1
	ArgCount = 2
)

// Assembler accumulates one line of text per emitted operation in Ops,
// and a constant running length, so forward-reference CodePromises
// resolve to believable offsets without a real encoder.
type Assembler struct {
	Ops    []string
	length int
	client jit.Client
}

func New() *Assembler { return &Assembler{} }

func (a *Assembler) emit(s string) {
	a.Ops = append(a.Ops, s)
	a.length += 4
}

func (a *Assembler) RegisterCount() int         { return RegCount }
func (a *Assembler) Base() int                  { return Base }
func (a *Assembler) Stack() int                 { return Stack }
func (a *Assembler) Thread() int                { return Thread }
func (a *Assembler) ReturnLow() int             { return RetLow }
func (a *Assembler) ReturnHigh() int            { return RetHigh }
func (a *Assembler) ArgumentRegisterCount() int { return ArgCount }
func (a *Assembler) ArgumentRegister(index int) int { return index }

func allRegisters() jit.RegisterMask {
	return jit.AllRegisters(RegCount)
}

func (a *Assembler) PlanMove(kind jit.MoveKind, srcSize, dstSize int) (jit.OperandKind, jit.RegisterMask) {
	return jit.KindRegister, allRegisters()
}

func (a *Assembler) PlanUnary(op jit.UnaryOp, size int) (jit.OperandKind, jit.RegisterMask) {
	return jit.KindRegister, allRegisters()
}

func (a *Assembler) PlanBinary(op jit.BinaryOp, size int) (jit.OperandKind, jit.OperandKind, jit.RegisterMask, jit.RegisterMask, bool) {
	return jit.KindRegister, jit.KindRegister, allRegisters(), allRegisters(), false
}

func operandString(o jit.AssemblerOperand) string {
	switch o.Kind {
	case jit.KindConstant:
		if o.Promise != nil && o.Promise.Resolved() {
			return fmt.Sprintf("const(%d)", o.Promise.Value())
		}
		return "const(?)"
	case jit.KindAddress:
		if o.Promise != nil && o.Promise.Resolved() {
			return fmt.Sprintf("addr(%d)", o.Promise.Value())
		}
		return "addr(?)"
	case jit.KindRegister:
		if o.RegHigh >= 0 {
			return fmt.Sprintf("reg(%d:%d)", o.Reg, o.RegHigh)
		}
		return fmt.Sprintf("reg(%d)", o.Reg)
	case jit.KindMemory:
		idx := ""
		if o.Index >= 0 {
			idx = fmt.Sprintf("+r%d*%d", o.Index, o.Scale)
		}
		return fmt.Sprintf("[r%d%+d%s]", o.Base, o.Displacement, idx)
	}
	return "?"
}

func (a *Assembler) Move(kind jit.MoveKind, srcSize int, src jit.AssemblerOperand, dstSize int, dst jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Move %s,%s", operandString(src), operandString(dst)))
}

func (a *Assembler) Unary(op jit.UnaryOp, size int, v jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Unary(%d) %s", op, operandString(v)))
}

func (a *Assembler) Binary(op jit.BinaryOp, size int, x, y jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Binary(%d) %s,%s", op, operandString(x), operandString(y)))
}

func (a *Assembler) Compare(size int, x, y jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Compare %s,%s", operandString(x), operandString(y)))
}

func (a *Assembler) Branch(op jit.BranchOp, target jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Branch(%d) %s", op, operandString(target)))
}

func (a *Assembler) Push(size int, v jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Push %s", operandString(v)))
}

func (a *Assembler) Pop(size int, v jit.AssemblerOperand) {
	a.emit(fmt.Sprintf("Pop %s", operandString(v)))
}

func (a *Assembler) Call(target jit.AssemblerOperand, aligned, indirect bool) {
	a.emit(fmt.Sprintf("Call %s aligned=%v indirect=%v", operandString(target), aligned, indirect))
}

func (a *Assembler) Return(size int, v jit.AssemblerOperand, hasValue bool) {
	if hasValue {
		a.emit(fmt.Sprintf("Return %s", operandString(v)))
		return
	}
	a.emit("Return")
}

func (a *Assembler) Length() int { return a.length }

func (a *Assembler) WriteTo(dst []byte) {
	copy(dst, []byte(strings.Join(a.Ops, "\n")))
}

func (a *Assembler) StackPadding(depth int) int { return 0 }

func (a *Assembler) SetClient(c jit.Client) { a.client = c }

// Text joins every emitted op into one newline-separated string, the
// form tests assert against.
func (a *Assembler) Text() string { return strings.Join(a.Ops, "\n") }
