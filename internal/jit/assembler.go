// assembler.go - the narrow contract required of a concrete assembler
//
// The core never encodes an instruction itself; it drives whatever
// Assembler implementation the caller supplies (see spec §6.2). This
// file defines that contract plus the enumerations events and sites
// speak in when describing operands and operations to it.

package jit

// OperandKind tags the four shapes an assembler operand can take.
type OperandKind int

const (
	KindConstant OperandKind = iota
	KindAddress
	KindRegister
	KindMemory
)

// UnaryOp enumerates single-operand operations (result is written back
// to the same operand the input came from).
type UnaryOp int

const (
	OpNegate UnaryOp = iota
)

// BinaryOp enumerates two-operand, result-in-second-operand
// combinations. Compare and Move are separate Assembler methods rather
// than BinaryOp values, and there is no Swap operation.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpShl
	OpShr
	OpUShr
	OpAnd
	OpOr
	OpXor
	OpLongCompare
)

// MoveKind distinguishes the three Move flavors spec §4.4 lists.
type MoveKind int

const (
	MovePlain MoveKind = iota
	MoveZeroExtend
	MoveExtend4To8
)

// BranchOp enumerates the conditional/unconditional jumps Branch events
// may request.
type BranchOp int

const (
	BrJump BranchOp = iota
	BrJumpIfLess
	BrJumpIfGreater
	BrJumpIfLessOrEqual
	BrJumpIfGreaterOrEqual
	BrJumpIfEqual
	BrJumpIfNotEqual
)

// AssemblerOperand is what a Site presents to the assembler: a kind tag
// plus the small amount of data the assembler needs to encode it. The
// assembler is expected to downcast based on Kind.
type AssemblerOperand struct {
	Kind OperandKind

	// KindConstant / KindAddress
	Promise Promise

	// KindRegister
	Reg     int
	RegHigh int // -1 when the value fits one register

	// KindMemory
	Base         int
	Displacement int
	Index        int // -1 when there is no index register
	Scale        int
}

// Client is the narrow callback surface an Assembler uses to borrow a
// scratch register from the core during its own encoding (e.g. to
// materialize a large constant before a memory op).
type Client interface {
	AcquireTemporary(mask RegisterMask) int
	ReleaseTemporary(reg int)
	Save(reg int)
	Restore(reg int)
}

// Assembler is the contract required of a concrete target backend. The
// core only ever calls these methods; it never inspects or emits
// encoded bytes itself. Every emitting method (Move, Unary, Binary,
// Compare, Branch, Push, Pop, Call, Return) is expected to append to
// the assembler's own internal instruction buffer; Length/WriteTo
// expose that buffer once compilation finishes.
type Assembler interface {
	RegisterCount() int
	Base() int
	Stack() int
	Thread() int
	ReturnLow() int
	ReturnHigh() int
	ArgumentRegisterCount() int
	ArgumentRegister(index int) int

	// PlanMove/PlanUnary/PlanBinary report which operand kinds and
	// register masks the assembler can accept directly for a given op
	// at the given size, and whether realizing it instead requires a
	// runtime-helper thunk (spec §4.4 event construction step 1).
	PlanMove(kind MoveKind, srcSize, dstSize int) (dstKind OperandKind, dstRegMask RegisterMask)
	PlanUnary(op UnaryOp, size int) (dstKind OperandKind, dstRegMask RegisterMask)
	PlanBinary(op BinaryOp, size int) (srcKind, dstKind OperandKind, srcRegMask, dstRegMask RegisterMask, thunk bool)

	Move(kind MoveKind, srcSize int, src AssemblerOperand, dstSize int, dst AssemblerOperand)
	Unary(op UnaryOp, size int, a AssemblerOperand)
	Binary(op BinaryOp, size int, a, b AssemblerOperand)
	Compare(size int, a, b AssemblerOperand)
	Branch(op BranchOp, target AssemblerOperand)
	Push(size int, a AssemblerOperand)
	Pop(size int, a AssemblerOperand)
	Call(target AssemblerOperand, aligned, indirect bool)
	Return(size int, a AssemblerOperand, hasValue bool)

	Length() int
	WriteTo(dst []byte)
	StackPadding(depth int) int

	SetClient(Client)
}
