// memory_event.go - addressed loads and array bounds checks
//
// MemoryEvent builds a base+displacement+index*scale site directly
// rather than emitting a dedicated load instruction: the result value
// simply lives at that memory location until something reads it, at
// which point the generic Read resolution in event.go decides whether
// a Move into a register is worth it (spec §4.4 Memory).

package jit

// MemoryEvent computes [BaseRead + Displacement + IndexRead*Scale] as
// Result's site. A constant IndexRead folds directly into Displacement
// instead of occupying an index register.
type MemoryEvent struct {
	EventHeader

	BaseRead     *Read
	Displacement int
	IndexRead    *Read // nil when there is no index
	IndexSize    int
	Scale        int

	Size   int
	Result *Value
}

func (e *MemoryEvent) Compile(c *Context) {
	baseOp := e.BaseRead.operand(c)
	if baseOp.Kind != KindRegister {
		abort(c, "memory: base operand did not resolve to a register")
	}

	displacement := e.Displacement
	index := -1

	if e.IndexRead != nil {
		indexOp := e.IndexRead.operand(c)
		if indexOp.Kind == KindConstant && indexOp.Promise.Resolved() {
			displacement += int(indexOp.Promise.Value()) * e.Scale
		} else if indexOp.Kind == KindRegister {
			index = indexOp.Reg
			if e.IndexSize < WordSize {
				index = e.sext32(c, indexOp.Reg)
			}
		} else {
			abort(c, "memory: index operand did not resolve to a register or constant")
		}
	}

	site := NewMemorySite(baseOp.Reg, displacement, index, e.Scale)
	e.Result.attachSite(c, site, e.Size)
	e.Result.Source = site
}

// sext32 sign-extends a 32-bit index register into a fresh 64-bit
// register, needed on targets where the native index register width
// exceeds the front-end's int size (spec §4.4 Memory, 32-on-64 note).
func (e *MemoryEvent) sext32(c *Context, reg int) int {
	src := AssemblerOperand{Kind: KindRegister, Reg: reg, RegHigh: -1}
	dst := newTypedRead(WordSize, KindRegister, AllRegisters(c.assembler.RegisterCount())).allocateSite(c, WordSize)
	c.assembler.Move(MoveExtend4To8, 4, src, WordSize, dst.AsAssemblerOperand(c))
	return dst.Reg
}

// BoundsCheckEvent emits the comparisons guarding an array access:
// index < 0 and index >= length, both branching to Handler when they
// fail. The low-bound compare is skipped outright when the index is a
// resolved non-negative constant (spec §4.4 BoundsCheck).
type BoundsCheckEvent struct {
	EventHeader

	ObjectRead   *Read
	IndexRead    *Read
	LengthOffset int
	Handler      Promise
}

func (e *BoundsCheckEvent) Compile(c *Context) {
	indexOp := e.IndexRead.operand(c)

	constIndex, isConst := int64(0), false
	if indexOp.Kind == KindConstant && indexOp.Promise.Resolved() {
		constIndex, isConst = indexOp.Promise.Value(), true
	}

	if !isConst || constIndex < 0 {
		zero := AssemblerOperand{Kind: KindConstant, Promise: &ResolvedPromise{K: 0}}
		c.assembler.Compare(4, indexOp, zero)
		c.assembler.Branch(BrJumpIfLess, AssemblerOperand{Kind: KindAddress, Promise: e.Handler})
	}

	objectOp := e.ObjectRead.operand(c)
	if objectOp.Kind != KindRegister {
		abort(c, "boundsCheck: object operand did not resolve to a register")
	}
	lengthOp := AssemblerOperand{Kind: KindMemory, Base: objectOp.Reg, Displacement: e.LengthOffset, Index: -1}
	c.assembler.Compare(4, indexOp, lengthOp)
	c.assembler.Branch(BrJumpIfGreaterOrEqual, AssemblerOperand{Kind: KindAddress, Promise: e.Handler})
}
