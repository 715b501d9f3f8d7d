// compiler.go - the public front-end façade
//
// Every method here is a thin constructor: decide which event a
// front-end call needs, run the assembler's Plan to learn operand
// constraints, build Reads against the input Values, and link the
// event into the current logical instruction. The heavy lifting
// (resolving those reads to concrete sites, emitting bytes) happens
// later during Compile, driven by event.go/compile.go.

package jit

// Operand is the public handle a front-end holds onto a Value.
type Operand struct {
	value *Value
}

// StackElement is the public handle returned by Top().
type StackElement struct {
	entry *StackEntry
}

func (c *Context) registerMask() RegisterMask { return AllRegisters(c.assembler.RegisterCount()) }

// Constant wraps a compile-time-known 64-bit value.
func (c *Context) Constant(k int64) Operand {
	return Operand{c.NewValueWithSite(NewConstantSite(&ResolvedPromise{K: k}))}
}

// PromiseConstant wraps an arbitrary Promise as a constant operand.
func (c *Context) PromiseConstant(p Promise) Operand {
	return Operand{c.NewValueWithSite(NewConstantSite(p))}
}

// Address wraps a Promise as a never-register-resident address operand.
func (c *Context) Address(p Promise) Operand {
	return Operand{c.NewValueWithSite(NewAddressSite(p))}
}

func (c *Context) fixedRegisterOperand(reg int) Operand {
	return Operand{c.NewValueWithSite(NewRegisterSite(maskFor(reg), reg, -1))}
}

func (c *Context) StackPointer() Operand  { return c.fixedRegisterOperand(c.assembler.Stack()) }
func (c *Context) BasePointer() Operand   { return c.fixedRegisterOperand(c.assembler.Base()) }
func (c *Context) ThreadPointer() Operand { return c.fixedRegisterOperand(c.assembler.Thread()) }

// Memory builds an addressed operand [base + displacement + index*scale]
// via a MemoryEvent, so base/index don't need a resolved register site
// until the compile pass reaches it (spec §4.4 Memory).
func (c *Context) Memory(base Operand, displacement int, index *Operand, scale int) Operand {
	result := c.NewValue()
	e := &MemoryEvent{
		EventHeader:  c.newEvent(),
		Displacement: displacement,
		Scale:        scale,
		Size:         WordSize,
		Result:       result,
	}
	baseRead := NewAnyRead(WordSize)
	c.appendReadFor(e, base.value, baseRead)
	e.BaseRead = baseRead

	if index != nil {
		idxRead := NewAnyRead(4)
		c.appendReadFor(e, index.value, idxRead)
		e.IndexRead = idxRead
		e.IndexSize = 4
	}
	c.link(e)
	return Operand{result}
}

// Label allocates a fresh address operand backed by a CodePromise,
// resolved once Mark is reached during the compile pass.
func (c *Context) Label() Operand {
	return Operand{c.NewValueWithSite(NewAddressSite(NewCodePromise(c)))}
}

// Mark links a MarkEvent carrying label's CodePromise, so the compile
// pass resolves it to the current assembler length once reached.
func (c *Context) Mark(label Operand) {
	p, ok := label.value.Sites.Promise.(*CodePromise)
	if !ok {
		abort(c, "mark: operand is not a label")
	}
	e := &MarkEvent{EventHeader: c.newEvent()}
	e.Promises = append(e.Promises, p)
	c.link(e)
}

// Push records v as the new top of the operand stack and defers its
// machine Push (spec §4.3).
func (c *Context) Push(size int, v Operand) {
	c.pushValue(size, v.value)
}

// PushSlot reserves a stack slot with no value yet materialized,
// matching the no-argument push() façade call; the slot's Value has no
// reads until something stores into it.
func (c *Context) PushSlot(size int) Operand {
	v := c.NewValue()
	c.pushValue(size, v)
	return Operand{v}
}

// Pop removes the top stack entry and returns its Value. It issues no
// Read itself; the value's sites are left as they are for whatever
// event reads it next.
func (c *Context) Pop(size int) Operand {
	v := c.popValue(size)
	return Operand{v}
}

// Peek inspects the stack entry `index` slots below the top without
// removing it.
func (c *Context) Peek(size, index int) Operand {
	return Operand{c.peekValue(size, index)}
}

// Top returns a handle on the current top-of-stack entry.
func (c *Context) Top() StackElement {
	return StackElement{c.topEntry()}
}

func (c *Context) PushState()  { c.pushState() }
func (c *Context) PopState()   { c.popState() }
func (c *Context) SaveStack()  { c.saveStack() }
func (c *Context) ResetStack() { c.resetStack() }

// VisitLogicalIp records that logicalIp is reachable from somewhere
// other than straight-line fall-through, marking it a junction.
func (c *Context) VisitLogicalIp(ip int) {
	c.ensureLogicalInstruction(ip)
	c.addJunction(ip)
}

// StartLogicalIp advances the current logical instruction pointer,
// inserting a stack sync first if this IP is a junction so every
// predecessor agrees on the operand-stack shape before it (spec §4.5
// Junctions).
func (c *Context) StartLogicalIp(ip int) {
	li := c.ensureLogicalInstruction(ip)
	if c.isJunction(ip) && !li.stackSaved {
		c.stackSync()
		li.stackSaved = true
	}
	li.Predecessor = c.logicalIp
	li.Stack = c.state.Stack
	c.logicalIp = ip
}

// MachineIp returns a Promise resolving to the machine address
// assigned to logical instruction ip once the compile pass reaches it.
func (c *Context) MachineIp(ip int) Promise {
	c.ensureLogicalInstruction(ip)
	return NewIpPromise(c, ip)
}

// StoreLocal writes v into local slot index, folding the store's
// destination site back onto v's own Value rather than creating a new
// one (spec §6.1 storeLocal).
func (c *Context) StoreLocal(size int, v Operand, index int) {
	c.ensureLocalsCap(index)
	frameIndex := c.frameIndexForLocal(index)

	e := &MoveEvent{
		EventHeader:   c.newEvent(),
		Kind:          MovePlain,
		SrcSize:       size,
		DstSize:       size,
		SrcValue:      v.value,
		DstKind:       KindMemory,
		DstFrameIndex: frameIndex,
	}
	c.appendReadFor(e, v.value, NewAnyRead(size))
	e.Src = e.Reads
	v.value.HomeFrameIndex = frameIndex
	c.locals[index] = v.value
	c.link(e)
}

// LoadLocal returns the Value currently bound to local slot index; a
// local costs nothing to read beyond the store that created it (spec
// §6.1 loadLocal).
func (c *Context) LoadLocal(size int, index int) Operand {
	c.ensureLocalsCap(index)
	v := c.locals[index]
	if v == nil {
		abort(c, "loadLocal: slot has never been stored")
	}
	return Operand{v}
}

func (c *Context) binary(op BinaryOp, size int, a, b Operand) Operand {
	srcKind, dstKind, srcRegMask, dstRegMask, thunk := c.assembler.PlanBinary(op, size)
	if thunk {
		return c.thunkCall(op, size, a, b)
	}

	result := c.NewValue()
	e := &CombineEvent{
		EventHeader: c.newEvent(),
		Op:          op,
		Size:        size,
		FirstValue:  a.value,
		SecondValue: b.value,
		Result:      result,
	}

	// A shift count is read at a fixed 4-byte size regardless of the
	// shifted value's own width (spec §4.4 Combine).
	firstSize := size
	if isShiftOp(op) {
		firstSize = 4
	}
	first := newTypedRead(firstSize, srcKind, srcRegMask)
	second := newTypedRead(size, dstKind, dstRegMask)
	second.TargetValue = b.value

	c.appendReadFor(e, a.value, first)
	c.appendReadFor(e, b.value, second)
	e.First, e.Second = first, second
	c.link(e)

	return Operand{result}
}

func (c *Context) thunkCall(op BinaryOp, size int, a, b Operand) Operand {
	if c.helperResolver == nil {
		abort(c, "binary op requires a runtime helper but none was configured")
	}
	addr := c.helperResolver(op)
	return c.Call(c.PromiseConstant(addr), 0, nil, size, a, b)
}

func (c *Context) Add(size int, a, b Operand) Operand  { return c.binary(OpAdd, size, a, b) }
func (c *Context) Sub(size int, a, b Operand) Operand  { return c.binary(OpSub, size, a, b) }
func (c *Context) Mul(size int, a, b Operand) Operand  { return c.binary(OpMul, size, a, b) }
func (c *Context) Div(size int, a, b Operand) Operand  { return c.binary(OpDiv, size, a, b) }
func (c *Context) Rem(size int, a, b Operand) Operand  { return c.binary(OpRem, size, a, b) }
func (c *Context) Shl(size int, a, b Operand) Operand  { return c.binary(OpShl, size, a, b) }
func (c *Context) Shr(size int, a, b Operand) Operand  { return c.binary(OpShr, size, a, b) }
func (c *Context) Ushr(size int, a, b Operand) Operand { return c.binary(OpUShr, size, a, b) }
func (c *Context) And(size int, a, b Operand) Operand  { return c.binary(OpAnd, size, a, b) }
func (c *Context) Or(size int, a, b Operand) Operand   { return c.binary(OpOr, size, a, b) }
func (c *Context) Xor(size int, a, b Operand) Operand  { return c.binary(OpXor, size, a, b) }
func (c *Context) Lcmp(size int, a, b Operand) Operand { return c.binary(OpLongCompare, size, a, b) }

// Neg negates v in place and returns the result operand (spec §4.4
// Translate).
func (c *Context) Neg(size int, v Operand) Operand {
	dstKind, dstRegMask := c.assembler.PlanUnary(OpNegate, size)
	result := c.NewValue()
	e := &TranslateEvent{
		EventHeader: c.newEvent(),
		Op:          OpNegate,
		Size:        size,
		Value:       v.value,
		Result:      result,
	}
	r := newTypedRead(size, dstKind, dstRegMask)
	c.appendReadFor(e, v.value, r)
	e.Read = r
	c.link(e)
	return Operand{result}
}

func (c *Context) move(kind MoveKind, srcSize, dstSize int, v Operand) Operand {
	dstKind, dstRegMask := c.assembler.PlanMove(kind, srcSize, dstSize)
	result := c.NewValue()
	e := &MoveEvent{
		EventHeader:   c.newEvent(),
		Kind:          kind,
		SrcSize:       srcSize,
		DstSize:       dstSize,
		SrcValue:      v.value,
		Dst:           result,
		DstKind:       dstKind,
		DstRegMask:    dstRegMask,
		DstFrameIndex: -1,
	}
	r := NewAnyRead(srcSize)
	c.appendReadFor(e, v.value, r)
	e.Src = r
	c.link(e)
	return Operand{result}
}

func (c *Context) Load(size int, v Operand) Operand      { return c.move(MovePlain, size, size, v) }
func (c *Context) LoadZ(size int, v Operand) Operand     { return c.move(MoveZeroExtend, size, size, v) }
func (c *Context) Load4To8(v Operand) Operand            { return c.move(MoveExtend4To8, 4, 8, v) }

// Cmp emits a Compare, or folds it into c.pendingCompare when both
// operands are resolved constants (spec §4.4 Compare/Branch).
func (c *Context) Cmp(size int, a, b Operand) {
	e := &CompareEvent{EventHeader: c.newEvent(), Size: size}
	first := NewAnyRead(size)
	second := NewAnyRead(size)
	c.appendReadFor(e, a.value, first)
	c.appendReadFor(e, b.value, second)
	e.First, e.Second = first, second
	c.link(e)
}

func (c *Context) branch(op BranchOp, target Operand) {
	c.stackSync()
	var p Promise
	if target.value.Sites != nil {
		switch target.value.Sites.Kind {
		case SiteAddress, SiteConstant:
			p = target.value.Sites.Promise
		}
	}
	if p == nil {
		abort(c, "branch target is not an address or constant operand")
	}
	e := &BranchEvent{EventHeader: c.newEvent(), Op: op, Target: p}
	c.link(e)
}

func (c *Context) Jl(target Operand)  { c.branch(BrJumpIfLess, target) }
func (c *Context) Jg(target Operand)  { c.branch(BrJumpIfGreater, target) }
func (c *Context) Jle(target Operand) { c.branch(BrJumpIfLessOrEqual, target) }
func (c *Context) Jge(target Operand) { c.branch(BrJumpIfGreaterOrEqual, target) }
func (c *Context) Je(target Operand)  { c.branch(BrJumpIfEqual, target) }
func (c *Context) Jne(target Operand) { c.branch(BrJumpIfNotEqual, target) }
func (c *Context) Jmp(target Operand) { c.branch(BrJump, target) }

// CheckBounds guards an array access; handler is jumped to on failure
// (spec §4.4 BoundsCheck).
func (c *Context) CheckBounds(object, index Operand, lengthOffset int, handler Operand) {
	var p Promise
	if handler.value.Sites != nil {
		p = handler.value.Sites.Promise
	}
	if p == nil {
		abort(c, "checkBounds: handler is not an address operand")
	}
	e := &BoundsCheckEvent{EventHeader: c.newEvent(), LengthOffset: lengthOffset, Handler: p}
	objRead := NewAnyRead(WordSize)
	idxRead := NewAnyRead(4)
	c.appendReadFor(e, object.value, objRead)
	c.appendReadFor(e, index.value, idxRead)
	e.ObjectRead, e.IndexRead = objRead, idxRead
	c.link(e)
}

func (c *Context) callWith(address Operand, flags CallFlags, trace TraceHandler, resultSize int, stackOnly bool, args ...Operand) Operand {
	c.saveStack()

	var result *Value
	if resultSize > 0 {
		result = c.NewValue()
	}
	e := &CallEvent{
		EventHeader:  c.newEvent(),
		StackOnly:    stackOnly,
		Flags:        flags,
		ResultSize:   resultSize,
		Result:       result,
		TraceHandler: trace,
	}

	addrRead := NewAnyRead(WordSize)
	c.appendReadFor(e, address.value, addrRead)
	e.AddressRead = addrRead

	e.Args = make([]*Value, len(args))
	e.ArgSizes = make([]int, len(args))
	for i, a := range args {
		size := WordSize
		r := NewAnyRead(size)
		c.appendReadFor(e, a.value, r)
		e.Args[i] = a.value
		e.ArgSizes[i] = size
	}
	c.link(e)

	return Operand{result}
}

// Call implements the façade's call(); trace and resultSize follow the
// spec §6.1 signature (resultSize of 0 means the call has no result).
func (c *Context) Call(address Operand, flags CallFlags, trace TraceHandler, resultSize int, args ...Operand) Operand {
	return c.callWith(address, flags, trace, resultSize, false, args...)
}

// StackCall is Call with every argument forced onto the machine stack,
// ignoring argument registers (spec §6.1 stackCall).
func (c *Context) StackCall(address Operand, flags CallFlags, trace TraceHandler, resultSize int, args ...Operand) Operand {
	return c.callWith(address, flags, trace, resultSize, true, args...)
}

// Return implements the façade's return(); v is nil for a void return.
func (c *Context) Return(size int, v *Operand) {
	e := &ReturnEvent{EventHeader: c.newEvent(), Size: size}
	if v != nil {
		e.Value = v.value
		r := NewAnyRead(size)
		c.appendReadFor(e, v.value, r)
		e.Read = r
	}
	c.link(e)
}
