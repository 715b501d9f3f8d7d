// call_event.go - Call and Return
//
// Call forces every pending operand-stack entry onto the native stack
// first (spec §4.3/§4.4), then places arguments into registers or onto
// the stack per the assembler's argument-register count, emits the
// call, wires up a trace CodePromise if the caller asked for one, and
// attaches the result to the return register(s) if anything will read
// it.

package jit

// CallFlags are the bit flags call()/stackCall() accept (spec §6.1).
type CallFlags uint8

const (
	CallAligned  CallFlags = 1 << iota // emit the aligned-call variant
	CallNoReturn                       // omit post-call stack cleanup
	CallIndirect                       // address is the target of an indirect jump
)

func (f CallFlags) has(x CallFlags) bool { return f&x != 0 }

// TraceHandler is invoked during the compile pass with the CodePromise
// pinned to the call instruction, letting a runtime record a stack map
// without participating in error flow (spec §7).
type TraceHandler func(c *Context, p *CodePromise)

// CallEvent implements both call() and stackCall(); StackOnly forces
// every argument onto the machine stack, ignoring argument registers,
// matching a front-end calling convention that never uses them.
type CallEvent struct {
	EventHeader

	AddressRead *Read

	Args     []*Value
	ArgSizes []int

	StackOnly  bool
	Flags      CallFlags
	ResultSize int
	Result     *Value

	TraceHandler TraceHandler
}

func (e *CallEvent) argumentRegisterCount(c *Context) int {
	if e.StackOnly {
		return 0
	}
	return c.assembler.ArgumentRegisterCount()
}

func (e *CallEvent) argumentFootprint(c *Context) int {
	n := len(e.Args) - e.argumentRegisterCount(c)
	if n < 0 {
		return 0
	}
	return n
}

func (e *CallEvent) Compile(c *Context) {
	addrOp := e.AddressRead.operand(c)

	argRegs := e.argumentRegisterCount(c)
	for i, v := range e.Args {
		size := e.ArgSizes[i]
		if i < argRegs {
			reg := c.assembler.ArgumentRegister(i)
			site := NewRegisterSite(maskFor(reg), reg, -1)
			best, cost := v.cheapestSite(site)
			v.attachSite(c, site, size)
			if best != nil && cost > 0 {
				c.emitMove(size, best, site)
			}
			continue
		}
		best, _ := v.cheapestSite(nil)
		if best == nil {
			abort(c, "call: argument has no site to push from")
		}
		c.assembler.Push(size, best.AsAssemblerOperand(c))
	}

	c.assembler.Call(addrOp, e.Flags.has(CallAligned), e.Flags.has(CallIndirect))

	// The callee is free to clobber any register, so no operand-stack
	// value that survived the call (i.e. wasn't itself an argument
	// consumed above) can still trust whatever register site it held
	// going in. Drop every site it has and, if its push already landed
	// on the native stack, reattach that memory site as the only one
	// left — mirroring the original compiler's CallEvent::compile,
	// which clears and re-adds pushSite across exactly this stack
	// snapshot after emitting the call.
	for s := e.Stack; s != nil; s = s.Next {
		s.Value.clearSites(c)
	}
	for s := e.Stack; s != nil; s = s.Next {
		if s.PushSite != nil {
			s.Value.attachSite(c, s.PushSite, s.Size)
		}
	}

	if e.TraceHandler != nil {
		p := NewCodePromise(c)
		p.Offset = c.assembler.Length() // just past the Call emitted above
		e.Promises = append(e.Promises, p)
		e.TraceHandler(c, p)
	}

	if e.Result != nil && e.Result.live() {
		lowReg := c.assembler.ReturnLow()
		var site *Site
		if e.ResultSize > c.wordSize {
			highReg := c.assembler.ReturnHigh()
			site = NewRegisterPairSite(maskFor(lowReg)|maskFor(highReg), lowReg, highReg)
		} else {
			site = NewRegisterSite(maskFor(lowReg), lowReg, -1)
		}
		e.Result.attachSite(c, site, e.ResultSize)
		e.Result.Source = site
	}

	if !e.Flags.has(CallNoReturn) {
		if footprint := e.argumentFootprint(c); footprint > 0 {
			c.adjustStack(footprint)
		}
	} else {
		c.resetStack()
	}
}

// ReturnEvent moves Value (if any) into the return register(s), restores
// the caller's base pointer, and emits the Return instruction (spec
// §4.4 Return).
type ReturnEvent struct {
	EventHeader

	Size  int
	Value *Value
	Read  *Read
}

func (e *ReturnEvent) Compile(c *Context) {
	hasValue := e.Value != nil
	var retOperand AssemblerOperand

	if hasValue {
		lowReg := c.assembler.ReturnLow()
		var site *Site
		if e.Size > c.wordSize {
			highReg := c.assembler.ReturnHigh()
			site = NewRegisterPairSite(maskFor(lowReg)|maskFor(highReg), lowReg, highReg)
		} else {
			site = NewRegisterSite(maskFor(lowReg), lowReg, -1)
		}
		best, cost := e.Value.cheapestSite(site)
		e.Value.attachSite(c, site, e.Size)
		if best != nil && cost > 0 {
			c.emitMove(e.Size, best, site)
		}
		e.Value.Source = site
		retOperand = site.AsAssemblerOperand(c)
	}

	baseOp := AssemblerOperand{Kind: KindRegister, Reg: c.assembler.Base(), RegHigh: -1}
	spOp := AssemblerOperand{Kind: KindRegister, Reg: c.assembler.Stack(), RegHigh: -1}
	c.assembler.Move(MovePlain, WordSize, baseOp, WordSize, spOp)
	c.assembler.Pop(WordSize, baseOp)

	c.assembler.Return(e.Size, retOperand, hasValue)
}
