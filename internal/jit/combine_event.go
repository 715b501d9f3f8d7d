// combine_event.go - two-operand arithmetic/logical ops and unary negate
//
// Combine mirrors the two-operand convention most assemblers give these
// ops: the second operand is clobbered in place and becomes the result.
// If anything still needs the second operand's old value afterward, it
// has to be preserved into a fresh register first (spec §4.4 Combine).

package jit

func isShiftOp(op BinaryOp) bool {
	switch op {
	case OpShl, OpShr, OpUShr:
		return true
	default:
		return false
	}
}

// CombineEvent implements Add, Sub, Mul, Div, Rem, Shl, Shr, UShr, And,
// Or, Xor, LongCompare.
type CombineEvent struct {
	EventHeader

	Op   BinaryOp
	Size int

	First, Second         *Read
	FirstValue, SecondValue *Value
	Result                 *Value
}

func (e *CombineEvent) Compile(c *Context) {
	firstOp := e.First.operand(c)
	secondSite := e.Second.site

	if e.SecondValue.hasFurtherReads(e.Second) && e.SecondValue.onlySite(secondSite) {
		save := newTypedRead(e.Size, KindRegister, AllRegisters(c.assembler.RegisterCount())).allocateSite(c, e.Size)
		c.emitMove(e.Size, secondSite, save)
		e.SecondValue.attachSite(c, save, e.Size)
	}

	// The shift-amount operand is read at a fixed 4-byte size regardless
	// of the shifted value's width; that's arranged when the First Read
	// is constructed (spec §4.4 Combine), not here.
	c.assembler.Binary(e.Op, e.Size, firstOp, secondSite.AsAssemblerOperand(c))

	c.transferSite(e.SecondValue, e.Result, secondSite)
	e.Result.Source = secondSite
}

// TranslateEvent implements the single Negate unary op (spec §4.4
// Translate). Like Combine, it applies in place and hands its operand's
// site to the result.
type TranslateEvent struct {
	EventHeader

	Op    UnaryOp
	Size  int
	Read  *Read
	Value *Value
	Result *Value
}

func (e *TranslateEvent) Compile(c *Context) {
	site := e.Read.site

	if e.Value.hasFurtherReads(e.Read) && e.Value.onlySite(site) {
		save := newTypedRead(e.Size, KindRegister, AllRegisters(c.assembler.RegisterCount())).allocateSite(c, e.Size)
		c.emitMove(e.Size, site, save)
		e.Value.attachSite(c, save, e.Size)
	}

	c.assembler.Unary(e.Op, e.Size, site.AsAssemblerOperand(c))

	c.transferSite(e.Value, e.Result, site)
	e.Result.Source = site
}
