// move_event.go - Move/MoveZ/Move4To8 and local-store semantics
//
// A MoveEvent backs both the front-end's explicit load/loadz/load4To8
// operations (Dst is a fresh Value) and storeLocal (Dst is nil and the
// resolved site is folded back onto the source value itself, since a
// store doesn't produce a new symbolic value — spec §4.4 Move).

package jit

// MoveEvent copies SrcValue, through whichever site the generic read
// resolution already settled it in, into a freshly chosen destination
// site.
type MoveEvent struct {
	EventHeader

	Kind    MoveKind
	SrcSize int
	DstSize int

	Src      *Read
	SrcValue *Value

	// Dst is nil for a store: the destination site is attached back
	// onto SrcValue instead of a new Value.
	Dst *Value

	DstKind       OperandKind
	DstRegMask    RegisterMask
	DstFrameIndex int // -1 unless this move targets a specific frame slot (storeLocal)
}

func (e *MoveEvent) Compile(c *Context) {
	srcOp := e.Src.operand(c)

	read := newTypedRead(e.DstSize, e.DstKind, e.DstRegMask)
	if e.DstFrameIndex >= 0 {
		read.FrameIndex = e.DstFrameIndex
	}
	site := read.allocateSite(c, e.DstSize)

	c.assembler.Move(e.Kind, e.SrcSize, srcOp, e.DstSize, site.AsAssemblerOperand(c))

	if e.Dst != nil {
		e.Dst.attachSite(c, site, e.DstSize)
		e.Dst.Source = site
		return
	}
	e.SrcValue.attachSite(c, site, e.DstSize)
	e.SrcValue.Source = site
}
