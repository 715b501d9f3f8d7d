// locals.go - front-end local-variable slots
//
// A local is tracked as whichever Value currently holds it, not as a
// dedicated IR node: loadLocal simply hands back that Value, so a local
// that is stored once and read many times costs nothing beyond the
// store itself. The first store for a given index claims a frame slot
// as that local's permanent home (Value.HomeFrameIndex), which the
// register allocator's replaceRegister (via synthesizeSaveSite) prefers
// as a spill target (spec §4.2 "Stealing").

package jit

func (c *Context) ensureLocalsCap(index int) {
	if index < len(c.locals) {
		return
	}
	grown := make([]*Value, index+1)
	copy(grown, c.locals)
	c.locals = grown
}

// frameIndexForLocal returns the frame slot permanently assigned to
// local index, allocating one on first use.
func (c *Context) frameIndexForLocal(index int) int {
	if idx, ok := c.localFrame[index]; ok {
		return idx
	}
	idx := c.allocateFrameSlot(WordSize)
	if idx < 0 {
		abort(c, "no frame slot available for local")
	}
	c.localFrame[index] = idx
	return idx
}
