// compile.go - the compile-pass driver
//
// Compile walks the event chain the scan pass built, in the single
// forward order events were appended (spec §4.5): resolve each event's
// reads, let the event emit its own instructions, then finish the
// event (thaw sites, advance read queues) and resolve any CodePromise
// the event attached whose offset is still unknown.

package jit

import (
	"fmt"

	"go.uber.org/zap"
)

// frameSizePromise resolves to the final frame size once the compile
// pass has finished, so the prologue's stack-pointer subtraction can be
// emitted before that size is known (spec §4.5 step 1).
type frameSizePromise struct {
	c *Context
}

func (p *frameSizePromise) Resolved() bool { return p.c.compiled }
func (p *frameSizePromise) Value() int64   { return int64(p.c.frameSize()) }

// Compile runs the compile pass over every logical instruction's event
// chain, in program order, and returns the final code length in bytes.
func (c *Context) Compile() int {
	assertInvariant(c, c.pass == PassScan, "Compile called outside the scan pass")
	c.pass = PassCompile
	c.updateJunctions()

	baseOp := AssemblerOperand{Kind: KindRegister, Reg: c.assembler.Base(), RegHigh: -1}
	spOp := AssemblerOperand{Kind: KindRegister, Reg: c.assembler.Stack(), RegHigh: -1}
	c.assembler.Push(WordSize, baseOp)
	c.assembler.Move(MovePlain, WordSize, spOp, WordSize, baseOp)
	c.assembler.Binary(OpSub, WordSize,
		AssemblerOperand{Kind: KindConstant, Promise: &frameSizePromise{c: c}}, spOp)

	for _, li := range c.logicalCode {
		li.MachineOffset = c.assembler.Length()
		for e := li.FirstEvent; e != nil; e = e.header().Next {
			c.resolveReads(e)
			c.logs.Compile.Debug("compile", zap.String("event", fmt.Sprintf("%T", e)))
			e.Compile(c)
			c.finishEvent(e)
			for _, p := range e.header().Promises {
				if p.Offset < 0 {
					p.Offset = c.assembler.Length()
				}
			}
		}
	}

	c.compiled = true
	return c.assembler.Length()
}

// WriteTo copies the assembled code into dst, padded to a word
// boundary, followed by the resolved value of each constant-pool
// promise in pool order (spec §6.3).
func (c *Context) WriteTo(dst []byte) {
	assertInvariant(c, c.compiled, "WriteTo called before Compile")
	c.machineCode = dst

	length := c.assembler.Length()
	c.assembler.WriteTo(dst[:length])

	offset := pad(length)
	for node := c.firstConstant; node != nil; node = node.Next {
		writeInt64(dst[offset:offset+WordSize], node.Promise.Value())
		offset += WordSize
	}
}

func writeInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < WordSize; i++ {
		b[i] = byte(u)
		u >>= 8
	}
}

// Dispose releases the context's arena. Safe to call once compilation
// (and any WriteTo) has finished.
func (c *Context) Dispose() {
	c.arena.Dispose()
}
