package jit

import (
	"testing"
)

type fakeAssembler struct{ regs int }

func (f *fakeAssembler) RegisterCount() int          { return f.regs }
func (f *fakeAssembler) Base() int                   { return f.regs - 1 }
func (f *fakeAssembler) Stack() int                   { return f.regs - 2 }
func (f *fakeAssembler) Thread() int                  { return f.regs - 3 }
func (f *fakeAssembler) ReturnLow() int              { return 0 }
func (f *fakeAssembler) ReturnHigh() int             { return 1 }
func (f *fakeAssembler) ArgumentRegisterCount() int  { return 2 }
func (f *fakeAssembler) ArgumentRegister(i int) int  { return i }
func (f *fakeAssembler) PlanMove(k MoveKind, s, d int) (OperandKind, RegisterMask) {
	return KindRegister, AllRegisters(f.regs)
}
func (f *fakeAssembler) PlanUnary(op UnaryOp, s int) (OperandKind, RegisterMask) {
	return KindRegister, AllRegisters(f.regs)
}
func (f *fakeAssembler) PlanBinary(op BinaryOp, s int) (OperandKind, OperandKind, RegisterMask, RegisterMask, bool) {
	return KindRegister, KindRegister, AllRegisters(f.regs), AllRegisters(f.regs), false
}
func (f *fakeAssembler) Move(MoveKind, int, AssemblerOperand, int, AssemblerOperand)      {}
func (f *fakeAssembler) Unary(UnaryOp, int, AssemblerOperand)                             {}
func (f *fakeAssembler) Binary(BinaryOp, int, AssemblerOperand, AssemblerOperand)         {}
func (f *fakeAssembler) Compare(int, AssemblerOperand, AssemblerOperand)                  {}
func (f *fakeAssembler) Branch(BranchOp, AssemblerOperand)                               {}
func (f *fakeAssembler) Push(int, AssemblerOperand)                                       {}
func (f *fakeAssembler) Pop(int, AssemblerOperand)                                        {}
func (f *fakeAssembler) Call(AssemblerOperand, bool, bool)                                {}
func (f *fakeAssembler) Return(int, AssemblerOperand, bool)                               {}
func (f *fakeAssembler) Length() int                                                      { return 0 }
func (f *fakeAssembler) WriteTo([]byte)                                                   {}
func (f *fakeAssembler) StackPadding(int) int                                             { return 0 }
func (f *fakeAssembler) SetClient(Client)                                                 {}

// TestSiteConsistency checks invariant 1: a register site attached to a
// value is mirrored by that register's Value pointer, and vice versa.
func TestSiteConsistency(t *testing.T) {
	c := NewContext(&fakeAssembler{regs: 8}, nil)
	v := c.NewValue()
	mask := AllRegisters(8) &^ (maskFor(5) | maskFor(6) | maskFor(7))
	site := NewRegisterSite(mask, -1, -1)
	v.attachSite(c, site, 4)

	reg := site.Reg
	if c.regs.Registers[reg].Value != v {
		t.Fatalf("register %d does not point back to the value that attached it", reg)
	}
	if !v.hasSite(site) {
		t.Fatalf("value lost the site it just attached")
	}
}

// TestFreezeDiscipline checks invariant 3: a frozen register is never
// stolen.
func TestFreezeDiscipline(t *testing.T) {
	c := NewContext(&fakeAssembler{regs: 8}, nil)
	v := c.NewValue()
	site := NewRegisterSite(maskFor(0), 0, -1)
	v.attachSite(c, site, 4)
	site.freeze(c)

	if c.regs.Registers[0].RefCount < c.regs.Registers[0].FreezeCount {
		t.Fatalf("refCount dropped below freezeCount")
	}
	if c.stealRegister(&c.regs.Registers[0]) {
		t.Fatalf("a frozen register must not be stealable")
	}
	site.thaw(c)
}

// TestPushIdempotence checks invariant 4: pushNow on an already-pushed
// stack is a no-op, and every entry ends up with a non-nil pushSite.
func TestPushIdempotence(t *testing.T) {
	c := NewContext(&fakeAssembler{regs: 8}, nil)
	c.logicalIp = 0
	c.logicalCode = []*LogicalInstruction{{LogicalIp: 0}}

	v := c.NewValueWithSite(NewConstantSite(&ResolvedPromise{K: 7}))
	entry := c.pushValue(4, v)

	c.pushNow(c.state.Stack)
	if !entry.Pushed || entry.PushSite == nil {
		t.Fatalf("expected entry to be pushed with a push site after pushNow")
	}

	c.pushNow(c.state.Stack) // second call must be a no-op
	if !entry.Pushed {
		t.Fatalf("entry lost its pushed flag across a second pushNow")
	}
}
