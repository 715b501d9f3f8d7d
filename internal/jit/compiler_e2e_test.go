package jit_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/vireltech/vrjit/internal/jit"
	"github.com/vireltech/vrjit/internal/jit/stubasm"
)

// TestReturnConstant covers scenario S1: returning a bare constant
// should produce the prologue, a single Move into the return register,
// and the epilogue.
func TestReturnConstant(t *testing.T) {
	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	v := c.Constant(42)
	c.Return(4, &v)
	c.Compile()

	text := asm.Text()
	lines := strings.Split(text, "\n")

	if lines[0] != "Push reg(6)" {
		t.Fatalf("prologue push: got %q", lines[0])
	}
	if lines[1] != "Move reg(7),reg(6)" {
		t.Fatalf("prologue sp->base move: got %q", lines[1])
	}
	if !strings.Contains(text, "Move const(42),reg(0)") {
		t.Fatalf("expected constant moved into return register, got:\n%s", text)
	}
	if !strings.HasSuffix(text, "Pop reg(6)\nReturn reg(0)") {
		t.Fatalf("expected epilogue at end, got:\n%s", text)
	}
}

// TestLocalAdd covers scenario S2: two locals are stored, reloaded,
// added, pushed and popped back before returning.
func TestLocalAdd(t *testing.T) {
	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	c.StoreLocal(4, c.Constant(1), 0)
	c.StoreLocal(4, c.Constant(2), 1)

	sum := c.Add(4, c.LoadLocal(4, 0), c.LoadLocal(4, 1))
	c.Push(4, sum)
	popped := c.Pop(4)
	c.Return(4, &popped)
	c.Compile()

	text := asm.Text()
	if strings.Count(text, "Move const(1),[r6") != 1 {
		t.Fatalf("expected exactly one store of local 0, got:\n%s", text)
	}
	if strings.Count(text, "Move const(2),[r6") != 1 {
		t.Fatalf("expected exactly one store of local 1, got:\n%s", text)
	}
	if !strings.Contains(text, "Binary(0)") {
		t.Fatalf("expected an Add (BinaryOp 0) in the emission, got:\n%s", text)
	}
	if !strings.HasSuffix(text, "Return reg(0)") {
		t.Fatalf("expected a final return of the popped sum, got:\n%s", text)
	}
}

// TestConditionalBranch covers scenario S3: a Compare followed by a
// conditional branch to a mark whose CodePromise resolves once the
// mark is reached during the compile pass.
func TestConditionalBranch(t *testing.T) {
	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	a := c.BasePointer()
	b := c.StackPointer()
	label := c.Label()

	c.Cmp(4, a, b)
	c.Jl(label)

	c.StartLogicalIp(1)
	c.Mark(label)
	c.Return(4, nil)
	c.Compile()

	text := asm.Text()
	if !strings.Contains(text, "Compare reg(6),reg(7)") {
		t.Fatalf("expected a real Compare (operands are not constants), got:\n%s", text)
	}
	if !strings.Contains(text, "Branch(1)") {
		t.Fatalf("expected BrJumpIfLess (op 1), got:\n%s", text)
	}
}

// TestCallWithThreeArgs covers scenario S4: the first two arguments
// land in argument registers, the third is pushed, and the post-call
// cleanup adjusts the stack by exactly the pushed footprint.
func TestCallWithThreeArgs(t *testing.T) {
	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	addr := c.Constant(0x1000)
	x, y, z := c.Constant(1), c.Constant(2), c.Constant(3)

	result := c.Call(addr, 0, nil, 4, x, y, z)
	c.Return(4, &result)
	c.Compile()

	text := asm.Text()
	if !strings.Contains(text, "Push const(3)") {
		t.Fatalf("expected the third argument pushed onto the stack, got:\n%s", text)
	}
	if !strings.Contains(text, "Call const(4096)") {
		t.Fatalf("expected the call itself, got:\n%s", text)
	}
	if !strings.Contains(text, "Binary(0) const(8),reg(7)") {
		t.Fatalf("expected a one-word stack cleanup after the call, got:\n%s", text)
	}
}

// TestConstantCompareFolds verifies that comparing two resolved
// constants never reaches the assembler's Compare, only the branch it
// folds to.
func TestConstantCompareFolds(t *testing.T) {
	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	label := c.Label()
	c.Cmp(4, c.Constant(1), c.Constant(2))
	c.Jl(label)
	c.StartLogicalIp(1)
	c.Mark(label)
	c.Return(4, nil)
	c.Compile()

	text := asm.Text()
	if strings.Contains(text, "Compare") {
		t.Fatalf("constant compare should have folded away, got:\n%s", text)
	}
	if !strings.Contains(text, "Branch(0)") {
		t.Fatalf("expected the always-taken branch to fold to an unconditional Jump, got:\n%s", text)
	}
}

// TestRegisterPressureSpill covers scenario S5: negating six constants
// in a row forces six simultaneously-live values through stubasm's
// five non-reserved registers. The sixth must evict whichever victim
// the cost function picks by saving it to a frame slot before binding
// the register to its new occupant.
func TestRegisterPressureSpill(t *testing.T) {
	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	negs := make([]jit.Operand, 6)
	for i := 0; i < 6; i++ {
		negs[i] = c.Neg(4, c.Constant(int64(i)))
	}
	sum := negs[0]
	for i := 1; i < 6; i++ {
		sum = c.Add(4, sum, negs[i])
	}
	c.Return(4, &sum)
	c.Compile()

	text := asm.Text()
	spill := regexp.MustCompile(`Move reg\(\d+\),\[r\d`)
	if !spill.MatchString(text) {
		t.Fatalf("expected a register-to-frame-slot spill under pressure, got:\n%s", text)
	}
}

// TestSixtyFourBitAddOnThirtyTwoBitTarget covers scenario S6: an 8-byte
// add on a target configured with a 4-byte word size must acquire a
// register pair for each operand, visible in stubasm's "reg(low:high)"
// rendering.
func TestSixtyFourBitAddOnThirtyTwoBitTarget(t *testing.T) {
	asm := stubasm.New()
	cfg := jit.DefaultConfig()
	cfg.TargetWordSize = 4
	c := jit.NewContext(asm, cfg)
	c.StartLogicalIp(0)

	a := c.Constant(100)
	b := c.Constant(200)
	sum := c.Add(8, a, b)
	c.Return(8, &sum)
	c.Compile()

	text := asm.Text()
	pair := regexp.MustCompile(`reg\(\d+:\d+\)`)
	if !pair.MatchString(text) {
		t.Fatalf("expected a paired-register operand on a 32-bit target, got:\n%s", text)
	}
	if !strings.Contains(text, "Binary(0)") {
		t.Fatalf("expected the word-pair Add itself, got:\n%s", text)
	}
}
