// context.go - the backend's mutable root
//
// One Context belongs to exactly one compilation. It is never shared
// across goroutines; parallel compilations each get their own Context,
// Assembler and arena (spec §5).

package jit

import "go.uber.org/zap"

// Pass distinguishes the two walks the compiler makes over a function:
// Scan constructs events and read lists, Compile emits bytes and
// resolves code promises.
type Pass int

const (
	PassScan Pass = iota
	PassCompile
)

// Context is the whole backend's mutable state for one compilation.
type Context struct {
	config    *Config
	log       *zap.Logger
	logs      Loggers
	assembler Assembler
	arena     *Arena

	regs *RegisterFile

	// wordSize is the target's register/pointer width in bytes, read
	// from Config.TargetWordSize. A value whose size exceeds it must
	// occupy a register pair (spec §4.2 "Freezing").
	wordSize int

	logicalIp   int
	state       *State
	logicalCode []*LogicalInstruction

	valueSeq     int
	nextSequence int
	currentSize  int // size in bytes of the operand the event under construction concerns

	// Frame layout: slots are word-sized, bump-allocated, never reused
	// within one compilation (matching the source compiler's simple
	// frame model; a smarter allocator could recycle slots once a
	// value's last read passes, but that is out of scope here).
	frameSlotCount int
	paramSlotCount int

	firstConstant *ConstantPoolNode
	lastConstant  *ConstantPoolNode
	constantCount int
	constantIndex map[int64]int // dedups identical scalar constants

	junctions *Junction

	machineCode []byte
	stackReset  bool

	pass     Pass
	compiled bool

	resolvedThisEvent []resolvedRead

	// locals holds the current Value bound to each front-end local slot;
	// localFrame records which frame index a local is homed to once it
	// has been stored at least once (spec §6.1 storeLocal/loadLocal).
	locals     []*Value
	localFrame map[int]int

	// pendingCompare caches a Compare event's operands when both sides
	// were compile-time constants, letting the following Branch fold
	// itself to an unconditional Jump or elide entirely (spec §4.4
	// Compare/Branch).
	pendingCompare *pendingCompare

	// helperResolver maps a Combine op to the address of a runtime
	// helper function, consulted when the assembler's Plan reports it
	// cannot realize the op directly (spec §4.4 step 1, §7 "planning
	// shortfall"). Front-ends wire this in before constructing any
	// arithmetic event that might need it.
	helperResolver func(BinaryOp) Promise
}

type pendingCompare struct {
	a, b int64
}

// SetHelperResolver installs the callback used to resolve runtime-helper
// addresses for binary ops the assembler's Plan cannot implement
// directly.
func (c *Context) SetHelperResolver(f func(BinaryOp) Promise) {
	c.helperResolver = f
}

// ConstantPoolNode is one entry in the linked list of promises that
// writeTo resolves into the trailing constant-pool region.
type ConstantPoolNode struct {
	Promise Promise
	Next    *ConstantPoolNode
}

// NewContext creates a fresh compilation context around the caller's
// assembler. cfg may be nil, in which case DefaultConfig() is used.
func NewContext(asm Assembler, cfg *Config) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	wordSize := cfg.TargetWordSize
	if wordSize <= 0 {
		wordSize = WordSize
	}
	base := newLogger(cfg)
	c := &Context{
		config:        cfg,
		log:           base,
		logs:          newLoggers(cfg, base),
		assembler:     asm,
		arena:         NewArena(),
		regs:          NewRegisterFile(asm),
		wordSize:      wordSize,
		logicalIp:     -1,
		state:         &State{},
		constantIndex: make(map[int64]int),
		localFrame:    make(map[int]int),
	}
	return c
}

// frameDisplacement converts a frame slot index into a byte displacement
// from the base register. Slot 0 sits immediately below the saved base
// pointer; slots grow downward.
func (c *Context) frameDisplacement(index int) int {
	return -(index + 1) * WordSize
}

// allocateFrameSlot bump-allocates a new word-sized frame slot and
// returns its index, or -1 if the frame has grown past any configured
// limit (treated by callers as "no save location available").
func (c *Context) allocateFrameSlot(size int) int {
	words := (size + WordSize - 1) / WordSize
	if words < 1 {
		words = 1
	}
	if c.config.MaxFrameSlots > 0 && c.frameSlotCount+words > c.config.MaxFrameSlots {
		return -1
	}
	idx := c.frameSlotCount
	c.frameSlotCount += words
	return idx
}

// frameSize is the total stack-frame size in bytes, rounded up to a
// fixed 16-byte alignment.
func (c *Context) frameSize() int {
	raw := c.frameSlotCount * WordSize
	align := 16
	return (raw + align - 1) &^ (align - 1)
}

// emitMove emits a bare plain Move between two sites. It is used by
// read resolution, by events that place values in fixed registers
// (Call, Return) or preserve a clobbered operand (Combine, Translate),
// and while replacing a register's resident value (spec §4.2).
func (c *Context) emitMove(size int, src, dst *Site) {
	c.assembler.Move(MovePlain, size, src.AsAssemblerOperand(c), size, dst.AsAssemblerOperand(c))
}

// transferSite moves a site from one value to another without releasing
// and reacquiring its underlying resource, used when an in-place
// Combine or Translate hands its clobbered operand's site to the result
// value it just computed.
func (c *Context) transferSite(from, to *Value, s *Site) {
	from.dropSite(s)
	to.adoptSite(s)
	if s.Kind == SiteRegister {
		c.regs.Registers[s.Reg].Value = to
		if s.Paired {
			c.regs.Registers[s.RegHigh].Value = to
		}
	}
}

// recordConstant appends a promise to the constant pool, deduping
// scalar ResolvedPromise values so repeated identical constants share a
// slot (spec §6.3 only requires pool entries resolve correctly; dedup is
// a space optimization grounded in the same intent).
func (c *Context) recordConstant(p Promise) int {
	if rp, ok := p.(*ResolvedPromise); ok {
		if idx, ok := c.constantIndex[rp.K]; ok {
			return idx
		}
	}
	node := &ConstantPoolNode{Promise: p}
	if c.lastConstant == nil {
		c.firstConstant = node
	} else {
		c.lastConstant.Next = node
	}
	c.lastConstant = node
	idx := c.constantCount
	c.constantCount++
	if rp, ok := p.(*ResolvedPromise); ok {
		c.constantIndex[rp.K] = idx
	}
	return idx
}

// PoolSize returns the byte size of the trailing constant-pool region.
func (c *Context) PoolSize() int {
	return c.constantCount * WordSize
}
