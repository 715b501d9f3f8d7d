// site.go - polymorphic location descriptors
//
// A Site describes one concrete place a Value's bits can currently be
// found: a constant, a deferred address, a register (or register pair
// on a 32-bit target), a base+displacement+index*scale memory location,
// or a fixed frame slot. Per the design notes this is modeled as a
// tagged struct rather than a class hierarchy so dispatch stays a plain
// switch instead of virtual calls, and so Value.Sites can be a simple
// intrusive linked list with no boxing.

package jit

// SiteKind tags which of the Site variants is populated.
type SiteKind int

const (
	SiteConstant SiteKind = iota
	SiteAddress
	SiteRegister
	SiteMemory
	SiteFrame
	SiteVirtual
)

// Site is one location materializing a Value. Sites form an intrusive
// singly-linked list off Value.Sites; a Site belongs to exactly one
// Value at a time.
type Site struct {
	Kind SiteKind
	Next *Site

	// SiteConstant / SiteAddress
	Promise Promise

	// SiteRegister
	Reg     int
	RegHigh int // -1 unless Paired
	RegMask RegisterMask
	Paired  bool // true when this site must occupy a low/high register pair

	// SiteMemory: [Base + Displacement + Index*Scale]
	Base         int
	Displacement int
	Index        int // -1 when there is no index register
	Scale        int

	// SiteFrame
	FrameIndex int

	// SiteVirtual: a placeholder built during scan to carry a Read's
	// constraints until allocateSite resolves it to a concrete site.
	VTypeMask OperandKind
	VRegMask  RegisterMask
}

func NewConstantSite(p Promise) *Site {
	return &Site{Kind: SiteConstant, Promise: p}
}

func NewAddressSite(p Promise) *Site {
	return &Site{Kind: SiteAddress, Promise: p}
}

// NewRegisterSite describes a value pinned to a specific register (or
// register pair). mask is the set of registers the site would accept if
// re-acquired elsewhere; reg/regHigh are the currently assigned numbers,
// or -1 if not yet assigned.
func NewRegisterSite(mask RegisterMask, reg, regHigh int) *Site {
	return &Site{Kind: SiteRegister, RegMask: mask, Reg: reg, RegHigh: regHigh}
}

// NewRegisterPairSite describes a value spanning two registers, as
// required when a value's size exceeds the target's register width
// (spec §4.2 "Freezing": 64-bit values on a 32-bit target). low and
// high may be -1 to defer the pick to acquire.
func NewRegisterPairSite(mask RegisterMask, low, high int) *Site {
	return &Site{Kind: SiteRegister, RegMask: mask, Reg: low, RegHigh: high, Paired: true}
}

func NewMemorySite(base, displacement, index, scale int) *Site {
	return &Site{Kind: SiteMemory, Base: base, Displacement: displacement, Index: index, Scale: scale}
}

func NewFrameSite(frameIndex int) *Site {
	return &Site{Kind: SiteFrame, FrameIndex: frameIndex}
}

func NewVirtualSite(typeMask OperandKind, regMask RegisterMask) *Site {
	return &Site{Kind: SiteVirtual, VTypeMask: typeMask, VRegMask: regMask}
}

// sameMemory reports structural equality of two memory sites, used by
// copyCost to recognize an already-satisfying memory location.
func (s *Site) sameMemory(o *Site) bool {
	return s.Base == o.Base && s.Displacement == o.Displacement &&
		s.Index == o.Index && s.Scale == o.Scale
}

// CopyCost is the relative cost of materializing this site's value into
// target. Zero means target is already satisfied and no move is
// needed; see spec §4.1 for the fixed ordering.
func (s *Site) CopyCost(target *Site) int {
	if target == nil || s == target {
		return 0
	}
	switch s.Kind {
	case SiteConstant:
		return 1
	case SiteAddress:
		return 3
	case SiteRegister:
		if target.Kind == SiteRegister && target.Paired == s.Paired &&
			target.RegMask.has(s.Reg) && (!s.Paired || s.RegHigh == target.RegHigh) {
			return 0
		}
		return 2
	case SiteMemory:
		if target.Kind == SiteMemory && s.sameMemory(target) {
			return 0
		}
		return 4
	case SiteFrame:
		if target.Kind == SiteFrame && s.FrameIndex == target.FrameIndex {
			return 0
		}
		return 4
	default:
		return 4
	}
}

// satisfies reports whether this site, as-is, meets a Read's
// constraints (type mask and, for registers, register mask / frame
// index). It does not move anything.
func (s *Site) satisfies(c *Context, typeMask OperandKind, regMask RegisterMask, frameIndex int) bool {
	switch s.Kind {
	case SiteConstant:
		return typeMask == KindConstant
	case SiteAddress:
		return typeMask == KindAddress
	case SiteRegister:
		return typeMask == KindRegister && regMask.has(s.Reg)
	case SiteMemory:
		return typeMask == KindMemory
	case SiteFrame:
		return typeMask == KindMemory && (frameIndex < 0 || frameIndex == s.FrameIndex)
	default:
		return false
	}
}

// acquire reserves whatever backing resource a site depends on: for a
// register site this increments the register's ref count (acquiring it
// first if unassigned); for a memory site it bumps the ref count of the
// base/index registers it is anchored to.
func (s *Site) acquire(c *Context, v *Value, size int) {
	switch s.Kind {
	case SiteRegister:
		if s.Reg < 0 {
			s.Reg = c.pickRegister(s.RegMask)
			if s.Reg < 0 {
				abort(c, "no register available to satisfy mask")
			}
		}
		c.acquireRegister(s.Reg, v, s, size)
		if s.Paired {
			c.freezeRegister(s.Reg)
			if s.RegHigh < 0 {
				s.RegHigh = c.pickRegister(s.RegMask &^ maskFor(s.Reg))
				if s.RegHigh < 0 {
					abort(c, "no register available for the high half of a register pair")
				}
			}
			c.acquireRegister(s.RegHigh, v, s, size)
			c.thawRegister(s.Reg)
		}
	case SiteMemory:
		c.regs.Registers[s.Base].RefCount++
		if s.Index >= 0 {
			c.regs.Registers[s.Index].RefCount++
		}
	}
}

// release undoes acquire's bookkeeping; called exactly once when the
// site is removed from its value's site list.
func (s *Site) release(c *Context) {
	switch s.Kind {
	case SiteRegister:
		c.releaseRegister(s.Reg)
		if s.Paired {
			c.releaseRegister(s.RegHigh)
		}
	case SiteMemory:
		if s.Base >= 0 {
			r := &c.regs.Registers[s.Base]
			if r.RefCount > 0 {
				r.RefCount--
			}
		}
		if s.Index >= 0 {
			r := &c.regs.Registers[s.Index]
			if r.RefCount > 0 {
				r.RefCount--
			}
		}
	}
}

// freeze pins the resources this site depends on so that a sub-operation
// can rely on them surviving register theft or eviction until thaw.
func (s *Site) freeze(c *Context) {
	if s.Kind == SiteRegister {
		c.freezeRegister(s.Reg)
		if s.Paired {
			c.freezeRegister(s.RegHigh)
		}
	}
}

func (s *Site) thaw(c *Context) {
	if s.Kind == SiteRegister {
		c.thawRegister(s.Reg)
		if s.Paired {
			c.thawRegister(s.RegHigh)
		}
	}
}

// Type maps a site to the OperandKind an assembler sees. Frame sites
// present as memory relative to the base register.
func (s *Site) Type() OperandKind {
	switch s.Kind {
	case SiteConstant:
		return KindConstant
	case SiteAddress:
		return KindAddress
	case SiteRegister:
		return KindRegister
	default:
		return KindMemory
	}
}

// AsAssemblerOperand renders the site into the small descriptor an
// Assembler implementation consumes.
func (s *Site) AsAssemblerOperand(c *Context) AssemblerOperand {
	switch s.Kind {
	case SiteConstant:
		return AssemblerOperand{Kind: KindConstant, Promise: s.Promise}
	case SiteAddress:
		return AssemblerOperand{Kind: KindAddress, Promise: s.Promise}
	case SiteRegister:
		return AssemblerOperand{Kind: KindRegister, Reg: s.Reg, RegHigh: s.RegHigh}
	case SiteMemory:
		return AssemblerOperand{Kind: KindMemory, Base: s.Base, Displacement: s.Displacement, Index: s.Index, Scale: s.Scale}
	case SiteFrame:
		return AssemblerOperand{
			Kind:         KindMemory,
			Base:         c.assembler.Base(),
			Displacement: c.frameDisplacement(s.FrameIndex),
			Index:        -1,
		}
	default:
		abort(c, "virtual site reached asAssemblerOperand without being resolved")
		return AssemblerOperand{}
	}
}
