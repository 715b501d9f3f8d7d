// register.go - the fixed register file and allocation policy
//
// Register holds one architectural slot: which Value currently occupies
// it, through which Site, how many acquired sites reference it, and
// whether it is reserved (base/stack/thread pointers) or frozen against
// theft for the duration of a sub-operation.

package jit

import "go.uber.org/zap"

// RegisterMask is a bitmask of architectural register numbers, one bit
// per register. Constraints from Read.RegisterMask and assembler Plan
// results are intersected as plain bitwise ANDs.
type RegisterMask uint64

func maskFor(n int) RegisterMask { return RegisterMask(1) << uint(n) }

func (m RegisterMask) has(n int) bool { return m&maskFor(n) != 0 }

// AllRegisters is the universal mask for an assembler reporting
// registerCount registers.
func AllRegisters(registerCount int) RegisterMask {
	if registerCount >= 64 {
		return ^RegisterMask(0)
	}
	return (RegisterMask(1) << uint(registerCount)) - 1
}

// Register is one slot of the architectural register file.
type Register struct {
	Number      int
	Value       *Value
	Site        *Site
	Size        int
	RefCount    int
	FreezeCount int
	Reserved    bool
	Pushed      bool
}

func (r *Register) used() bool { return r.Value != nil }

// exclusiveSite reports whether r.Site is the only site materializing
// r.Value; stealing such a register requires finding it a new home
// rather than simply dropping the register site from the value.
func (r *Register) exclusiveSite() bool {
	return r.Value != nil && r.Site != nil && r.Value.onlySite(r.Site)
}

// RegisterFile is the Context's array of architectural registers, sized
// and reserved according to the assembler's report of base/stack/thread
// pointer registers.
type RegisterFile struct {
	Registers []Register
}

func NewRegisterFile(asm Assembler) *RegisterFile {
	rf := &RegisterFile{Registers: make([]Register, asm.RegisterCount())}
	for i := range rf.Registers {
		rf.Registers[i].Number = i
	}
	rf.Registers[asm.Base()].Reserved = true
	rf.Registers[asm.Base()].RefCount = 1
	rf.Registers[asm.Stack()].Reserved = true
	rf.Registers[asm.Stack()].RefCount = 1
	rf.Registers[asm.Thread()].Reserved = true
	rf.Registers[asm.Thread()].RefCount = 1
	return rf
}

// registerCost implements the cost function from spec §4.2: reserved or
// frozen registers are effectively unavailable (6), a register already
// holding a live value costs progressively more depending on how hard
// it would be to evict.
func registerCost(r *Register) int {
	cost := 0
	if r.Reserved || r.FreezeCount > 0 {
		cost += 6
	}
	if r.used() {
		cost++
		if r.exclusiveSite() {
			cost += 2
		}
		if r.RefCount > 0 {
			cost += 2
		}
	}
	return cost
}

// pickRegister scans the register array for the cheapest register whose
// number is admitted by mask, breaking ties by highest register number.
// It returns -1 if mask selects no register at all (a front-end bug).
func (c *Context) pickRegister(mask RegisterMask) int {
	best := -1
	bestCost := 1 << 30
	for i := len(c.regs.Registers) - 1; i >= 0; i-- {
		if !mask.has(i) {
			continue
		}
		cost := registerCost(&c.regs.Registers[i])
		if cost < bestCost {
			bestCost = cost
			best = i
		}
	}
	return best
}

// acquireRegister makes register n ready to hold value v through site s,
// evicting whatever currently lives there via steal-then-replace.
func (c *Context) acquireRegister(n int, v *Value, s *Site, size int) {
	r := &c.regs.Registers[n]
	c.logRegisters("acquire", zap.Int("register", n), zap.Int("value", v.ID))

	if r.Value == v || !r.used() {
		c.bindRegister(r, v, s, size)
		return
	}

	if c.stealRegister(r) {
		c.bindRegister(r, v, s, size)
		return
	}

	c.replaceRegister(r, v, s, size)
}

func (c *Context) bindRegister(r *Register, v *Value, s *Site, size int) {
	r.Value = v
	r.Site = s
	r.Size = size
	r.RefCount++
}

// stealRegister tries to evict r's current value without emitting a
// Move: if that value has another site, the register site is simply
// detached. Otherwise a save location is needed, which the caller must
// arrange by falling back to replaceRegister.
func (c *Context) stealRegister(r *Register) bool {
	if r.FreezeCount > 0 || r.Reserved {
		return false
	}
	v := r.Value
	if v == nil {
		return true
	}
	c.logRegisters("try steal", zap.Int("register", r.Number), zap.Int("value", v.ID))
	if !v.onlySite(r.Site) {
		v.removeSite(c, r.Site)
		return true
	}
	return false
}

// replaceRegister evicts r's resident value by emitting a Move to a
// save location from synthesizeSaveSite (the value's home frame slot if
// it is a local, else a fresh frame slot), then frees the register for
// the caller's new occupant. The value's pending read constraints are
// not consulted and the operand stack is never used as a save location;
// if no frame slot can be allocated, the compilation aborts.
func (c *Context) replaceRegister(r *Register, newValue *Value, newSite *Site, size int) {
	if v := r.Value; v != nil && r.FreezeCount == 0 && !r.Reserved {
		save := c.synthesizeSaveSite(v, r.Size)
		if save == nil {
			abort(c, "no save location available while replacing a register")
		}
		c.logRegisters("replace", zap.Int("register", r.Number), zap.Int("evicted_value", v.ID), zap.Int("new_value", newValue.ID))
		c.emitMove(r.Size, siteFromRegister(r), save)
		v.attachSite(c, save, r.Size)
		v.removeSite(c, r.Site)
	}
	r.Value = nil
	r.Site = nil
	c.bindRegister(r, newValue, newSite, size)
}

// synthesizeSaveSite finds somewhere to park a value being evicted from
// a register: a local's frame slot if it is a current local binding,
// else a fresh frame slot sized to fit it.
func (c *Context) synthesizeSaveSite(v *Value, size int) *Site {
	if v.HomeFrameIndex >= 0 {
		return NewFrameSite(v.HomeFrameIndex)
	}
	idx := c.allocateFrameSlot(size)
	if idx < 0 {
		return nil
	}
	return NewFrameSite(idx)
}

func siteFromRegister(r *Register) *Site {
	return r.Site
}

// releaseRegister clears a register's residency bookkeeping; called when a
// Register site is released by its owning value.
func (c *Context) releaseRegister(n int) {
	r := &c.regs.Registers[n]
	if r.RefCount > 0 {
		r.RefCount--
	}
	if r.RefCount == 0 {
		c.logRegisters("release", zap.Int("register", n))
		r.Value = nil
		r.Site = nil
	}
}

func (c *Context) freezeRegister(n int) {
	c.regs.Registers[n].FreezeCount++
}

func (c *Context) thawRegister(n int) {
	r := &c.regs.Registers[n]
	assertInvariant(c, r.FreezeCount > 0, "thaw of a register that was not frozen")
	r.FreezeCount--
}

func (c *Context) logRegisters(msg string, fields ...zap.Field) {
	c.logs.Registers.Debug(msg, fields...)
}
