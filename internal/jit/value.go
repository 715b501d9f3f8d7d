// value.go - SSA-like symbolic operands
//
// A Value is produced once by the front-end and may be read many times.
// It tracks every Site currently materializing it and the ordered queue
// of Reads describing future uses. Per spec §3: if Reads is non-empty
// the value is live, and at least one Site must exist on entry to each
// reading event.

package jit

// Value is a symbolic operand. ID is assigned sequentially by the
// Context and used only for diagnostics and test assertions (the
// allocator never needs it).
type Value struct {
	ID    int
	Sites *Site // intrusive list, see Site.Next

	Reads     *Read // head of the pending-read queue
	lastRead  *Read

	Source *Site // site chosen for the event currently being compiled
	Target *Site // optional hint carried from construction

	// HomeFrameIndex is >= 0 when this value is a current local variable
	// binding; replaceRegister (via synthesizeSaveSite) prefers this slot
	// as a save location so a spilled local doesn't need a second,
	// throwaway slot.
	HomeFrameIndex int
}

func (c *Context) NewValue() *Value {
	c.valueSeq++
	return &Value{ID: c.valueSeq, HomeFrameIndex: -1}
}

// NewValueWithSite creates a value already materialized at s (used for
// operands the front-end builds directly, e.g. constant(42)).
func (c *Context) NewValueWithSite(s *Site) *Value {
	v := c.NewValue()
	v.Sites = s
	return v
}

func (v *Value) live() bool { return v.Reads != nil }

// hasFurtherReads reports whether r is not the last pending read of its
// value, i.e. something still depends on v after r's event compiles.
func (v *Value) hasFurtherReads(r *Read) bool { return r.next != nil }

func (v *Value) onlySite(s *Site) bool {
	return v.Sites == s && s.Next == nil
}

func (v *Value) hasSite(s *Site) bool {
	for p := v.Sites; p != nil; p = p.Next {
		if p == s {
			return true
		}
	}
	return false
}

// attachSite links s onto v's site list, acquiring whatever resource it
// depends on first. It is a no-op if s is already attached.
func (v *Value) attachSite(c *Context, s *Site, size int) {
	if v.hasSite(s) {
		return
	}
	s.acquire(c, v, size)
	s.Next = v.Sites
	v.Sites = s
}

// removeSite detaches s from v's site list and releases its resource.
func (v *Value) removeSite(c *Context, s *Site) {
	prev := (*Site)(nil)
	for p := v.Sites; p != nil; p = p.Next {
		if p == s {
			if prev == nil {
				v.Sites = p.Next
			} else {
				prev.Next = p.Next
			}
			s.release(c)
			return
		}
		prev = p
	}
}

// adoptSite links an already-acquired site onto v without touching its
// underlying resource; dropSite is its inverse. Together they let a
// Combine event hand its destination site from the clobbered operand
// to the result value without a spurious release/acquire round trip
// (spec §4.4 Combine).
func (v *Value) adoptSite(s *Site) {
	s.Next = v.Sites
	v.Sites = s
}

func (v *Value) dropSite(s *Site) {
	prev := (*Site)(nil)
	for p := v.Sites; p != nil; p = p.Next {
		if p == s {
			if prev == nil {
				v.Sites = p.Next
			} else {
				prev.Next = p.Next
			}
			return
		}
		prev = p
	}
}

// removeMemorySites drops every memory-backed (memory or frame) site of
// v, releasing each one.
func (v *Value) removeMemorySites(c *Context) {
	p := v.Sites
	for p != nil {
		next := p.Next
		if p.Kind == SiteMemory || p.Kind == SiteFrame {
			v.removeSite(c, p)
		}
		p = next
	}
}

// clearSites releases every site of v; called once its read queue is
// exhausted.
func (v *Value) clearSites(c *Context) {
	for p := v.Sites; p != nil; {
		next := p.Next
		p.release(c)
		p = next
	}
	v.Sites = nil
}

// cheapestSite returns the lowest-CopyCost site of v relative to target,
// along with that cost, or nil if v has no sites at all (a live-range
// bug the caller should treat as an invariant violation).
func (v *Value) cheapestSite(target *Site) (*Site, int) {
	var best *Site
	bestCost := 1 << 30
	for p := v.Sites; p != nil; p = p.Next {
		cost := p.CopyCost(target)
		if cost < bestCost {
			bestCost = cost
			best = p
		}
	}
	return best, bestCost
}

// appendRead pushes r onto v's read queue, maintaining the FIFO order
// that the compile pass consumes via nextRead.
func (v *Value) appendRead(r *Read) {
	if v.lastRead == nil {
		v.Reads = r
	} else {
		v.lastRead.next = r
	}
	v.lastRead = r
}

// nextRead advances past the head of v's read queue once the event that
// owned it has been compiled. If the queue empties, every site of v is
// released: nothing will read this value again.
func (c *Context) nextRead(v *Value) {
	assertInvariant(c, v.Reads != nil, "nextRead on a value with no pending reads")
	v.Reads = v.Reads.next
	if v.Reads == nil {
		v.clearSites(c)
	}
}
