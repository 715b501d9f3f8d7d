// stack.go - the operand stack and its lazy materialization
//
// The front-end's operand stack is a singly linked list, youngest entry
// first, mirrored in Value form. Pushes are lazy: pushing a value only
// records a StackEntry and a not-yet-active PushEvent; the concrete
// machine Push is deferred until something (a Call, a StackSync at a
// branch or junction) actually needs the value resident on the native
// stack. State snapshots let pushState/popState give both arms of a
// conditional the same stack shape to reconcile against.

package jit

import "go.uber.org/zap"

// StackEntry is one operand-stack slot.
type StackEntry struct {
	Value   *Value
	Size    int
	Index   int // distance in words from the frame base
	Padding int
	Next    *StackEntry

	PushEvent *PushEvent
	PushSite  *Site
	Pushed    bool
}

// PushEvent defers the machine Push for one operand-stack entry until
// something downstream actually needs it resident (a Call, a branch's
// StackSync). Active marks that a later event has claimed it; Emitted
// guards the actual byte emission so it fires exactly once regardless
// of whether that claim happens during the event's own Compile (the
// value never left the stack before this logical instruction ended)
// or from a later event's Compile reaching back via pushNow (spec
// §4.3).
type PushEvent struct {
	EventHeader

	Entry  *StackEntry
	Active bool

	emitted bool
}

func (c *Context) newPushEvent(entry *StackEntry) *PushEvent {
	return &PushEvent{EventHeader: c.newEvent(), Entry: entry}
}

func (e *PushEvent) emit(c *Context) {
	if e.emitted {
		return
	}
	e.emitted = true
	c.emitPush(e.Entry)
	e.Entry.Pushed = true
	e.Entry.PushSite = NewMemorySite(c.assembler.Stack(), e.Entry.Index*WordSize, -1, 0)
	e.Entry.Value.attachSite(c, e.Entry.PushSite, e.Entry.Size)
}

func (e *PushEvent) Compile(c *Context) {
	if e.Active {
		e.emit(c)
	}
}

// StackSyncEvent forces every pending push up to the stack shape
// recorded at its construction onto the native stack, used ahead of a
// branch or call so later code can rely on a known stack depth (spec
// §4.3/§4.5).
type StackSyncEvent struct {
	EventHeader
}

func (e *StackSyncEvent) Compile(c *Context) {
	c.pushNow(e.Stack)
}

// State is a saved snapshot of the operand stack, used to give both
// arms of a conditional region the same starting shape.
type State struct {
	Stack *StackEntry
	Next  *State
}

// pushState saves the current stack so a conditional region's arms can
// each run against a fresh copy and be reconciled afterward.
func (c *Context) pushState() {
	c.state = &State{Stack: c.state.Stack, Next: c.state}
}

// popState restores the previously saved stack, discarding whatever the
// just-finished region did to the snapshot on top.
func (c *Context) popState() {
	assertInvariant(c, c.state.Next != nil, "popState with no matching pushState")
	c.state = c.state.Next
}

// saveStack forces every currently-resident stack value onto the native
// stack (a StackSync), recording that the frame has a known shape other
// branches must agree with at a junction.
func (c *Context) saveStack() {
	c.stackSync()
}

// stackSync links a StackSyncEvent at the current program point and
// marks the current logical instruction as having synced its stack, so
// updateJunctions can confirm every junction was reached through one.
func (c *Context) stackSync() {
	e := &StackSyncEvent{EventHeader: c.newEvent()}
	c.link(e)
	if c.logicalIp >= 0 {
		c.logicalCode[c.logicalIp].stackSaved = true
	}
	c.logs.Stack.Debug("sync", zap.Int("depth_words", c.stackDepthWords()))
}

// resetStack marks the next event as following a stack reset (used
// after a call whose NoReturn flag elides cleanup of the native stack
// pointer, so future pushes recompute indices from scratch).
func (c *Context) resetStack() {
	c.stackReset = true
}

// pushValue pushes size bytes worth of v onto the operand stack,
// extending the current State's stack list with one more entry and
// emitting (but not yet activating) its PushEvent.
func (c *Context) pushValue(size int, v *Value) *StackEntry {
	top := c.state.Stack
	index := 0
	if top != nil {
		index = top.Index + wordsFor(top.Size)
	}
	e := &StackEntry{Value: v, Size: size, Index: index, Next: top}
	c.state.Stack = e

	pe := c.newPushEvent(e)
	e.PushEvent = pe
	c.link(pe)
	return e
}

func wordsFor(size int) int {
	return (size + WordSize - 1) / WordSize
}

// popValue removes the top stack entry and returns the value, leaving
// its sites untouched (the caller still owns whatever read it intends
// to issue against the value).
func (c *Context) popValue(size int) *Value {
	e := c.state.Stack
	assertInvariant(c, e != nil, "pop of an empty operand stack")
	assertInvariant(c, e.Size == size, "pop size mismatch")
	c.state.Stack = e.Next
	return e.Value
}

// peekValue returns the value `index` stack slots below the top without
// removing anything.
func (c *Context) peekValue(size, index int) *Value {
	e := c.state.Stack
	for i := 0; i < index && e != nil; i++ {
		e = e.Next
	}
	assertInvariant(c, e != nil, "peek past the bottom of the operand stack")
	return e.Value
}

func (c *Context) topEntry() *StackEntry { return c.state.Stack }

// stackDepthWords is the footprint, in words, of every entry currently
// on the operand stack.
func (c *Context) stackDepthWords() int {
	n := 0
	for e := c.state.Stack; e != nil; e = e.Next {
		n += wordsFor(e.Size)
	}
	return n
}

// pushNow activates every not-yet-pushed entry and emits their deferred
// Push instructions in stack order (oldest first, since the machine
// stack grows the same direction the operand list does), recording a
// base-relative memory site for each so other sites of the value can be
// reconstructed once the native stack shifts under a call.
func (c *Context) pushNow(from *StackEntry) {
	var order []*StackEntry
	for e := from; e != nil && !e.Pushed; e = e.Next {
		order = append(order, e)
	}
	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		e.PushEvent.Active = true
		e.PushEvent.emit(c)
	}
}

func (c *Context) emitPush(e *StackEntry) {
	best, _ := e.Value.cheapestSite(nil)
	if best == nil {
		abort(c, "pushNow: value has no site to push from")
	}
	c.logs.Stack.Debug("pushed", zap.Int("value", e.Value.ID), zap.Int("index", e.Index))
	c.assembler.Push(e.Size, best.AsAssemblerOperand(c))
}

// popNow unwinds count entries from the native stack. If ignore is
// true, or an entry's value has no further readers, the entries are
// coalesced into a single stack-pointer adjustment; otherwise each
// live entry gets a target site and an explicit Pop.
func (c *Context) popNow(count int, ignore bool) {
	words := 0
	e := c.state.Stack
	for i := 0; i < count && e != nil; i++ {
		if !ignore && e.Value.live() {
			r := NewTargetRead(e.Size, KindRegister, AllRegisters(c.assembler.RegisterCount()))
			site := r.allocateSite(c, e.Size)
			e.Value.attachSite(c, site, e.Size)
			c.assembler.Pop(e.Size, site.AsAssemblerOperand(c))
		} else {
			words += wordsFor(e.Size)
		}
		e = e.Next
	}
	if words > 0 {
		c.adjustStack(words)
	}
}

func (c *Context) adjustStack(words int) {
	c.assembler.Binary(OpAdd, WordSize,
		AssemblerOperand{Kind: KindConstant, Promise: &ResolvedPromise{K: int64(words * WordSize)}},
		AssemblerOperand{Kind: KindRegister, Reg: c.assembler.Stack(), RegHigh: -1})
}
