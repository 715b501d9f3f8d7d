// event.go - scheduled backend actions
//
// An Event owns the Reads it constructed during the scan pass and emits
// machine instructions for them during the compile pass. Events are
// threaded per-logical-instruction (LogicalInstruction.FirstEvent /
// LastEvent) via EventHeader.Next, in append order; there is no global
// chain across instructions. The compile pass walks the logical
// instructions in IP order and each one's chain in turn.

package jit

import (
	"fmt"

	"go.uber.org/zap"
)

// Event is implemented by every event kind. Compile emits zero or more
// assembler operations.
type Event interface {
	header() *EventHeader
	Compile(c *Context)
}

// EventHeader is embedded in every concrete event and carries the
// fields the compile pass and read-resolution machinery need
// regardless of event kind.
type EventHeader struct {
	Next       Event
	Stack      *StackEntry
	Reads      *Read // head of this event's own Read list (eventNext chain)
	lastRead   *Read
	Sequence   int
	StackReset bool
	Promises   []*CodePromise
}

func (h *EventHeader) header() *EventHeader { return h }

func (h *EventHeader) addRead(r *Read) {
	if h.lastRead == nil {
		h.Reads = r
	} else {
		h.lastRead.eventNext = r
	}
	h.lastRead = r
}

// newEvent appends a fresh header to the current logical instruction's
// event chain and records the append-order sequence number, mirroring
// the source compiler's Event constructor.
func (c *Context) newEvent() EventHeader {
	assertInvariant(c, c.logicalIp >= 0, "event constructed outside a logical instruction")
	h := EventHeader{
		Stack:      c.state.Stack,
		Sequence:   c.nextSequence,
		StackReset: c.stackReset,
	}
	c.nextSequence++
	c.stackReset = false
	return h
}

func (c *Context) link(e Event) {
	c.logs.Append.Debug("append", zap.String("event", fmt.Sprintf("%T", e)))
	li := c.logicalCode[c.logicalIp]
	if li.LastEvent != nil {
		li.LastEvent.header().Next = e
	} else {
		li.FirstEvent = e
	}
	li.LastEvent = e
}

// appendReadFor records r against both v's pending-use queue and e's
// own per-event read list, and resolves r.Event so nextRead bookkeeping
// in the compile pass can find its way back.
func (c *Context) appendReadFor(e Event, v *Value, r *Read) {
	r.Event = e
	r.owner = v
	v.appendRead(r)
	e.header().addRead(r)
}

// resolveReads is the compile-pass step common to every event: for each
// Read belonging to e, pick or allocate a site satisfying its
// constraint, move into it if the value wasn't already there, and
// freeze it for the duration of the event.
func (c *Context) resolveReads(e Event) {
	h := e.header()
	for r := h.Reads; r != nil; r = r.eventNext {
		v := readsValue(r)
		if v == nil {
			continue
		}
		c.resolveOneRead(v, r)
	}
}

// readsValue recovers which Value a Read belongs to. Reads are stored
// in two intrusive lists (the value's queue and the event's list); we
// only need the event's list to drive compilation, but each Read must
// still know its value to resolve a site. Read.owner is stamped in by
// appendReadFor above.
func readsValue(r *Read) *Value { return r.owner }

func (c *Context) resolveOneRead(v *Value, r *Read) {
	existing := r.pickSite(c, v)
	var site *Site
	if existing != nil {
		site = existing
	} else {
		site = r.allocateSite(c, r.Size)
		best, cost := v.cheapestSite(site)
		v.attachSite(c, site, r.Size)
		if best != nil && cost > 0 {
			c.emitMove(r.Size, best, site)
		}
	}
	site.freeze(c)
	v.Source = site
	r.site = site
	c.resolvedThisEvent = append(c.resolvedThisEvent, resolvedRead{v: v, s: site})
}

// operand returns the assembler-facing operand a resolved read settled
// on. Valid only after resolveReads(e) has run for the event owning r.
func (r *Read) operand(c *Context) AssemblerOperand {
	if r.site == nil {
		abort(c, "read has no resolved site")
	}
	return r.site.AsAssemblerOperand(c)
}

type resolvedRead struct {
	v *Value
	s *Site
}

// finishEvent thaws every site resolveReads froze and advances each
// read value's queue, releasing sites whose last reader just compiled.
func (c *Context) finishEvent(e Event) {
	for _, rr := range c.resolvedThisEvent {
		rr.s.thaw(c)
	}
	c.resolvedThisEvent = c.resolvedThisEvent[:0]

	for r := e.header().Reads; r != nil; r = r.eventNext {
		v := readsValue(r)
		if v != nil {
			c.nextRead(v)
		}
	}
}
