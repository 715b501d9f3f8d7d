// mark_event.go - label targets
//
// MarkEvent itself does nothing; its value is in the CodePromise it
// carries in EventHeader.Promises, which the compile driver resolves
// to the assembler's current length once the event's (empty) Compile
// returns, giving every earlier forward-branch a concrete address to
// jump to (spec §4.5 step 4, generalized beyond Call's trace promise).
package jit

type MarkEvent struct {
	EventHeader
}

func (e *MarkEvent) Compile(c *Context) {}
