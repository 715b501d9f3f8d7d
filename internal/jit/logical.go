// logical.go - per-source-instruction bookkeeping and control-flow joins
//
// The front-end addresses code by logical instruction pointer (one per
// source-level opcode, stable across however many machine instructions
// it eventually lowers to). LogicalInstruction threads that IP's events
// together; Junction remembers which logical IPs more than one
// predecessor can reach, so the compile pass can make every predecessor
// agree on a stack shape before falling through into it.

package jit

// LogicalInstruction is one source-IP's worth of events.
type LogicalInstruction struct {
	LogicalIp int

	FirstEvent Event
	LastEvent  Event

	// Predecessor is the logical IP immediately preceding this one in
	// program order (not control flow); used to walk backward when a
	// junction needs to touch every block that falls into it.
	Predecessor int

	// Stack is the operand-stack shape in effect when this instruction
	// was started, snapshotted so a
	// later junction pass can compare shapes across predecessors.
	Stack *StackEntry

	MachineOffset int
	stackSaved    bool
}

// Junction marks a logical IP reachable from more than one predecessor.
// The list is built as the front-end calls visitLogicalIp/startLogicalIp
// out of program order (e.g. a backward branch).
type Junction struct {
	LogicalIp int
	Next      *Junction
}

// addJunction records that logicalIp has another incoming edge, unless
// it is already known to be a junction.
func (c *Context) addJunction(logicalIp int) {
	for j := c.junctions; j != nil; j = j.Next {
		if j.LogicalIp == logicalIp {
			return
		}
	}
	c.junctions = &Junction{LogicalIp: logicalIp, Next: c.junctions}
}

func (c *Context) isJunction(logicalIp int) bool {
	for j := c.junctions; j != nil; j = j.Next {
		if j.LogicalIp == logicalIp {
			return true
		}
	}
	return false
}

// ensureLogicalInstruction grows logicalCode so index ip is addressable,
// creating placeholder entries for any IPs skipped over (a forward
// branch target the front-end hasn't visited yet).
func (c *Context) ensureLogicalInstruction(ip int) *LogicalInstruction {
	for len(c.logicalCode) <= ip {
		c.logicalCode = append(c.logicalCode, &LogicalInstruction{
			LogicalIp:   len(c.logicalCode),
			Predecessor: -1,
		})
	}
	return c.logicalCode[ip]
}

// updateJunctions runs once the scan pass finishes and checks that every
// logical IP with more than one incoming edge got a StackSyncEvent
// before control reached it; startLogicalIp is responsible for emitting
// that sync as each junction is visited (spec §4.5), so this is a
// consistency check rather than a repair pass — a junction that slipped
// through without one is a front-end bug, not something the backend can
// safely patch up after the fact.
func (c *Context) updateJunctions() {
	for j := c.junctions; j != nil; j = j.Next {
		li := c.logicalCode[j.LogicalIp]
		assertInvariant(c, li.stackSaved, "junction reached without a preceding stack sync")
	}
}
