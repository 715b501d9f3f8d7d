// trace.go - post-compile diagnostic dump
//
// Compile discards its own bookkeeping as it goes (finishEvent releases
// sites, pushNow marks entries pushed) so there is nothing left to
// inspect after the fact except what DumpTrace captures on the way
// past. It walks the already-compiled logical instructions and renders
// one record per event, encoded with segmentio/encoding/json the way
// the rest of this backend prefers a pack library over encoding/json
// for anything that runs on a hot path.
package jit

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
)

// EventTrace is one event's worth of trace data: its append-order
// sequence number, its concrete kind, and the machine-code promises it
// left behind for later resolution (labels, trace points).
type EventTrace struct {
	Sequence int    `json:"seq"`
	Kind     string `json:"kind"`
	Promises int    `json:"promises"`
}

// InstructionTrace is one logical instruction's worth of trace data.
type InstructionTrace struct {
	LogicalIp     int          `json:"logical_ip"`
	MachineOffset int          `json:"machine_offset"`
	Events        []EventTrace `json:"events"`
}

// eventKind strips the package qualifier off a concrete event's type
// name, so a trace reads "CallEvent" rather than "*jit.CallEvent".
func eventKind(e Event) string {
	name := fmt.Sprintf("%T", e)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}

// DumpTrace walks every logical instruction's event chain and renders
// it as a trace record, in program order. Safe to call at any point
// after StartLogicalIp has produced at least one instruction; machine
// offsets read as zero for instructions the compile pass hasn't
// reached yet.
func DumpTrace(c *Context) []InstructionTrace {
	out := make([]InstructionTrace, 0, len(c.logicalCode))
	for _, li := range c.logicalCode {
		rec := InstructionTrace{LogicalIp: li.LogicalIp, MachineOffset: li.MachineOffset}
		for e := li.FirstEvent; e != nil; e = e.header().Next {
			rec.Events = append(rec.Events, EventTrace{
				Sequence: e.header().Sequence,
				Kind:     eventKind(e),
				Promises: len(e.header().Promises),
			})
		}
		out = append(out, rec)
	}
	return out
}

// MarshalTrace renders DumpTrace's output as JSON, for a front-end that
// wants to log or persist a compile trace rather than inspect it
// in-process.
func MarshalTrace(c *Context) ([]byte, error) {
	return json.Marshal(DumpTrace(c))
}
