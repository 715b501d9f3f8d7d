// errors.go - invariant violations and the abort path
//
// The backend has no recoverable error path (see spec §7). A violated
// invariant is a programming error in either the front-end or the core
// itself, and is reported through abort rather than an error return.
// abort logs a structured record of what failed and then panics; the
// host process is expected to treat that panic as fatal, matching the
// source compiler's abort(system) contract.

package jit

import "go.uber.org/zap"

// AbortError is the value recovered from a panic raised by abort. Tests
// that probe invariant violations recover and assert on this type
// rather than on a generic error string.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string { return "jit: " + e.Reason }

// abort terminates the current compilation. c may be nil during very
// early setup, before a Context exists to log through.
func abort(c *Context, reason string) {
	if c != nil && c.log != nil {
		c.log.Error("aborting compilation", zap.String("reason", reason))
	}
	panic(&AbortError{Reason: reason})
}

// assertInvariant aborts with reason if cond is false. It is the Go
// analogue of the source compiler's assert(c, v) macro, kept live (not
// compiled out) since this core has no NDEBUG build mode.
func assertInvariant(c *Context, cond bool, reason string) {
	if !cond {
		abort(c, reason)
	}
}
