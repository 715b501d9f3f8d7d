// promise.go - deferred integer values
//
// A Promise stands in for a machine address or offset that is not yet
// known when the IR referencing it is built. It becomes resolvable once
// the compile pass has laid out code and the caller has committed a
// machine-code buffer to the Context.

package jit

import "fmt"

// Promise is a lazily-resolved 64-bit integer. Resolution is idempotent:
// once Resolved reports true, Value must keep returning the same answer.
type Promise interface {
	Resolved() bool
	Value() int64
}

// ResolvedPromise wraps a value that is already known at construction time.
type ResolvedPromise struct {
	K int64
}

func (p *ResolvedPromise) Resolved() bool { return true }
func (p *ResolvedPromise) Value() int64   { return p.K }

// PoolPromise resolves to the address of a constant-pool slot once the
// caller has committed a machine-code buffer to the context.
type PoolPromise struct {
	c   *Context
	Key int
}

func NewPoolPromise(c *Context, key int) *PoolPromise {
	return &PoolPromise{c: c, Key: key}
}

func (p *PoolPromise) Resolved() bool {
	return p.c.machineCode != nil
}

func (p *PoolPromise) Value() int64 {
	if !p.Resolved() {
		abort(p.c, "pool promise read before machine code committed")
	}
	base := int64(addrOf(p.c.machineCode))
	return base + int64(pad(p.c.assembler.Length())) + int64(p.Key)*int64(WordSize)
}

// CodePromise resolves to an absolute address once the compile pass has
// filled in its Offset, which happens when the event it is attached to
// is compiled.
type CodePromise struct {
	c      *Context
	Offset int
}

func NewCodePromise(c *Context) *CodePromise {
	return &CodePromise{c: c, Offset: -1}
}

func (p *CodePromise) Resolved() bool {
	return p.c.machineCode != nil && p.Offset >= 0
}

func (p *CodePromise) Value() int64 {
	if !p.Resolved() {
		abort(p.c, "code promise read before its event was compiled")
	}
	return int64(addrOf(p.c.machineCode)) + int64(p.Offset)
}

// IpPromise resolves to the absolute address of a logical instruction's
// code (the committed buffer's address plus the instruction's recorded
// machine offset) once a machine-code buffer has been committed.
type IpPromise struct {
	c        *Context
	LogicalIp int
}

func NewIpPromise(c *Context, logicalIp int) *IpPromise {
	return &IpPromise{c: c, LogicalIp: logicalIp}
}

func (p *IpPromise) Resolved() bool {
	return p.c.machineCode != nil
}

func (p *IpPromise) Value() int64 {
	if !p.Resolved() {
		abort(p.c, "ip promise read before machine code committed")
	}
	li := p.c.logicalCode[p.LogicalIp]
	return int64(addrOf(p.c.machineCode)) + int64(li.MachineOffset)
}

func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptrOfSlice(b)
}

func (p *ResolvedPromise) String() string { return fmt.Sprintf("resolved(%d)", p.K) }
