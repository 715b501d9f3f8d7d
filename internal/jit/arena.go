// arena.go - per-compilation bump allocator
//
// Values, Sites, Reads and Events form reference cycles (a site points
// at a register whose slot points back at a value whose site list
// contains the site). The source compiler breaks that cycle by
// allocating everything out of a Zone that is freed in one shot at the
// end of compilation. In Go the garbage collector already reclaims
// cycles, and Values, Sites, Reads and Events are ordinary Go
// allocations: none of them is drawn from the Arena. Each Context owns
// a fresh Arena, which is not reused across compilations and is dropped
// by Context.Dispose.
package jit

// Arena hands out byte buffers in growable chunks. It has no Free:
// Dispose simply drops the reference so the GC can reclaim the chunks.
type Arena struct {
	chunks    [][]byte
	chunkSize int
}

const defaultArenaChunk = 64 * 1024

func NewArena() *Arena {
	return &Arena{chunkSize: defaultArenaChunk}
}

// Bytes returns a zeroed buffer of n bytes drawn from the arena's
// current chunk, growing it first if needed.
func (a *Arena) Bytes(n int) []byte {
	if len(a.chunks) == 0 || cap(a.chunks[len(a.chunks)-1])-len(a.chunks[len(a.chunks)-1]) < n {
		size := a.chunkSize
		if n > size {
			size = n
		}
		a.chunks = append(a.chunks, make([]byte, 0, size))
	}
	last := &a.chunks[len(a.chunks)-1]
	start := len(*last)
	*last = (*last)[:start+n]
	return (*last)[start : start+n]
}

// Dispose releases the arena's chunks. Safe to call multiple times.
func (a *Arena) Dispose() {
	a.chunks = nil
}
