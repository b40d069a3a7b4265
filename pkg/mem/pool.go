// Package mem implements a pooled byte-block allocator. Its one user in this
// engine is the bytecode decoder, which takes its string, identifier and
// float scratch buffers from it; values and environment frames are ordinary
// Go allocations.
//
// The design mirrors a size-bucketed bump/freelist allocator: fixed-size
// chunks ("pools") are carved up sequentially; freed blocks go back onto a
// per-size freelist instead of to the Go garbage collector, so repeated
// allocations of the same size reuse blocks. Requests larger than
// a chunk bypass the pool entirely and fall back to the Go runtime
// allocator.
//
// None of this defeats Go's garbage collector — blocks are ordinary
// []byte slices, so a leaked reference is still memory-safe, just wasted
// pool capacity until the process exits. The pool exists purely to amortize
// allocation cost the way the reference implementation's bump allocator
// does, not to manage unsafe memory.
package mem

import "sync"

// ChunkSize is the size of one pool chunk. Matches the reference
// implementation's 4 KiB pools.
const ChunkSize = 4096

// Stats holds the debug-only accounting counters. Always maintained; cheap
// enough relative to the lock already held on every alloc/free that gating
// them behind a build tag isn't worth the complexity the reference
// implementation pays for with a preprocessor flag.
type Stats struct {
	TotalAllocated   uint64 // bytes allocated for pool chunks (ChunkSize per chunk)
	TotalBypass      uint64 // bytes served outside the pool (> ChunkSize)
	Requests         uint64 // number of Alloc calls
	TotalManualAlloc uint64 // bytes served by a bypass allocation specifically
}

type chunk struct {
	buf  []byte
	head int
}

// Pool is a mutex-protected, size-bucketed block allocator.
//
// A Pool is safe for concurrent use: the spec's concurrency model keeps a
// single VM single-threaded, but the allocator itself is process-wide and
// shared so that helper goroutines spawned by native modules can allocate
// through the same pool without racing the interpreter loop.
type Pool struct {
	mu        sync.Mutex
	chunks    []*chunk
	freelists map[int][][]byte
	stats     Stats
}

// New constructs an independent pool. Tests that want isolation from the
// process-wide Default pool should construct their own with New.
func New() *Pool {
	return &Pool{freelists: make(map[int][][]byte)}
}

// roundUp8 rounds sz up to the next multiple of 8, matching the reference
// allocator's alignment.
func roundUp8(sz int) int {
	return (sz + 7) &^ 7
}

func (p *Pool) allocChunk() *chunk {
	c := &chunk{buf: make([]byte, ChunkSize)}
	p.chunks = append(p.chunks, c)
	p.stats.TotalAllocated += ChunkSize
	return c
}

// Alloc returns a zeroed block of at least sz bytes. sz == 0 returns nil.
func (p *Pool) Alloc(sz int) []byte {
	if sz == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Requests++
	sz = roundUp8(sz)

	if sz > ChunkSize {
		p.stats.TotalBypass += uint64(sz)
		p.stats.TotalManualAlloc += uint64(sz)
		return make([]byte, sz)
	}

	if bucket := p.freelists[sz]; len(bucket) > 0 {
		blk := bucket[len(bucket)-1]
		p.freelists[sz] = bucket[:len(bucket)-1]
		clearBytes(blk)
		return blk
	}

	for _, c := range p.chunks {
		if ChunkSize-c.head >= sz {
			blk := c.buf[c.head : c.head+sz : c.head+sz]
			c.head += sz
			return blk
		}
	}

	c := p.allocChunk()
	blk := c.buf[c.head : c.head+sz : c.head+sz]
	c.head += sz
	return blk
}

// Free returns blk to its size-class freelist, or releases it directly if
// it was served outside the pool. The caller must pass the same size it
// requested from Alloc.
func (p *Pool) Free(blk []byte, sz int) {
	if blk == nil || sz == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	sz = roundUp8(sz)
	if sz > ChunkSize {
		return // bypass allocations are left to the Go GC
	}
	p.freelists[sz] = append(p.freelists[sz], blk)
}

// Stats returns a snapshot of the debug accounting counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Default is the process-wide pool used when no explicit Pool is threaded
// through — the same role as the reference implementation's
// MemoryManager::instance() singleton.
var Default = New()
