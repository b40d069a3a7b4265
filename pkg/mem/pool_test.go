package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocRoundsUpTo8(t *testing.T) {
	p := New()
	blk := p.Alloc(3)
	require.Len(t, blk, 8)
}

func TestAllocZeroReturnsNil(t *testing.T) {
	p := New()
	require.Nil(t, p.Alloc(0))
}

func TestFreeReusesBlock(t *testing.T) {
	p := New()
	first := p.Alloc(16)
	p.Free(first, 16)
	second := p.Alloc(16)
	require.Equal(t, cap(first), cap(second))
	require.Equal(t, uint64(2), p.Stats().Requests)
}

func TestAllocBeyondChunkBypassesPool(t *testing.T) {
	p := New()
	blk := p.Alloc(ChunkSize + 1)
	require.Len(t, blk, roundUp8(ChunkSize+1))
	stats := p.Stats()
	require.Equal(t, uint64(roundUp8(ChunkSize+1)), stats.TotalBypass)
	require.Equal(t, uint64(roundUp8(ChunkSize+1)), stats.TotalManualAlloc)
}

func TestAllocNeverDoubleHandsOutLiveBytes(t *testing.T) {
	p := New()
	a := p.Alloc(64)
	b := p.Alloc(64)
	// non-overlapping blocks until a is freed
	a[0] = 0xFF
	require.Equal(t, byte(0), b[0])
}
