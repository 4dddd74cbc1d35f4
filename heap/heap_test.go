package heap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/layout"
)

func TestAllocateReturnsUsableBuffer(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)

	ref, buf, err := h.Allocate(256, 8)
	require.NoError(t, err)
	require.NotEqual(t, NilRef, ref)
	require.GreaterOrEqual(t, len(buf), 256)

	// The buffer is real arena memory: writes must round-trip.
	for i := range buf {
		buf[i] = byte(i)
	}
	require.Equal(t, byte(10), buf[10])

	requireIntact(t, h)
}

func TestAllocateZeroSizeIsNoOp(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)
	before := h.Stats()

	ref, buf, err := h.Allocate(0, 8)
	require.NoError(t, err)
	require.Equal(t, NilRef, ref)
	require.Nil(t, buf)
	require.Equal(t, before, h.Stats())
}

func TestAllocateRejectsBadArguments(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)

	_, _, err := h.Allocate(-1, 8)
	require.ErrorIs(t, err, ErrBadSize)

	_, _, err = h.Allocate(64, 24)
	require.ErrorIs(t, err, ErrBadAlign)
}

// Sizes near MaxInt overflow the alignment rounding into a tiny positive
// value; without the up-front bound such a request would be served by a
// 16-byte block instead of failing.
func TestAllocateRejectsOversizedRequest(t *testing.T) {
	h := newTestHeap(t, 4096, 0)

	for _, size := range []int{
		math.MaxInt,
		math.MaxInt - 7,
		math.MaxUint32,
	} {
		ref, buf, err := h.Allocate(size, 8)
		require.ErrorIs(t, err, ErrBadSize, "size %d", size)
		require.Equal(t, NilRef, ref)
		require.Nil(t, buf)
	}

	// Rejected arguments leave the counters untouched.
	st := h.Stats()
	require.Equal(t, uint64(0), st.TotalAllocations)
	require.Equal(t, uint64(0), st.FailedAllocations)
	requireIntact(t, h)
}

func TestDeallocateNilRefIsNoOp(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)
	require.NoError(t, h.Deallocate(NilRef))
	require.Equal(t, uint64(0), h.Stats().TotalDeallocations)
}

// Scenario: 1 MiB arena, 100 blocks of 64 bytes, free them all.
func TestHundredSmallBlocksRoundTrip(t *testing.T) {
	h := newTestHeap(t, 1_048_576, 0)

	refs := make([]Ref, 0, 100)
	for i := 0; i < 100; i++ {
		ref, _ := mustAllocate(t, h, 64, 8)
		refs = append(refs, ref)
	}
	require.Equal(t, uint64(100), h.Stats().ActiveAllocations)

	for _, ref := range refs {
		require.NoError(t, h.Deallocate(ref))
	}
	st := h.Stats()
	require.Equal(t, uint64(0), st.ActiveAllocations)
	require.Equal(t, uint64(100), st.TotalAllocations)
	require.Equal(t, uint64(100), st.TotalDeallocations)
	requireIntact(t, h)

	// Full coalescing restores the single giant free block.
	require.Equal(t, uint64(h.ArenaSize()-layout.BlockHeaderSize), st.LargestFreeBlock)
}

// Scenario: freed space is reused without growing the arena.
func TestFreedSpaceReusedWithoutGrowth(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)

	big, _ := mustAllocate(t, h, 4000, 8)
	mustAllocate(t, h, 100, 8)

	require.NoError(t, h.Deallocate(big))
	frontierBefore := h.Frontier()

	mustAllocate(t, h, 3900, 8)
	require.Equal(t, frontierBefore, h.Frontier())
	require.Equal(t, uint64(0), h.Stats().GrowCalls)
	requireIntact(t, h)
}

// Scenario: two adjacent freed blocks coalesce into one usable region.
func TestAdjacentFreesCoalesceForLargerAllocation(t *testing.T) {
	// Single page, no headroom: success must come from coalescing alone.
	h := newTestHeap(t, 4096, 0)

	a, _ := mustAllocate(t, h, 200, 8)
	b, _ := mustAllocate(t, h, 300, 8)

	// Consume the rest of the page so nothing else can satisfy the request.
	rest := h.ArenaSize() - layout.BlockHeaderSize -
		(200 + layout.BlockHeaderSize) - (304 + layout.BlockHeaderSize) - layout.BlockHeaderSize
	mustAllocate(t, h, rest, 8)

	require.NoError(t, h.Deallocate(a))
	require.NoError(t, h.Deallocate(b))

	ref, buf := mustAllocate(t, h, 480, 8)
	require.NotEqual(t, NilRef, ref)
	require.GreaterOrEqual(t, len(buf), 480)
	require.Equal(t, uint64(0), h.Stats().GrowCalls)
	requireIntact(t, h)
}

// Scenario: a deliberately tiny arena is exhausted; failures are non-fatal
// and leave the counters reflecting only the successful calls.
func TestTinyArenaExhaustion(t *testing.T) {
	h := newTestHeap(t, 4096, 0)

	succeeded := 0
	for {
		_, _, err := h.Allocate(1000, 8)
		if err != nil {
			require.ErrorIs(t, err, ErrNoSpace)
			break
		}
		succeeded++
		require.Less(t, succeeded, 100, "arena should exhaust")
	}

	st := h.Stats()
	require.Equal(t, uint64(succeeded), st.ActiveAllocations)
	require.Equal(t, uint64(1), st.FailedAllocations)
	requireIntact(t, h)

	// The allocator survives exhaustion: the leftover sliver still serves
	// a request it can hold.
	mustAllocate(t, h, 16, 8)
	requireIntact(t, h)
}

func TestDoubleFreePermissiveByDefault(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)

	ref, _ := mustAllocate(t, h, 128, 8)
	require.NoError(t, h.Deallocate(ref))

	// Second free of the same reference is tolerated and counted.
	require.NoError(t, h.Deallocate(ref))
	st := h.Stats()
	require.Equal(t, uint64(1), st.TotalDeallocations)
	require.Equal(t, uint64(1), st.IgnoredFrees)
	requireIntact(t, h)
}

func TestDoubleFreeStrictMode(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0, WithStrictFree())

	ref, _ := mustAllocate(t, h, 128, 8)
	require.NoError(t, h.Deallocate(ref))
	require.ErrorIs(t, h.Deallocate(ref), ErrDoubleFree)

	// A reference pointing nowhere near a payload is ErrBadRef.
	require.ErrorIs(t, h.Deallocate(Ref(h.ArenaSize()+1024)), ErrBadRef)
}

func TestStatsConsistency(t *testing.T) {
	h := newTestHeap(t, 1<<20, 0)

	refs := make([]Ref, 0, 32)
	for i := 0; i < 32; i++ {
		ref, _ := mustAllocate(t, h, 64+i*32, 8)
		refs = append(refs, ref)
	}
	for _, ref := range refs[:16] {
		require.NoError(t, h.Deallocate(ref))
	}

	st := h.Stats()
	require.Equal(t, st.TotalAllocations-st.TotalDeallocations, st.ActiveAllocations)
	require.Equal(t, st.BytesAllocated-st.BytesFreed, st.CurrentUsage)
}
