package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestHeap builds a slab-backed heap over totalSize bytes with the given
// growth headroom and registers cleanup of its virtual range.
func newTestHeap(t testing.TB, totalSize, headroomPages int, opts ...Option) *Heap {
	t.Helper()

	h, release, err := NewSlab(totalSize, headroomPages, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, release())
	})
	return h
}

// mustAllocate allocates or fails the test.
func mustAllocate(t testing.TB, h *Heap, size, align int) (Ref, []byte) {
	t.Helper()

	ref, buf, err := h.Allocate(size, align)
	require.NoError(t, err)
	require.NotEqual(t, NilRef, ref)
	return ref, buf
}

// requireIntact asserts the full invariant pass succeeds.
func requireIntact(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.CheckInvariants())
	require.True(t, h.VerifyIntegrity())
}
