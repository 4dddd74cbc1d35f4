// Package heap implements a free-list heap allocator over a page-grained
// growable arena.
//
// # Overview
//
// The allocator provides malloc/free-equivalent semantics on top of two
// external collaborators: a physical page source, which supplies fixed-size
// (4 KiB) frames on demand, and a virtual mapper, which places those frames at
// the arena's growth frontier. Block bookkeeping lives inside the arena bytes
// themselves: every region, free or in use, is preceded by a 16-byte header
// recording its payload size, a free flag, and offset links to the physically
// previous and next block.
//
// The prev/next links mirror physical adjacency, not a size-ordered free
// list. That adjacency is the invariant that makes splitting and coalescing
// correct: at every moment the blocks exactly tile the arena with no gaps and
// no overlaps.
//
// # Usage Example
//
//	src := paging.NewSlabSource(256)
//	mapper := paging.NewRecordingMapper()
//	va, release, err := paging.ReserveRange(256)
//	if err != nil {
//	    return err
//	}
//	defer release()
//
//	h, err := heap.New(src, mapper, va, 1<<20)
//	if err != nil {
//	    return err
//	}
//
//	ref, buf, err := h.Allocate(256, 8)
//	if err != nil {
//	    return err
//	}
//
//	// Write into buf...
//
//	// Later, free the block
//	err = h.Deallocate(ref)
//
// # Allocation Policy
//
// Allocation is first-fit: the physical chain is scanned from the arena base
// and the first free block large enough wins. A matched block is split when
// the remainder can hold a header plus a minimum viable payload (16 bytes);
// smaller remainders are absorbed into the allocation as an exact fit.
//
// Every free coalesces with both physically adjacent neighbors, so no two
// adjacent free blocks ever coexist. First-fit trades packing efficiency for
// simplicity; aggressive coalescing keeps the resulting fragmentation in
// check.
//
// # Arena Growth
//
// When no free block fits, the allocator requests one frame from the page
// source, maps it at the growth frontier, wraps it in a fresh free block, and
// retries the search once. Growth is append-only: the frontier only moves
// forward and mapped pages are never returned, which suits a kernel heap with
// a long-lived, roughly monotonic working set. A failed growth surfaces as
// ErrNoSpace to the caller; it is never fatal to the allocator itself.
//
// # Alignment
//
// Requested sizes are rounded up to a multiple of max(align, 8), so blocks
// carved from a split also begin at aligned addresses. Alignments above 8
// bytes are honored by carving a leading free block when the candidate's
// payload would start misaligned.
//
// # Thread Safety
//
// Heap instances are not thread-safe. Callers must serialize access
// externally; the package-level global allocator does so with a mutex around
// the whole allocate/deallocate critical section. Partial locking is not
// enough, because the chain-walk-then-mutate pattern in split and merge is
// not atomic.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/internal/paging: page source and mapper
//   - github.com/joshuapare/heapkit/internal/layout: block header layout
package heap
