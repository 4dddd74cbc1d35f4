package heap

import "github.com/joshuapare/heapkit/internal/layout"

// Stats is a snapshot of the heap's running counters. Pure data, no
// ownership semantics: callers get a copy and mutate nothing.
//
// For any single-threaded sequence of valid operations,
// ActiveAllocations == TotalAllocations - TotalDeallocations and
// CurrentUsage == BytesAllocated - BytesFreed.
type Stats struct {
	TotalAllocations   uint64 // successful Allocate calls
	TotalDeallocations uint64 // successful Deallocate calls
	ActiveAllocations  uint64 // blocks currently in use
	BytesAllocated     uint64 // payload bytes ever granted (post-alignment)
	BytesFreed         uint64 // payload bytes ever returned
	CurrentUsage       uint64 // payload bytes currently in use
	Coalesces          uint64 // merges of adjacent free blocks
	Splits             uint64 // blocks carved during allocation
	GrowCalls          uint64 // arena growth attempts that succeeded
	GrowBytes          uint64 // bytes appended via growth
	FailedAllocations  uint64 // Allocate calls that returned ErrNoSpace
	IgnoredFrees       uint64 // invalid frees tolerated in permissive mode
	LargestFreeBlock   uint64 // payload size of the largest current free block
}

// Stats returns an immutable snapshot of the counters. Pure read, no side
// effects.
func (h *Heap) Stats() Stats {
	return h.stats
}

// FragmentationRatio reports what fraction of free memory is not reachable as
// one contiguous block: (totalFree - largestFree) / totalFree, clamped to 0
// when there is no free memory. A high ratio means a large future allocation
// may fail even though aggregate free space would suffice.
func (h *Heap) FragmentationRatio() float64 {
	totalFree, largestFree := h.freeSpan()
	if totalFree == 0 {
		return 0
	}
	return float64(totalFree-largestFree) / float64(totalFree)
}

// freeSpan walks the chain and returns total free payload bytes and the
// largest single free payload.
func (h *Heap) freeSpan() (total, largest int) {
	for off := h.head; off != layout.NilOffset; {
		b := h.blockAt(off)
		if b.free() {
			total += b.size()
			if b.size() > largest {
				largest = b.size()
			}
		}
		off = b.next()
	}
	return total, largest
}

// updateLargestFree refreshes the LargestFreeBlock counter after a mutation.
// O(number of blocks), same order as the first-fit search it follows.
func (h *Heap) updateLargestFree() {
	_, largest := h.freeSpan()
	h.stats.LargestFreeBlock = uint64(largest)
}
