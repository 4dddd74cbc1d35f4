package heap

import (
	"github.com/joshuapare/heapkit/internal/layout"
)

// block is a handle to one block header inside the arena. It carries no state
// of its own; all reads and writes go straight to the arena bytes, so handles
// stay valid across splits and merges as long as the header offset does.
type block struct {
	mem []byte
	off int
}

// blockAt returns a handle to the header at the given arena offset.
func (h *Heap) blockAt(off int) block {
	return block{mem: h.mem, off: off}
}

func (b block) size() int {
	return int(layout.ReadU32(b.mem, b.off+layout.BlockSizeOffset))
}

func (b block) setSize(n int) {
	layout.PutU32(b.mem, b.off+layout.BlockSizeOffset, uint32(n))
}

func (b block) free() bool {
	return layout.ReadU32(b.mem, b.off+layout.BlockFlagsOffset)&layout.FlagFree != 0
}

func (b block) setFree(f bool) {
	flags := layout.ReadU32(b.mem, b.off+layout.BlockFlagsOffset)
	if f {
		flags |= layout.FlagFree
	} else {
		flags &^= layout.FlagFree
	}
	layout.PutU32(b.mem, b.off+layout.BlockFlagsOffset, flags)
}

// prev returns the header offset of the physically previous block, or
// layout.NilOffset for the first block.
func (b block) prev() int {
	return int(layout.ReadU32(b.mem, b.off+layout.BlockPrevOffset))
}

func (b block) setPrev(off int) {
	layout.PutU32(b.mem, b.off+layout.BlockPrevOffset, uint32(off))
}

// next returns the header offset of the physically next block, or
// layout.NilOffset for the last block.
func (b block) next() int {
	return int(layout.ReadU32(b.mem, b.off+layout.BlockNextOffset))
}

func (b block) setNext(off int) {
	layout.PutU32(b.mem, b.off+layout.BlockNextOffset, uint32(off))
}

// payloadOff returns the arena offset of the block's payload.
func (b block) payloadOff() int {
	return b.off + layout.BlockHeaderSize
}

// end returns the arena offset one past the block's total extent (header plus
// payload). When a physically next block exists, its header sits exactly here.
func (b block) end() int {
	return b.off + layout.BlockHeaderSize + b.size()
}

// split shrinks b's payload to keep bytes and carves a new free block from the
// tail. The new block's payload size is the old remainder minus the new
// header's own storage cost; that subtraction is what keeps the carved block
// from claiming bytes it does not own.
//
// Returns the new tail block and true, or false when the remainder could not
// hold a header plus a minimum viable payload - in which case b is untouched
// and serves as an exact fit. b's free flag is left unchanged; the caller
// marks the front portion used after split returns.
func (h *Heap) split(b block, keep int) (block, bool) {
	rem := b.size() - keep - layout.BlockHeaderSize
	if rem < layout.MinBlockSize {
		return block{}, false
	}

	nb := h.blockAt(b.off + layout.BlockHeaderSize + keep)
	nb.setSize(rem)
	nb.setFree(true)
	nb.setPrev(b.off)
	nb.setNext(b.next())

	if b.next() != layout.NilOffset {
		h.blockAt(b.next()).setPrev(nb.off)
	}
	b.setNext(nb.off)
	b.setSize(keep)

	h.stats.Splits++
	return nb, true
}

// mergeWithNext absorbs the physically next block into b when that neighbor
// exists and is free. Reports whether a merge occurred.
func (h *Heap) mergeWithNext(b block) bool {
	nextOff := b.next()
	if nextOff == layout.NilOffset {
		return false
	}
	nb := h.blockAt(nextOff)
	if !nb.free() {
		return false
	}

	b.setSize(b.size() + layout.BlockHeaderSize + nb.size())
	b.setNext(nb.next())
	if nb.next() != layout.NilOffset {
		h.blockAt(nb.next()).setPrev(b.off)
	}
	return true
}

// mergeWithPrev absorbs b into its physically previous block when that
// neighbor exists and is free. Returns the surviving block and whether a
// merge occurred.
func (h *Heap) mergeWithPrev(b block) (block, bool) {
	prevOff := b.prev()
	if prevOff == layout.NilOffset {
		return b, false
	}
	pb := h.blockAt(prevOff)
	if !pb.free() {
		return b, false
	}

	pb.setSize(pb.size() + layout.BlockHeaderSize + b.size())
	pb.setNext(b.next())
	if b.next() != layout.NilOffset {
		h.blockAt(b.next()).setPrev(pb.off)
	}
	return pb, true
}
