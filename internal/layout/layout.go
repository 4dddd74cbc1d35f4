// Package layout houses the binary layout of the heap arena: block-header
// field offsets, alignment rules, and little-endian encoding helpers. The
// goal is to keep the byte-level details focused and independent from the
// public API so the allocator can orchestrate blocks in a more ergonomic form.
package layout

const (
	// PageSize is the granularity of arena growth. The arena is backed by
	// fixed-size physical pages mapped at the growth frontier.
	PageSize = 4096

	// BlockHeaderSize is the number of bytes used by the block header
	// preceding every region (free or in-use) within the arena.
	//
	// Layout (little-endian):
	//   0x00  u32  payload size in bytes (excludes the header itself)
	//   0x04  u32  flags (bit 0: free)
	//   0x08  u32  header offset of the physically previous block, or NilOffset
	//   0x0C  u32  header offset of the physically next block, or NilOffset
	BlockHeaderSize = 16

	// MinBlockSize is the smallest payload a split may leave behind. Splits
	// that would produce a smaller remainder hand the whole block to the
	// caller as an exact fit instead.
	MinBlockSize = 16

	// MinAlign is the minimum payload alignment. Every block size is a
	// multiple of MinAlign and every header offset is MinAlign-aligned, so
	// payloads at header+BlockHeaderSize inherit this alignment for free.
	MinAlign = 8

	// MinAlignMask is the bitmask used for aligning to MinAlign boundaries.
	MinAlignMask = MinAlign - 1

	// PageMask is the bitmask used for aligning to page boundaries.
	PageMask = PageSize - 1

	// NilOffset marks the absence of a neighbor in a block's prev/next field.
	// Offset 0 is a valid header position, so zero cannot serve as the nil
	// sentinel.
	NilOffset = 0xFFFFFFFF

	// Block header field offsets.
	BlockSizeOffset  = 0x00
	BlockFlagsOffset = 0x04
	BlockPrevOffset  = 0x08
	BlockNextOffset  = 0x0C

	// FlagFree is set in the flags field while a block is available for
	// allocation.
	FlagFree = 0x1
)
