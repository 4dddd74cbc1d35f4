package heap

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/joshuapare/heapkit/internal/layout"
	"github.com/joshuapare/heapkit/internal/paging"
)

// Runtime debug flag for allocation tracing - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// Ref is a reference to an allocated block: the byte offset of the block's
// payload from the arena base. NilRef is never a valid payload offset because
// a header always precedes the first payload.
type Ref uint32

// NilRef is the zero reference returned for zero-size requests and failures.
const NilRef Ref = 0

// Heap owns one arena and every block header within it. Clients receive
// non-owning references into the arena; the heap locates the owning header
// from the reference value alone by walking the physical chain, so no side
// table is kept.
//
// Heap is not safe for concurrent use. Wrap calls in a mutex if the heap is
// shared between goroutines; see the package-level global allocator.
type Heap struct {
	src    paging.Source
	mapper paging.Mapper

	// va is the reserved virtual range; mem is the window over va that has
	// been mapped so far. Both share one backing array, so block handles
	// remain valid across growth.
	va  []byte
	mem []byte

	// head is the arena offset of the first block header. The chain entry
	// point never moves: the first header sits at the arena base forever.
	head int

	// frontier is the next unused arena offset where a newly mapped page
	// will be appended. It only moves forward.
	frontier int

	// arenaSize is the total bytes ever granted to the arena. Grows
	// monotonically with frontier.
	arenaSize int

	stats Stats

	strictFree bool
	logger     *slog.Logger
}

// Option configures a Heap at construction time.
type Option func(*Heap)

// WithStrictFree makes Deallocate fail with ErrBadRef or ErrDoubleFree on
// references it cannot match to an in-use block. The default is permissive:
// such frees are counted and ignored, matching the behavior expected by
// callers that probe with stale references.
func WithStrictFree() Option {
	return func(h *Heap) { h.strictFree = true }
}

// WithLogger attaches a structured logger for grow and out-of-memory tracing.
// Logging is not required for correctness; the default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heap) { h.logger = l }
}

// New constructs a heap over the reserved virtual range va, pre-mapping
// enough pages to cover totalSize bytes and wrapping them in one giant free
// block.
//
// Initialization failure is a hard error: a page-source or mapper failure
// here means the heap cannot exist at all, unlike growth failures later,
// which only fail the triggering allocation.
func New(src paging.Source, mapper paging.Mapper, va []byte, totalSize int, opts ...Option) (*Heap, error) {
	if totalSize <= 0 {
		return nil, fmt.Errorf("heap: invalid arena size %d", totalSize)
	}
	initial := layout.AlignPage(totalSize)
	if initial > len(va) {
		return nil, fmt.Errorf("heap: virtual range too small: need %d bytes, have %d", initial, len(va))
	}

	h := &Heap{
		src:    src,
		mapper: mapper,
		va:     va,
		head:   0,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	for off := 0; off < initial; off += layout.PageSize {
		f, err := src.AllocFrame()
		if err != nil {
			return nil, fmt.Errorf("heap: arena init: page %d of %d: %w",
				off/layout.PageSize+1, initial/layout.PageSize, err)
		}
		if err := mapper.Map(uint32(off), f, paging.KernelRW); err != nil {
			return nil, fmt.Errorf("heap: arena init: map page at 0x%X: %w", off, err)
		}
	}

	h.frontier = initial
	h.arenaSize = initial
	h.mem = h.va[:h.frontier]

	first := h.blockAt(h.head)
	first.setSize(initial - layout.BlockHeaderSize)
	first.setFree(true)
	first.setPrev(layout.NilOffset)
	first.setNext(layout.NilOffset)

	h.stats.LargestFreeBlock = uint64(first.size())
	h.logger.Debug("heap initialized", "arenaSize", h.arenaSize, "pages", initial/layout.PageSize)
	return h, nil
}

// Allocate returns a reference to at least size usable bytes whose payload is
// aligned to align (a power of two; values below 8 are rounded up to 8).
//
// A zero size is an explicit no-op: NilRef, no payload, no error, and no
// statistics change. On exhaustion the heap attempts a single one-page growth
// and retries the search once; if that fails too, ErrNoSpace is returned and
// the allocator remains fully usable.
func (h *Heap) Allocate(size, align int) (Ref, []byte, error) {
	if size == 0 {
		return NilRef, nil, nil
	}
	if size < 0 {
		return NilRef, nil, ErrBadSize
	}
	// Block sizes are stored as u32 in the header; a larger request can never
	// be satisfied, and letting it through would overflow the alignment
	// rounding below into a small "valid" size.
	if size > math.MaxUint32-layout.PageSize {
		return NilRef, nil, ErrBadSize
	}
	if align < layout.MinAlign {
		align = layout.MinAlign
	}
	if !layout.IsPow2(align) {
		return NilRef, nil, ErrBadAlign
	}

	// Round the request, not just the returned pointer: every block size is
	// a multiple of the alignment, so a block carved from the tail via split
	// also begins at an aligned address.
	need := layout.AlignUp(size, align)
	if need < layout.MinBlockSize {
		need = layout.MinBlockSize
	}

	b, gap, ok := h.findFit(need, align)
	if !ok {
		if err := h.grow(); err != nil {
			h.stats.FailedAllocations++
			h.logger.Warn("allocation failed", "size", size, "align", align, "err", err)
			return NilRef, nil, ErrNoSpace
		}
		b, gap, ok = h.findFit(need, align)
		if !ok {
			h.stats.FailedAllocations++
			return NilRef, nil, ErrNoSpace
		}
	}

	if gap > 0 {
		// Carve a leading free block so the payload lands on the alignment
		// boundary; the aligned tail becomes the allocation candidate.
		// findFit already guaranteed the lead holds a viable block.
		aligned, ok := h.split(b, gap-layout.BlockHeaderSize)
		if !ok {
			h.stats.FailedAllocations++
			return NilRef, nil, ErrNoSpace
		}
		b = aligned
	}

	// Split off the tail remainder; on failure the whole block is an exact fit.
	h.split(b, need)
	b.setFree(false)

	granted := b.size()
	h.stats.TotalAllocations++
	h.stats.ActiveAllocations++
	h.stats.BytesAllocated += uint64(granted)
	h.stats.CurrentUsage += uint64(granted)
	h.updateLargestFree()

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[HEAP] alloc %d (align %d) -> off=0x%X granted=%d\n",
			size, align, b.payloadOff(), granted)
	}

	return Ref(b.payloadOff()), h.mem[b.payloadOff():b.end()], nil
}

// Deallocate returns the block owning ref to the free state and coalesces it
// with both physically adjacent neighbors. NilRef is accepted as a no-op.
//
// A reference that matches no in-use block is a caller contract violation.
// The permissive default counts and ignores it; under WithStrictFree it
// surfaces as ErrBadRef (untracked) or ErrDoubleFree (already free).
func (h *Heap) Deallocate(ref Ref) error {
	if ref == NilRef {
		return nil
	}

	b, ok := h.owner(ref)
	if !ok {
		return h.invalidFree(ErrBadRef, ref)
	}
	if b.free() {
		return h.invalidFree(ErrDoubleFree, ref)
	}

	freed := b.size()
	b.setFree(true)
	h.stats.TotalDeallocations++
	h.stats.ActiveAllocations--
	h.stats.BytesFreed += uint64(freed)
	h.stats.CurrentUsage -= uint64(freed)

	// Both directions, always: merging only one side lets fragmentation
	// accumulate across alternating free patterns.
	if h.mergeWithNext(b) {
		h.stats.Coalesces++
	}
	if merged, ok := h.mergeWithPrev(b); ok {
		b = merged
		h.stats.Coalesces++
	}
	h.updateLargestFree()

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[HEAP] free off=0x%X freed=%d coalesced=%d\n",
			b.payloadOff(), freed, b.size())
	}
	return nil
}

// findFit scans the physical chain from head for the first free block that
// can hold need bytes at the requested alignment. gap is the number of bytes
// between the block's natural payload start and the aligned payload start;
// when non-zero it is always large enough to carve into a leading free block.
func (h *Heap) findFit(need, align int) (block, int, bool) {
	for off := h.head; off != layout.NilOffset; {
		b := h.blockAt(off)
		if !b.free() {
			off = b.next()
			continue
		}

		gap := 0
		payload := b.payloadOff()
		aligned := layout.AlignUp(payload, align)
		if aligned != payload {
			// The lead must hold a full free block of its own.
			aligned = layout.AlignUp(payload+layout.BlockHeaderSize+layout.MinBlockSize, align)
			gap = aligned - payload
		}
		// Subtract rather than add: gap tracks the requested alignment, so
		// gap+need could overflow for absurd alignments while both operands
		// here stay in block-size range.
		if gap <= b.size() && b.size()-gap >= need {
			return b, gap, true
		}
		off = b.next()
	}
	return block{}, 0, false
}

// owner locates the block whose payload range contains ref.
func (h *Heap) owner(ref Ref) (block, bool) {
	target := int(ref)
	for off := h.head; off != layout.NilOffset; {
		b := h.blockAt(off)
		if target >= b.payloadOff() && target < b.end() {
			return b, true
		}
		off = b.next()
	}
	return block{}, false
}

// grow maps one fresh page at the frontier and appends it to the chain as a
// free block. If the current tail block is free, the new block is coalesced
// into it so a large pending request can span the boundary.
func (h *Heap) grow() error {
	if h.frontier+layout.PageSize > len(h.va) {
		h.logger.Debug("grow refused: virtual range exhausted", "frontier", h.frontier)
		return ErrGrowFail
	}

	f, err := h.src.AllocFrame()
	if err != nil {
		h.logger.Debug("grow refused: page source exhausted", "frontier", h.frontier)
		return fmt.Errorf("%w: %w", ErrGrowFail, err)
	}
	if err := h.mapper.Map(uint32(h.frontier), f, paging.KernelRW); err != nil {
		// The frame is leaked; a heap that cannot map pages has no recovery
		// path anyway.
		return fmt.Errorf("%w: %w", ErrGrowFail, err)
	}

	newOff := h.frontier
	h.frontier += layout.PageSize
	h.arenaSize += layout.PageSize
	h.mem = h.va[:h.frontier]
	h.stats.GrowCalls++
	h.stats.GrowBytes += layout.PageSize

	tail := h.tail()
	nb := h.blockAt(newOff)
	nb.setSize(layout.PageSize - layout.BlockHeaderSize)
	nb.setFree(true)
	nb.setPrev(tail.off)
	nb.setNext(layout.NilOffset)
	tail.setNext(newOff)

	if tail.free() && h.mergeWithNext(tail) {
		h.stats.Coalesces++
	}

	h.logger.Debug("arena grown", "frontier", h.frontier, "arenaSize", h.arenaSize)
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[HEAP] grow #%d: frontier=0x%X arena=%d\n",
			h.stats.GrowCalls, h.frontier, h.arenaSize)
	}
	return nil
}

// tail walks to the last block in the physical chain. Growth is the only
// caller, so the walk cost rides on an already page-granular slow path.
func (h *Heap) tail() block {
	b := h.blockAt(h.head)
	for b.next() != layout.NilOffset {
		b = h.blockAt(b.next())
	}
	return b
}

// invalidFree applies the configured contract-violation policy.
func (h *Heap) invalidFree(err error, ref Ref) error {
	if h.strictFree {
		return fmt.Errorf("%w (ref 0x%X)", err, uint32(ref))
	}
	h.stats.IgnoredFrees++
	h.logger.Debug("ignored invalid free", "ref", uint32(ref), "reason", err)
	return nil
}

// ArenaSize returns the total bytes ever granted to the arena.
func (h *Heap) ArenaSize() int {
	return h.arenaSize
}

// Frontier returns the arena offset where the next mapped page will be
// appended. It never decreases.
func (h *Heap) Frontier() int {
	return h.frontier
}
