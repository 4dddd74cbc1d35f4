package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/layout"
)

// IntegrityError describes one violated arena invariant.
type IntegrityError struct {
	Type    string
	Message string
	Offset  int
}

func (e *IntegrityError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("heap: %s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("heap: %s: %s", e.Type, e.Message)
}

// VerifyIntegrity walks the physical chain and reports whether every
// invariant holds. It is a diagnostic and test hook, not a runtime guard:
// nothing calls it automatically, because a full walk on every operation
// would be prohibitively expensive at scale.
func (h *Heap) VerifyIntegrity() bool {
	return h.CheckInvariants() == nil
}

// CheckInvariants validates the block chain and returns the first violation
// found, or nil. Checked invariants:
//
//   - every header and payload lies inside the mapped arena
//   - block sizes are 8-byte aligned and at least the minimum viable payload
//   - prev/next links are symmetric (A.next == B implies B.prev == A)
//   - blocks exactly tile the arena: each next header sits at the previous
//     block's end, and the last block ends at the growth frontier
//   - no two physically adjacent free blocks coexist
func (h *Heap) CheckInvariants() error {
	prevOff := layout.NilOffset
	prevFree := false
	off := h.head

	for off != layout.NilOffset {
		if off < 0 || off+layout.BlockHeaderSize > h.frontier {
			return &IntegrityError{
				Type:    "Bounds",
				Message: fmt.Sprintf("header outside mapped arena (frontier 0x%X)", h.frontier),
				Offset:  off,
			}
		}
		b := h.blockAt(off)

		size := b.size()
		if size < layout.MinBlockSize || size%layout.MinAlign != 0 {
			return &IntegrityError{
				Type:    "BlockSize",
				Message: fmt.Sprintf("invalid payload size %d", size),
				Offset:  off,
			}
		}
		if b.end() > h.frontier {
			return &IntegrityError{
				Type:    "Bounds",
				Message: fmt.Sprintf("block extent 0x%X overruns frontier 0x%X", b.end(), h.frontier),
				Offset:  off,
			}
		}

		if b.prev() != prevOff {
			return &IntegrityError{
				Type:    "LinkSymmetry",
				Message: fmt.Sprintf("prev link 0x%X, expected 0x%X", b.prev(), prevOff),
				Offset:  off,
			}
		}

		if b.free() && prevFree {
			return &IntegrityError{
				Type:    "Coalescing",
				Message: "two physically adjacent free blocks",
				Offset:  off,
			}
		}

		next := b.next()
		if next == layout.NilOffset {
			if b.end() != h.frontier {
				return &IntegrityError{
					Type:    "Tiling",
					Message: fmt.Sprintf("last block ends at 0x%X, frontier at 0x%X", b.end(), h.frontier),
					Offset:  off,
				}
			}
		} else if next != b.end() {
			return &IntegrityError{
				Type:    "Tiling",
				Message: fmt.Sprintf("next header at 0x%X, block ends at 0x%X", next, b.end()),
				Offset:  off,
			}
		}

		prevOff = off
		prevFree = b.free()
		off = next
	}

	if prevOff == layout.NilOffset {
		return &IntegrityError{Type: "Chain", Message: "empty block chain", Offset: -1}
	}
	return nil
}
