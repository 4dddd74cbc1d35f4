package heap

import "errors"

var (
	// ErrNoSpace indicates that no free block large enough was found and
	// growth failed.
	ErrNoSpace = errors.New("heap: no free block large enough")

	// ErrBadRef indicates a reference that does not fall inside any tracked
	// block's payload.
	ErrBadRef = errors.New("heap: bad block reference")

	// ErrDoubleFree indicates an attempt to free a block that is already free.
	ErrDoubleFree = errors.New("heap: block already free")

	// ErrGrowFail indicates that appending a page to the arena failed.
	ErrGrowFail = errors.New("heap: grow failed")

	// ErrBadAlign indicates a requested alignment that is not a power of two.
	ErrBadAlign = errors.New("heap: alignment must be a power of two")

	// ErrBadSize indicates a negative or impossibly large allocation size.
	ErrBadSize = errors.New("heap: invalid allocation size")
)
