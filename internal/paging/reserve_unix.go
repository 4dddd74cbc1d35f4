//go:build unix

package paging

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ReserveRange reserves an anonymous, zero-filled virtual range large enough
// for the given number of pages and returns it with a release function.
//
// The range is the heap's address space: in a kernel this would be the fixed
// virtual window the heap pages are mapped into. Reserving it up front keeps
// the arena contiguous across growth, which the block chain depends on.
func ReserveRange(pages int) ([]byte, func() error, error) {
	if pages <= 0 {
		return nil, nil, fmt.Errorf("paging: invalid range size (%d pages)", pages)
	}
	size := pages * PageSize
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, fmt.Errorf("paging: reserve of %d pages failed: %w", pages, err)
	}
	release := func() error {
		if mem == nil {
			return nil
		}
		err := unix.Munmap(mem)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-release as no-op for callers.
			return nil
		}
		mem = nil
		return err
	}
	return mem, release, nil
}
