// Package paging defines the physical-page supply and virtual-mapping
// collaborators consumed by the heap allocator, together with slab-backed
// implementations suitable for userspace use and testing.
//
// The allocator never touches physical frames directly: it asks a Source for
// one frame at a time and a Mapper to place that frame at its growth frontier.
// Both operations may fail, and failure is always surfaced as an error value,
// never a panic - a failed growth simply means the triggering allocation
// fails.
package paging

import "errors"

// ErrNoFrames indicates the page source has been exhausted.
var ErrNoFrames = errors.New("paging: no physical frames available")

// PageSize is the fixed size of a physical page frame in bytes.
const PageSize = 4096

// Frame is a physical page frame index. Frame N covers physical bytes
// [N*PageSize, (N+1)*PageSize).
type Frame uint32

// Flags describe the protection applied to a virtual mapping.
type Flags uint32

const (
	// FlagPresent marks the mapping as resident.
	FlagPresent Flags = 1 << 0

	// FlagWritable allows stores through the mapping.
	FlagWritable Flags = 1 << 1

	// FlagNoExec forbids instruction fetch through the mapping.
	FlagNoExec Flags = 1 << 2

	// KernelRW is the flag set used for heap pages.
	KernelRW = FlagPresent | FlagWritable | FlagNoExec
)

// Source supplies fixed-size physical page frames on demand.
//
// AllocFrame returns ErrNoFrames when the supply is exhausted. No ordering or
// locality guarantee is made about the frames returned.
type Source interface {
	AllocFrame() (Frame, error)
}

// Mapper establishes virtual-to-physical mappings with the given protection
// flags. virt is a byte offset into the consumer's reserved virtual range.
type Mapper interface {
	Map(virt uint32, f Frame, flags Flags) error
}
