package paging

import "fmt"

// SlabSource is a Source with a hard frame capacity. It hands out frame
// indexes in ascending order and reports ErrNoFrames once the capacity is
// reached. Frames are never returned to the source; the heap's growth model
// is append-only.
type SlabSource struct {
	capacity int
	next     int

	// allocs counts AllocFrame calls that succeeded (for diagnostics).
	allocs int
}

// NewSlabSource returns a source that can supply up to capacity frames.
func NewSlabSource(capacity int) *SlabSource {
	return &SlabSource{capacity: capacity}
}

// AllocFrame returns the next unused frame, or ErrNoFrames on exhaustion.
func (s *SlabSource) AllocFrame() (Frame, error) {
	if s.next >= s.capacity {
		return 0, ErrNoFrames
	}
	f := Frame(s.next)
	s.next++
	s.allocs++
	return f, nil
}

// Remaining returns the number of frames the source can still supply.
func (s *SlabSource) Remaining() int {
	return s.capacity - s.next
}

// Allocated returns the number of frames handed out so far.
func (s *SlabSource) Allocated() int {
	return s.allocs
}

// Mapping records one established virtual-to-physical mapping.
type Mapping struct {
	Virt  uint32
	Frame Frame
	Flags Flags
}

// RecordingMapper is a Mapper that validates and records mappings without
// touching hardware. It backs userspace heaps, where the reserved virtual
// range is directly addressable and mapping is pure bookkeeping.
//
// FailAfter, when non-negative, makes every Map call past the first FailAfter
// calls fail. Tests use this to exercise the allocator's growth-failure path.
type RecordingMapper struct {
	Mappings  []Mapping
	FailAfter int

	calls int
}

// NewRecordingMapper returns a mapper that never fails.
func NewRecordingMapper() *RecordingMapper {
	return &RecordingMapper{FailAfter: -1}
}

// Map records the mapping. virt must be page-aligned and not already mapped.
func (m *RecordingMapper) Map(virt uint32, f Frame, flags Flags) error {
	m.calls++
	if m.FailAfter >= 0 && m.calls > m.FailAfter {
		return fmt.Errorf("paging: map of frame %d at 0x%X refused", f, virt)
	}
	if virt%PageSize != 0 {
		return fmt.Errorf("paging: virtual address 0x%X not page-aligned", virt)
	}
	for _, prev := range m.Mappings {
		if prev.Virt == virt {
			return fmt.Errorf("paging: virtual address 0x%X already mapped", virt)
		}
	}
	m.Mappings = append(m.Mappings, Mapping{Virt: virt, Frame: f, Flags: flags})
	return nil
}
