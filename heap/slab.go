package heap

import (
	"github.com/joshuapare/heapkit/internal/layout"
	"github.com/joshuapare/heapkit/internal/paging"
)

// NewSlab constructs a self-contained heap: a slab page source, a recording
// mapper, and a reserved virtual range, wired together and initialized over
// totalSize bytes. headroomPages extra frames are left in the source for
// on-demand growth; zero headroom yields a fixed-size arena.
//
// The returned release function unmaps the virtual range; call it once the
// heap is no longer needed.
func NewSlab(totalSize, headroomPages int, opts ...Option) (*Heap, func() error, error) {
	pages := layout.AlignPage(totalSize)/layout.PageSize + headroomPages
	va, release, err := paging.ReserveRange(pages)
	if err != nil {
		return nil, nil, err
	}

	h, err := New(paging.NewSlabSource(pages), paging.NewRecordingMapper(), va, totalSize, opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return h, release, nil
}
