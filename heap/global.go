package heap

import (
	"errors"
	"sync"

	"github.com/joshuapare/heapkit/internal/layout"
	"github.com/joshuapare/heapkit/internal/paging"
)

// ErrNotInitialized is returned by package-level calls before Init.
var ErrNotInitialized = errors.New("heap: global heap not initialized")

// The global allocator is an explicit handle behind a mutex, not an
// unsynchronized singleton: every package-level call takes the lock around
// the whole allocate/deallocate critical section. The Heap itself stays
// single-threaded; the lock is the only thing that makes sharing it safe.
var (
	globalMu      sync.Mutex
	globalHeap    *Heap
	globalRelease func() error
)

// Init performs one-time setup of the package-level heap: it reserves a
// virtual range covering totalSize bytes, pre-maps every page from a slab
// source, and constructs the allocator over that region. Fails hard if the
// range cannot be reserved or the initial arena cannot be fully mapped.
//
// The slab source is sized to exactly cover totalSize, so the global heap
// does not grow past its initial arena; exhaustion surfaces as ErrNoSpace.
func Init(totalSize int, opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalHeap != nil {
		return errors.New("heap: global heap already initialized")
	}

	pages := layout.AlignPage(totalSize) / layout.PageSize
	va, release, err := paging.ReserveRange(pages)
	if err != nil {
		return err
	}

	h, err := New(paging.NewSlabSource(pages), paging.NewRecordingMapper(), va, totalSize, opts...)
	if err != nil {
		release()
		return err
	}

	globalHeap = h
	globalRelease = release
	return nil
}

// Allocate allocates from the global heap. See Heap.Allocate.
func Allocate(size, align int) (Ref, []byte, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return NilRef, nil, ErrNotInitialized
	}
	return globalHeap.Allocate(size, align)
}

// Deallocate frees a block of the global heap. See Heap.Deallocate.
func Deallocate(ref Ref) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return ErrNotInitialized
	}
	return globalHeap.Deallocate(ref)
}

// GetStats snapshots the global heap's counters.
func GetStats() (Stats, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return Stats{}, ErrNotInitialized
	}
	return globalHeap.Stats(), nil
}

// GetFragmentationRatio reports the global heap's fragmentation ratio.
func GetFragmentationRatio() (float64, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return 0, ErrNotInitialized
	}
	return globalHeap.FragmentationRatio(), nil
}

// VerifyGlobalIntegrity runs the integrity pass on the global heap.
func VerifyGlobalIntegrity() (bool, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return false, ErrNotInitialized
	}
	return globalHeap.VerifyIntegrity(), nil
}

// PrintReport logs the global heap's statistics dump.
func PrintReport() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return ErrNotInitialized
	}
	globalHeap.PrintReport()
	return nil
}

// Shutdown releases the global heap and its virtual range. Intended for
// tests; a kernel heap lives for the lifetime of the kernel.
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalHeap == nil {
		return nil
	}
	globalHeap = nil
	release := globalRelease
	globalRelease = nil
	if release != nil {
		return release()
	}
	return nil
}
