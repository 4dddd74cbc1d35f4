package paging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlabSourceExhaustion(t *testing.T) {
	src := NewSlabSource(3)

	for want := 0; want < 3; want++ {
		f, err := src.AllocFrame()
		require.NoError(t, err)
		require.Equal(t, Frame(want), f)
	}
	require.Zero(t, src.Remaining())
	require.Equal(t, 3, src.Allocated())

	_, err := src.AllocFrame()
	require.ErrorIs(t, err, ErrNoFrames)

	// Exhaustion is sticky; frames are never returned.
	_, err = src.AllocFrame()
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestRecordingMapperTracksMappings(t *testing.T) {
	m := NewRecordingMapper()

	require.NoError(t, m.Map(0, 7, KernelRW))
	require.NoError(t, m.Map(PageSize, 3, KernelRW))
	require.Len(t, m.Mappings, 2)
	require.Equal(t, Frame(7), m.Mappings[0].Frame)
	require.Equal(t, KernelRW, m.Mappings[0].Flags)
}

func TestRecordingMapperRejectsMisaligned(t *testing.T) {
	m := NewRecordingMapper()
	require.Error(t, m.Map(100, 0, KernelRW))
	require.Empty(t, m.Mappings)
}

func TestRecordingMapperRejectsDoubleMap(t *testing.T) {
	m := NewRecordingMapper()
	require.NoError(t, m.Map(PageSize, 0, KernelRW))
	require.Error(t, m.Map(PageSize, 1, KernelRW))
	require.Len(t, m.Mappings, 1)
}

func TestRecordingMapperFailureInjection(t *testing.T) {
	m := &RecordingMapper{FailAfter: 2}
	require.NoError(t, m.Map(0, 0, KernelRW))
	require.NoError(t, m.Map(PageSize, 1, KernelRW))
	require.Error(t, m.Map(2*PageSize, 2, KernelRW))
}

func TestReserveRangeRoundTrip(t *testing.T) {
	va, release, err := ReserveRange(4)
	require.NoError(t, err)
	require.Len(t, va, 4*PageSize)

	// The range is writable and zero-filled.
	require.Zero(t, va[0])
	require.Zero(t, va[len(va)-1])
	va[0] = 0xAA
	va[len(va)-1] = 0x55
	require.Equal(t, byte(0xAA), va[0])

	require.NoError(t, release())
	// Double release is tolerated.
	require.NoError(t, release())
}

func TestReserveRangeRejectsBadSizes(t *testing.T) {
	for _, pages := range []int{0, -1} {
		_, _, err := ReserveRange(pages)
		require.Error(t, err, "pages=%d", pages)
	}
}
