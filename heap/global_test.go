package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalHeapLifecycle(t *testing.T) {
	require.NoError(t, Init(1<<20))
	t.Cleanup(func() { require.NoError(t, Shutdown()) })

	// Double init is refused.
	require.Error(t, Init(1<<20))

	ref, buf, err := Allocate(512, 8)
	require.NoError(t, err)
	require.NotEqual(t, NilRef, ref)
	require.GreaterOrEqual(t, len(buf), 512)

	st, err := GetStats()
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.TotalAllocations)

	ratio, err := GetFragmentationRatio()
	require.NoError(t, err)
	require.GreaterOrEqual(t, ratio, 0.0)

	ok, err := VerifyGlobalIntegrity()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, Deallocate(ref))
	require.NoError(t, PrintReport())
}

func TestGlobalCallsBeforeInit(t *testing.T) {
	// Runs against the uninitialized package state; Shutdown in the other
	// test restores it, and Go runs tests in one package sequentially.
	require.NoError(t, Shutdown())

	_, _, err := Allocate(64, 8)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, Deallocate(Ref(64)), ErrNotInitialized)

	_, err = GetStats()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = GetFragmentationRatio()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = VerifyGlobalIntegrity()
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, PrintReport(), ErrNotInitialized)
}

func TestGlobalHeapConcurrentAccess(t *testing.T) {
	require.NoError(t, Init(1<<20))
	t.Cleanup(func() { require.NoError(t, Shutdown()) })

	// The package-level mutex serializes whole operations, so concurrent
	// callers must never corrupt the chain.
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				ref, _, err := Allocate(128, 8)
				if err != nil {
					continue
				}
				_ = Deallocate(ref)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	ok, err := VerifyGlobalIntegrity()
	require.NoError(t, err)
	require.True(t, ok)

	st, err := GetStats()
	require.NoError(t, err)
	require.Equal(t, uint64(0), st.ActiveAllocations)
}
