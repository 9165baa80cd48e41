package ringbuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPanicsOnNonPowerOfTwo(t *testing.T) {
	assert.Panics(t, func() { New[int](3) })
	assert.Panics(t, func() { New[int](0) })
	assert.NotPanics(t, func() { New[int](4) })
}

func TestCapacityReservesOneSlot(t *testing.T) {
	r := New[int](8)
	assert.Equal(t, 7, r.Capacity())
}

func TestPushPopFIFO(t *testing.T) {
	r := New[int](8)
	for i := 0; i < 7; i++ {
		require.True(t, r.Push(i))
	}
	// one more push must fail: full
	assert.False(t, r.Push(99))

	for i := 0; i < 7; i++ {
		v, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := r.Pop()
	assert.False(t, ok, "pop on empty ring must fail")
}

func TestEmptyAndSize(t *testing.T) {
	r := New[int](4)
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.Size())

	r.Push(1)
	r.Push(2)
	assert.False(t, r.Empty())
	assert.Equal(t, 2, r.Size())
}

// TestSPSCFIFOConcurrent exercises the testable property from spec.md
// §8: for any interleaving of N pushes and N pops, the consumer
// observes items in producer-submission order, with no loss or
// duplication.
func TestSPSCFIFOConcurrent(t *testing.T) {
	const n = 100_000
	r := New[int](1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Push(i) {
				// busy-poll: SPSC ring is non-blocking, callers must poll
			}
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(got) < n {
			if v, ok := r.Pop(); ok {
				got = append(got, v)
			}
		}
	}()

	wg.Wait()

	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v, "items must be observed in producer-submission order")
	}
}
