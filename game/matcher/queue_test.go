package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for _, uid := range []uint64{1, 2, 3} {
		assert.True(t, q.Push(uid))
	}
	assert.False(t, q.Push(2), "duplicate push is ignored")
	assert.Equal(t, 3, q.Len())

	first, second, ok := q.WaitPair()
	require.True(t, ok)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Contains(3))
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	assert.True(t, q.Remove(2))
	assert.False(t, q.Remove(2))
	assert.False(t, q.Remove(42))

	first, second, ok := q.WaitPair()
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 3}, []uint64{first, second})
}

func TestQueueWaitPairBlocksUntilTwo(t *testing.T) {
	q := NewQueue()
	q.Push(1)

	done := make(chan [2]uint64, 1)
	go func() {
		a, b, ok := q.WaitPair()
		if ok {
			done <- [2]uint64{a, b}
		}
	}()

	select {
	case <-done:
		t.Fatal("WaitPair returned with a single user queued")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(2)
	select {
	case pair := <-done:
		assert.Equal(t, [2]uint64{1, 2}, pair)
	case <-time.After(time.Second):
		t.Fatal("WaitPair did not wake after the second push")
	}
}

func TestQueueCloseWakesWaiters(t *testing.T) {
	q := NewQueue()

	done := make(chan bool, 1)
	go func() {
		_, _, ok := q.WaitPair()
		done <- ok
	}()

	q.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the waiter")
	}

	assert.False(t, q.Push(7), "push after close is ignored")
}
