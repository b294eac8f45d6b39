package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/gobang/game/message"
)

type stubConn struct{ name string }

func (c *stubConn) Send(*message.Response) error { return nil }

func TestTrackerEnterExit(t *testing.T) {
	tracker := NewTracker()
	conn := &stubConn{name: "a"}

	tracker.Enter(Lobby, 1, conn)

	assert.True(t, tracker.IsPresent(Lobby, 1))
	assert.False(t, tracker.IsPresent(Room, 1), "contexts must be independent")
	assert.True(t, tracker.IsOnline(1))

	got, ok := tracker.Connection(Lobby, 1)
	require.True(t, ok)
	assert.Same(t, conn, got)

	tracker.Exit(Lobby, 1)
	assert.False(t, tracker.IsPresent(Lobby, 1))
	assert.False(t, tracker.IsOnline(1))

	_, ok = tracker.Connection(Lobby, 1)
	assert.False(t, ok)
}

func TestTrackerExitUnknownUser(t *testing.T) {
	tracker := NewTracker()
	tracker.Exit(Room, 42)
	assert.Equal(t, 0, tracker.Count(Room))
}

func TestTrackerEnterReplacesHandle(t *testing.T) {
	tracker := NewTracker()
	first := &stubConn{name: "first"}
	second := &stubConn{name: "second"}

	tracker.Enter(Room, 7, first)
	tracker.Enter(Room, 7, second)

	got, ok := tracker.Connection(Room, 7)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, tracker.Count(Room))
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup

	for i := uint64(0); i < 100; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			ctx := Lobby
			if uid%2 == 0 {
				ctx = Room
			}
			tracker.Enter(ctx, uid, &stubConn{})
			tracker.IsPresent(ctx, uid)
			tracker.Connection(ctx, uid)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, tracker.Count(Lobby))
	assert.Equal(t, 50, tracker.Count(Room))
}

func TestContextString(t *testing.T) {
	assert.Equal(t, "lobby", Lobby.String())
	assert.Equal(t, "room", Room.String())
}
