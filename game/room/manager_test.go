package room

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/presence"
)

func newTestManager() (*Manager, *presence.Tracker, *fakeResults) {
	tracker := presence.NewTracker()
	results := newFakeResults()
	return NewManager(Deps{Presence: tracker, Results: results, Logger: zap.NewNop()}), tracker, results
}

func TestManagerCreateRoomRequiresLobby(t *testing.T) {
	manager, tracker, _ := newTestManager()
	tracker.Enter(presence.Lobby, 1, &recordingConn{})

	_, err := manager.CreateRoom(1, 2)
	assert.True(t, errors.Is(err, ErrNotInLobby))
	assert.Equal(t, 0, manager.Count())

	_, err = manager.GetByUserID(1)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestManagerCreateRoomRejectsSameUser(t *testing.T) {
	manager, tracker, _ := newTestManager()
	tracker.Enter(presence.Lobby, 1, &recordingConn{})

	_, err := manager.CreateRoom(1, 1)
	assert.ErrorIs(t, err, ErrSameUser)
}

func TestManagerCreateRoomIndexesBothUsers(t *testing.T) {
	manager, tracker, _ := newTestManager()
	tracker.Enter(presence.Lobby, 1, &recordingConn{})
	tracker.Enter(presence.Lobby, 2, &recordingConn{})
	tracker.Enter(presence.Lobby, 3, &recordingConn{})
	tracker.Enter(presence.Lobby, 4, &recordingConn{})

	first, err := manager.CreateRoom(1, 2)
	require.NoError(t, err)
	second, err := manager.CreateRoom(3, 4)
	require.NoError(t, err)
	assert.Greater(t, second.ID(), first.ID())

	byID, err := manager.GetByRoomID(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, byID)

	for uid, want := range map[uint64]*Room{1: first, 2: first, 3: second, 4: second} {
		got, err := manager.GetByUserID(uid)
		require.NoError(t, err)
		assert.Same(t, want, got)
	}

	_, err = manager.CreateRoom(1, 3)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)
	assert.Len(t, manager.List(), 2)
}

func TestManagerRemoveRoomUserDestroysEmptyRoom(t *testing.T) {
	f, r := newFixture(t)
	ctx := context.Background()

	f.tracker.Exit(presence.Room, whiteUID)
	f.manager.RemoveRoomUser(ctx, whiteUID)

	assert.Equal(t, Finished, r.Status())
	assert.Equal(t, blackUID, f.black.Last().Winner)
	_, err := f.manager.GetByRoomID(r.ID())
	require.NoError(t, err, "room stays while a seat is occupied")
	_, err = f.manager.GetByUserID(whiteUID)
	assert.ErrorIs(t, err, ErrRoomNotFound, "departed seat no longer resolves")
	got, err := f.manager.GetByUserID(blackUID)
	require.NoError(t, err)
	assert.Same(t, r, got)

	f.tracker.Exit(presence.Room, blackUID)
	f.manager.RemoveRoomUser(ctx, blackUID)

	assert.Equal(t, 0, r.Players())
	_, err = f.manager.GetByRoomID(r.ID())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.manager.GetByUserID(whiteUID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.manager.GetByUserID(blackUID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	assert.Equal(t, 1, f.results.wins[blackUID])
	assert.Equal(t, 1, f.results.losses[whiteUID])
}

func TestManagerDepartedUserCanBeMatchedAgain(t *testing.T) {
	f, r := newFixture(t)
	ctx := context.Background()

	f.tracker.Exit(presence.Room, whiteUID)
	f.manager.RemoveRoomUser(ctx, whiteUID)

	// white goes back to the lobby while black is still in the old room
	f.tracker.Enter(presence.Lobby, whiteUID, f.white)
	f.tracker.Enter(presence.Lobby, 33, &recordingConn{})
	next, err := f.manager.CreateRoom(whiteUID, 33)
	require.NoError(t, err)

	// Destroying the old room must not drop white's new index entry
	f.manager.RemoveRoomUser(ctx, blackUID)
	_, err = f.manager.GetByRoomID(r.ID())
	assert.ErrorIs(t, err, ErrRoomNotFound)

	got, err := f.manager.GetByUserID(whiteUID)
	require.NoError(t, err)
	assert.Same(t, next, got)
}

func TestManagerRemoveRoom(t *testing.T) {
	f, r := newFixture(t)

	f.manager.RemoveRoom(r.ID())
	f.manager.RemoveRoom(r.ID())

	assert.Equal(t, 0, f.manager.Count())
	_, err := f.manager.GetByUserID(whiteUID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Unknown users are ignored
	f.manager.RemoveRoomUser(context.Background(), 12345)
}
