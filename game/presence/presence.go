// Package presence tracks which connection currently represents an online
// user. Users are tracked in two independent contexts: the lobby (hall),
// where players wait for a match, and the room, where a match is played.
//
// The tracker never owns a connection's lifetime. It only remembers the
// handle so that other components can push messages to a given user.
package presence

import (
	"fmt"
	"sync"

	"github.com/wricardo/gobang/game/message"
)

// Context selects one of the two presence namespaces.
type Context int

const (
	Lobby Context = iota
	Room
)

func (c Context) String() string {
	switch c {
	case Lobby:
		return "lobby"
	case Room:
		return "room"
	default:
		return fmt.Sprintf("context(%d)", int(c))
	}
}

// Conn is a handle to a connection owned by the transport layer.
type Conn interface {
	Send(resp *message.Response) error
}

// Tracker holds the user-to-connection mappings for both contexts.
// Callers are responsible for not registering a user in both at once.
type Tracker struct {
	mu    sync.Mutex
	lobby map[uint64]Conn
	room  map[uint64]Conn
}

// NewTracker creates an empty presence tracker
func NewTracker() *Tracker {
	return &Tracker{
		lobby: make(map[uint64]Conn),
		room:  make(map[uint64]Conn),
	}
}

func (t *Tracker) users(ctx Context) map[uint64]Conn {
	if ctx == Room {
		return t.room
	}
	return t.lobby
}

// Enter registers conn as the connection of uid in ctx, replacing any previous handle.
func (t *Tracker) Enter(ctx Context, uid uint64, conn Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users(ctx)[uid] = conn
}

// Exit removes uid from ctx. Unknown users are ignored.
func (t *Tracker) Exit(ctx Context, uid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users(ctx), uid)
}

// IsPresent reports whether uid is registered in ctx.
func (t *Tracker) IsPresent(ctx Context, uid uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.users(ctx)[uid]
	return ok
}

// Connection returns the handle registered for uid in ctx.
func (t *Tracker) Connection(ctx Context, uid uint64) (Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.users(ctx)[uid]
	return conn, ok
}

// IsOnline reports whether uid is present in either context.
func (t *Tracker) IsOnline(uid uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.lobby[uid]; ok {
		return true
	}
	_, ok := t.room[uid]
	return ok
}

// Count returns the number of users registered in ctx.
func (t *Tracker) Count(ctx Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.users(ctx))
}
