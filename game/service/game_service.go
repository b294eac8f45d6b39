package service

import (
	"context"
	"time"

	"github.com/wricardo/gobang/game/message"
	"github.com/wricardo/gobang/game/presence"
	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/session"
	"github.com/wricardo/gobang/store"
)

// GameService defines every server operation the transports call
type GameService interface {
	// Accounts
	Register(ctx context.Context, username, password string) (*store.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Info(ctx context.Context, sessionID uint64) (*store.User, error)

	// Hall connections
	OpenHall(ctx context.Context, sessionID uint64, conn presence.Conn) (uint64, error)
	HallMessage(ctx context.Context, uid uint64, req *message.Request) *message.Response
	CloseHall(ctx context.Context, sessionID, uid uint64)

	// Room connections
	OpenRoom(ctx context.Context, sessionID uint64, conn presence.Conn) (uint64, error)
	RoomMessage(ctx context.Context, uid uint64, req *message.Request) *message.Response
	CloseRoom(ctx context.Context, sessionID, uid uint64)

	// Operator views
	Stats(ctx context.Context) *Stats
	ListRooms(ctx context.Context) []room.Info
	RoomBoard(ctx context.Context, roomID uint64) (*BoardView, error)
}

// UserStore is the subset of the user store the service needs
type UserStore interface {
	Insert(ctx context.Context, username, password string) (store.User, error)
	Authenticate(ctx context.Context, username, password string) (store.User, error)
	GetByID(ctx context.Context, id uint64) (store.User, error)
}

// SessionManager defines session registry operations
type SessionManager interface {
	Create(userID uint64, state session.State) session.Session
	Get(id uint64) (session.Session, error)
	SetExpiry(id uint64, d time.Duration) error
	Count() int
}

// PresenceTracker defines online user bookkeeping
type PresenceTracker interface {
	Enter(ctx presence.Context, uid uint64, conn presence.Conn)
	Exit(ctx presence.Context, uid uint64)
	IsOnline(uid uint64) bool
	Count(ctx presence.Context) int
}

// RoomManager defines room registry operations
type RoomManager interface {
	GetByRoomID(id uint64) (*room.Room, error)
	GetByUserID(uid uint64) (*room.Room, error)
	RemoveRoomUser(ctx context.Context, uid uint64)
	List() []*room.Room
	Count() int
}

// Matchmaker defines match queue operations
type Matchmaker interface {
	Add(ctx context.Context, uid uint64) error
	Remove(ctx context.Context, uid uint64) error
	QueueLengths() map[string]int
}
