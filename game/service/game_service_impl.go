package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/message"
	"github.com/wricardo/gobang/game/presence"
	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/session"
	"github.com/wricardo/gobang/store"
)

// DefaultSessionTimeout is how long an idle login stays valid
const DefaultSessionTimeout = 30 * time.Second

var (
	ErrNotLoggedIn    = errors.New("please log in again")
	ErrDuplicateLogin = errors.New("duplicate login")
	ErrNoRoom         = errors.New("no room found for player")
)

// Reasons sent to connections.
const (
	ReasonNoSession      = "session not found, please log in again"
	ReasonDuplicateLogin = "duplicate login"
	ReasonNoRoom         = "no room found for player"
	ReasonUnknownOp      = "unknown request type"
	ReasonUnknownUser    = "user not found, please log in again"
	ReasonAlreadyInRoom  = "already in a room, finish that game first"
)

// Deps are the collaborators of the game service. They are created by the
// server and must outlive it.
type Deps struct {
	Users          UserStore
	Sessions       SessionManager
	Presence       PresenceTracker
	Rooms          RoomManager
	Matcher        Matchmaker
	SessionTimeout time.Duration
	Logger         *zap.Logger
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	users    UserStore
	sessions SessionManager
	presence PresenceTracker
	rooms    RoomManager
	matcher  Matchmaker
	timeout  time.Duration
	logger   *zap.Logger

	// connMu makes the duplicate-login check and the presence entry atomic.
	connMu sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(deps Deps) GameService {
	timeout := deps.SessionTimeout
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &gameServiceImpl{
		users:    deps.Users,
		sessions: deps.Sessions,
		presence: deps.Presence,
		rooms:    deps.Rooms,
		matcher:  deps.Matcher,
		timeout:  timeout,
		logger:   deps.Logger.Named("service"),
	}
}

// Register creates a new user account
func (s *gameServiceImpl) Register(ctx context.Context, username, password string) (*store.User, error) {
	u, err := s.users.Insert(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	s.logger.Info("user registered", zap.Uint64("uid", u.ID), zap.String("username", username))
	return &u, nil
}

// Login authenticates a user and opens a session that expires after the
// session timeout.
func (s *gameServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", username, err)
	}

	sess := s.sessions.Create(u.ID, session.Authenticated)
	if err := s.sessions.SetExpiry(sess.ID, s.timeout); err != nil {
		return nil, fmt.Errorf("login %q: %w", username, err)
	}

	s.logger.Info("user logged in", zap.Uint64("uid", u.ID), zap.Uint64("ssid", sess.ID))
	return &LoginResult{SessionID: sess.ID, User: &u}, nil
}

// Info returns the user behind a session. An offline user's session timeout
// is refreshed; a connected user's session is already kept alive.
func (s *gameServiceImpl) Info(ctx context.Context, sessionID uint64) (*store.User, error) {
	sess, err := s.loggedIn(sessionID)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", sess.UserID, err)
	}

	if !s.presence.IsOnline(sess.UserID) {
		if err := s.sessions.SetExpiry(sessionID, s.timeout); err != nil {
			s.logger.Warn("failed to refresh session", zap.Uint64("ssid", sessionID), zap.Error(err))
		}
	}
	return &u, nil
}

func (s *gameServiceImpl) loggedIn(sessionID uint64) (session.Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("session %d: %w", sessionID, ErrNotLoggedIn)
	}
	if !sess.IsLoggedIn() {
		return session.Session{}, fmt.Errorf("session %d: %w", sessionID, ErrNotLoggedIn)
	}
	return sess, nil
}

// send writes resp to conn and logs a failed write.
func (s *gameServiceImpl) send(conn presence.Conn, uid uint64, resp *message.Response) {
	if err := conn.Send(resp); err != nil {
		s.logger.Warn("failed to send", zap.Uint64("uid", uid), zap.String("optype", resp.OpType), zap.Error(err))
	}
}

// admit resolves the session behind a new connection and rejects users that
// already hold one. On success the user is entered in ctx under conn.
func (s *gameServiceImpl) admit(sessionID uint64, conn presence.Conn, ctx presence.Context, readyOp string, check func(uid uint64) error) (uint64, error) {
	sess, err := s.loggedIn(sessionID)
	if err != nil {
		s.send(conn, 0, message.Failure(readyOp, ReasonNoSession))
		return 0, err
	}
	uid := sess.UserID

	s.connMu.Lock()
	if s.presence.IsOnline(uid) {
		s.connMu.Unlock()
		s.logger.Info("duplicate login rejected", zap.Uint64("uid", uid), zap.Stringer("context", ctx))
		s.send(conn, uid, message.Failure(readyOp, ReasonDuplicateLogin))
		return 0, fmt.Errorf("user %d: %w", uid, ErrDuplicateLogin)
	}
	if check != nil {
		if err := check(uid); err != nil {
			s.connMu.Unlock()
			return 0, err
		}
	}
	s.presence.Enter(ctx, uid, conn)
	s.connMu.Unlock()

	if err := s.sessions.SetExpiry(sessionID, session.Forever); err != nil {
		s.logger.Warn("failed to pin session", zap.Uint64("ssid", sessionID), zap.Error(err))
	}
	return uid, nil
}

// OpenHall admits a lobby connection and replies hall_ready.
func (s *gameServiceImpl) OpenHall(ctx context.Context, sessionID uint64, conn presence.Conn) (uint64, error) {
	uid, err := s.admit(sessionID, conn, presence.Lobby, message.OpHallReady, nil)
	if err != nil {
		return 0, err
	}

	resp := message.Success(message.OpHallReady)
	resp.UID = uid
	s.send(conn, uid, resp)

	s.logger.Info("hall connection opened", zap.Uint64("uid", uid), zap.Uint64("ssid", sessionID))
	return uid, nil
}

// HallMessage handles a lobby request and returns the reply for the caller.
func (s *gameServiceImpl) HallMessage(ctx context.Context, uid uint64, req *message.Request) *message.Response {
	switch req.OpType {
	case message.OpMatchStart:
		if r, err := s.rooms.GetByUserID(uid); err == nil {
			s.logger.Info("match start rejected, user already has a room",
				zap.Uint64("uid", uid), zap.Uint64("room_id", r.ID()))
			return message.Failure(message.OpMatchStart, ReasonAlreadyInRoom)
		}
		if err := s.matcher.Add(ctx, uid); err != nil {
			s.logger.Warn("match start failed", zap.Uint64("uid", uid), zap.Error(err))
			return message.Failure(message.OpMatchStart, ReasonUnknownUser)
		}
		return message.Success(message.OpMatchStart)
	case message.OpMatchStop:
		if err := s.matcher.Remove(ctx, uid); err != nil {
			s.logger.Warn("match stop failed", zap.Uint64("uid", uid), zap.Error(err))
			return message.Failure(message.OpMatchStop, ReasonUnknownUser)
		}
		return message.Success(message.OpMatchStop)
	}
	return message.Failure(message.OpUnknown, ReasonUnknownOp)
}

// CloseHall removes the user from the lobby and the match queues and
// restores the session timeout.
func (s *gameServiceImpl) CloseHall(ctx context.Context, sessionID, uid uint64) {
	s.presence.Exit(presence.Lobby, uid)
	if err := s.matcher.Remove(ctx, uid); err != nil {
		s.logger.Warn("failed to leave match queue", zap.Uint64("uid", uid), zap.Error(err))
	}
	s.release(sessionID)
	s.logger.Info("hall connection closed", zap.Uint64("uid", uid), zap.Uint64("ssid", sessionID))
}

func (s *gameServiceImpl) release(sessionID uint64) {
	if err := s.sessions.SetExpiry(sessionID, s.timeout); err != nil {
		s.logger.Debug("session already gone", zap.Uint64("ssid", sessionID), zap.Error(err))
	}
}

// OpenRoom admits a room connection for a user that has a room and replies
// room_ready with the seating.
func (s *gameServiceImpl) OpenRoom(ctx context.Context, sessionID uint64, conn presence.Conn) (uint64, error) {
	var r *room.Room
	uid, err := s.admit(sessionID, conn, presence.Room, message.OpRoomReady, func(uid uint64) error {
		var err error
		r, err = s.rooms.GetByUserID(uid)
		if err != nil {
			s.send(conn, uid, message.Failure(message.OpRoomReady, ReasonNoRoom))
			return fmt.Errorf("user %d: %w", uid, ErrNoRoom)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	resp := message.Success(message.OpRoomReady)
	resp.RoomID = r.ID()
	resp.UID = uid
	resp.WhiteID = r.WhiteID()
	resp.BlackID = r.BlackID()
	s.send(conn, uid, resp)

	s.logger.Info("room connection opened", zap.Uint64("uid", uid), zap.Uint64("room_id", r.ID()))
	return uid, nil
}

// RoomMessage dispatches a request to the caller's room, which broadcasts
// the result to both seats. It returns a reply only when the caller must be
// answered directly.
func (s *gameServiceImpl) RoomMessage(ctx context.Context, uid uint64, req *message.Request) *message.Response {
	r, err := s.rooms.GetByUserID(uid)
	if err != nil {
		return message.Failure(message.OpUnknown, ReasonNoRoom)
	}
	// The connection identifies the sender.
	req.UID = uid
	r.HandleRequest(ctx, req)
	return nil
}

// CloseRoom removes the user from the room context and from its seat, then
// restores the session timeout.
func (s *gameServiceImpl) CloseRoom(ctx context.Context, sessionID, uid uint64) {
	s.presence.Exit(presence.Room, uid)
	s.release(sessionID)
	s.rooms.RemoveRoomUser(ctx, uid)
	s.logger.Info("room connection closed", zap.Uint64("uid", uid), zap.Uint64("ssid", sessionID))
}

// Stats reports current activity
func (s *gameServiceImpl) Stats(ctx context.Context) *Stats {
	return &Stats{
		LobbyUsers: s.presence.Count(presence.Lobby),
		RoomUsers:  s.presence.Count(presence.Room),
		Sessions:   s.sessions.Count(),
		Rooms:      s.rooms.Count(),
		Queues:     s.matcher.QueueLengths(),
	}
}

// ListRooms returns a summary of every live room
func (s *gameServiceImpl) ListRooms(ctx context.Context) []room.Info {
	rooms := s.rooms.List()
	result := make([]room.Info, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, r.Info())
	}
	return result
}

// RoomBoard renders a room's board
func (s *gameServiceImpl) RoomBoard(ctx context.Context, roomID uint64) (*BoardView, error) {
	r, err := s.rooms.GetByRoomID(roomID)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", roomID, err)
	}
	board := r.Board()
	return &BoardView{Room: r.Info(), Board: board.String()}, nil
}
