package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/presence"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotInLobby    = errors.New("user is not in the lobby")
	ErrSameUser      = errors.New("a user cannot play against themselves")
	ErrAlreadyInRoom = errors.New("user already has a room")
)

// Manager owns every room and indexes them by room ID and by seated user ID.
type Manager struct {
	rooms  map[uint64]*Room
	users  map[uint64]uint64
	nextID uint64
	deps   Deps
	logger *zap.Logger
	mu     sync.Mutex
}

// NewManager creates a new room manager. Every room it creates shares deps.
func NewManager(deps Deps) *Manager {
	deps.Logger = deps.Logger.Named("room")
	return &Manager{
		rooms:  make(map[uint64]*Room),
		users:  make(map[uint64]uint64),
		nextID: 1,
		deps:   deps,
		logger: deps.Logger,
	}
}

// CreateRoom creates a room with white as the first seat and black as the
// second. Both users must currently be in the lobby.
func (m *Manager) CreateRoom(white, black uint64) (*Room, error) {
	if white == black {
		return nil, ErrSameUser
	}
	for _, uid := range [2]uint64{white, black} {
		if !m.deps.Presence.IsPresent(presence.Lobby, uid) {
			m.logger.Debug("cannot create room, user left the lobby", zap.Uint64("uid", uid))
			return nil, fmt.Errorf("user %d: %w", uid, ErrNotInLobby)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, uid := range [2]uint64{white, black} {
		if _, ok := m.users[uid]; ok {
			return nil, fmt.Errorf("user %d: %w", uid, ErrAlreadyInRoom)
		}
	}

	r := newRoom(m.nextID, white, black, m.deps)
	m.rooms[r.id] = r
	m.users[white] = r.id
	m.users[black] = r.id
	m.nextID++

	m.logger.Info("room created",
		zap.Uint64("room_id", r.id),
		zap.Uint64("white", white),
		zap.Uint64("black", black))

	return r, nil
}

// GetByRoomID retrieves a room by its ID
func (m *Manager) GetByRoomID(id uint64) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// GetByUserID retrieves the room a user is seated in. A seat that has left
// through RemoveRoomUser no longer resolves, even while the room lives on
// for the opponent.
func (m *Manager) GetByUserID(uid uint64) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.users[uid]
	if !ok {
		return nil, ErrRoomNotFound
	}
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// RemoveRoom deletes a room and the index entries of both seats.
func (m *Manager) RemoveRoom(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id uint64) {
	r, ok := m.rooms[id]
	if !ok {
		return
	}
	m.unindexLocked(r.white, id)
	m.unindexLocked(r.black, id)
	delete(m.rooms, id)

	m.logger.Info("room removed", zap.Uint64("room_id", id))
}

// unindexLocked drops uid's index entry if it still points at room id.
func (m *Manager) unindexLocked(uid, id uint64) {
	if m.users[uid] == id {
		delete(m.users, uid)
	}
}

// RemoveRoomUser runs the exit handling of uid's room and destroys the room
// once both seats are gone.
func (m *Manager) RemoveRoomUser(ctx context.Context, uid uint64) {
	r, err := m.GetByUserID(uid)
	if err != nil {
		return
	}

	remaining := r.Exit(ctx, uid)

	m.mu.Lock()
	defer m.mu.Unlock()
	if remaining == 0 {
		m.removeLocked(r.id)
		return
	}
	// The departed user may be matched again while the opponent stays.
	m.unindexLocked(uid, r.id)
}

// List returns all live rooms ordered by ID
func (m *Manager) List() []*Room {
	m.mu.Lock()
	result := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		result = append(result, r)
	}
	m.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

// Count returns the number of live rooms
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
