package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Forever disables expiry for a session.
const Forever time.Duration = -1

// State is the login state of a session.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// Session is a snapshot of a login session
type Session struct {
	ID        uint64
	UserID    uint64
	State     State
	CreatedAt time.Time
}

// IsLoggedIn reports whether the session belongs to an authenticated user.
func (s Session) IsLoggedIn() bool {
	return s.State == Authenticated
}

// entry is the registry-owned record behind a Session.
type entry struct {
	Session

	timer Timer
	// gen identifies the currently attached timer. A callback carrying an
	// older generation has been detached and must not remove the entry.
	gen  uint64
	dead bool
}

// Manager handles session lifecycle
type Manager struct {
	sessions  map[uint64]*entry
	nextID    uint64
	scheduler Scheduler
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewManager creates a new session manager backed by the runtime timers
func NewManager(logger *zap.Logger) *Manager {
	return NewManagerWithScheduler(logger, RealScheduler{})
}

// NewManagerWithScheduler creates a new session manager that arms its expiry
// timers on the given scheduler
func NewManagerWithScheduler(logger *zap.Logger, scheduler Scheduler) *Manager {
	return &Manager{
		sessions:  make(map[uint64]*entry),
		nextID:    1,
		scheduler: scheduler,
		logger:    logger.Named("session"),
	}
}

// Create allocates the next session ID and stores a new session.
func (m *Manager) Create(userID uint64, state State) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{
		Session: Session{
			ID:        m.nextID,
			UserID:    userID,
			State:     state,
			CreatedAt: time.Now(),
		},
	}
	m.sessions[e.ID] = e
	m.nextID++

	m.logger.Debug("session created", zap.Uint64("ssid", e.ID), zap.Uint64("uid", userID))
	return e.Session
}

// Get retrieves a session by ID
func (m *Manager) Get(id uint64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return e.Session, nil
}

// Remove deletes a session. Unknown IDs are ignored.
func (m *Manager) Remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.dead = true
	delete(m.sessions, id)

	m.logger.Debug("session removed", zap.Uint64("ssid", id))
}

// SetExpiry reconfigures the expiry timer of a session. A duration of
// Forever makes the session permanent; any other duration (re)arms a timer
// that removes the session when it fires.
func (m *Manager) SetExpiry(id uint64, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	switch {
	case e.timer == nil && d == Forever:
		return nil

	case e.timer == nil:
		m.armLocked(e, d)
		return nil
	}

	// Detach first so the cancelled timer cannot act on this entry anymore.
	old := e.timer
	e.timer = nil
	e.gen++
	old.Stop()

	// Reinsertion runs as its own task and never inside the cancellation.
	m.scheduler.AfterFunc(0, func() { m.append(e) })

	if d != Forever {
		m.armLocked(e, d)
	}
	return nil
}

// HasTimer reports whether the session currently has an armed expiry timer.
func (m *Manager) HasTimer(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	return ok && e.timer != nil
}

// List returns a snapshot of all live sessions
func (m *Manager) List() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		result = append(result, e.Session)
	}
	return result
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) armLocked(e *entry, d time.Duration) {
	e.gen++
	id, gen := e.ID, e.gen
	e.timer = m.scheduler.AfterFunc(d, func() { m.expire(id, gen) })
}

// expire is the timer callback. It only removes the session when the timer
// that fired is still the one attached to it.
func (m *Manager) expire(id, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || e.gen != gen || e.timer == nil {
		return
	}
	e.timer = nil
	e.dead = true
	delete(m.sessions, id)

	m.logger.Info("session expired", zap.Uint64("ssid", id), zap.Uint64("uid", e.UserID))
}

// append puts an entry back into the registry unless it has been removed
// or expired in the meantime.
func (m *Manager) append(e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.dead {
		return
	}
	if _, ok := m.sessions[e.ID]; !ok {
		m.sessions[e.ID] = e
	}
}
