package store

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Memory is an in-process Store. Data is lost when the process exits.
type Memory struct {
	mu     sync.RWMutex
	users  map[uint64]User
	byName map[string]uint64
	nextID uint64
	cost   int
}

// NewMemory creates an empty in-memory store. Passwords are hashed with the
// minimum bcrypt cost.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[uint64]User),
		byName: make(map[string]uint64),
		nextID: 1,
		cost:   bcrypt.MinCost,
	}
}

func (m *Memory) Insert(_ context.Context, username, password string) (User, error) {
	hash, err := hashPassword(username, password, m.cost)
	if err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[username]; ok {
		return User{}, ErrDuplicateUser
	}
	u := User{ID: m.nextID, Username: username, PasswordHash: hash, Score: InitialScore}
	m.users[u.ID] = u
	m.byName[username] = u.ID
	m.nextID++
	return u, nil
}

func (m *Memory) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := m.GetByName(ctx, username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := checkPassword(u, password); err != nil {
		return User{}, err
	}
	return u, nil
}

func (m *Memory) GetByID(_ context.Context, id uint64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *Memory) GetByName(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *Memory) RecordWin(_ context.Context, id uint64) error {
	return m.update(id, func(u *User) {
		u.Score += ScoreDelta
		u.TotalCount++
		u.WinCount++
	})
}

func (m *Memory) RecordLoss(_ context.Context, id uint64) error {
	return m.update(id, func(u *User) {
		u.Score -= ScoreDelta
		u.TotalCount++
	})
}

func (m *Memory) update(id uint64, fn func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

// Close is a no-op
func (m *Memory) Close() error { return nil }
