// Package store persists gobang user accounts and their match records.
//
// Two implementations are provided: SQLite backs a real server, Memory backs
// tests and throwaway runs. Both hash passwords with bcrypt and never return
// the plain password.
package store

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Score bookkeeping for finished games.
const (
	InitialScore = 1000
	ScoreDelta   = 30
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingCredentials = errors.New("username/password required")
)

// User is a registered player. PasswordHash is never serialized.
type User struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Score        int    `json:"score"`
	TotalCount   int    `json:"total_count"`
	WinCount     int    `json:"win_count"`
}

// Store is the user store used by the server.
type Store interface {
	Insert(ctx context.Context, username, password string) (User, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
	GetByID(ctx context.Context, id uint64) (User, error)
	GetByName(ctx context.Context, username string) (User, error)
	RecordWin(ctx context.Context, id uint64) error
	RecordLoss(ctx context.Context, id uint64) error
	Close() error
}

// hashPassword validates the credentials and returns the bcrypt hash.
func hashPassword(username, password string, cost int) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", ErrMissingCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(u User, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
