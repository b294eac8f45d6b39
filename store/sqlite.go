package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const userColumns = `id, username, password_hash, score, total_count, win_count`

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db   *sql.DB
	cost int
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, cost: bcrypt.DefaultCost}, nil
}

// Close releases the database handle
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Insert(ctx context.Context, username, password string) (User, error) {
	hash, err := hashPassword(username, password, s.cost)
	if err != nil {
		return User{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, score) VALUES (?, ?, ?)`,
		username, hash, InitialScore)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrDuplicateUser
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return User{ID: uint64(id), Username: username, PasswordHash: hash, Score: InitialScore}, nil
}

func (s *SQLite) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.GetByName(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := checkPassword(u, password); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *SQLite) GetByID(ctx context.Context, id uint64) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLite) GetByName(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (s *SQLite) RecordWin(ctx context.Context, id uint64) error {
	return s.update(ctx, id,
		`UPDATE users SET score = score + ?, total_count = total_count + 1, win_count = win_count + 1 WHERE id = ?`)
}

func (s *SQLite) RecordLoss(ctx context.Context, id uint64) error {
	return s.update(ctx, id,
		`UPDATE users SET score = score - ?, total_count = total_count + 1 WHERE id = ?`)
}

func (s *SQLite) update(ctx context.Context, id uint64, query string) error {
	res, err := s.db.ExecContext(ctx, query, ScoreDelta, id)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Score, &u.TotalCount, &u.WinCount)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
