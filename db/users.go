// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/danielhkuo/influence-predict/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

const userColumns = `id, username, email, hashed_password, role, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID loads a user by primary key.
func (d *DB) UserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(d.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// UserByUsername loads a user by login name.
func (d *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(d.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// InsertUser stores u, whose ID the caller has set. A zero CreatedAt is set
// to the current time.
func (d *DB) InsertUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := d.ExecContext(ctx, `
		INSERT INTO users (id, username, email, hashed_password, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Email, u.HashedPassword, u.Role, u.CreatedAt)
	return err
}
