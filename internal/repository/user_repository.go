package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reflections/internal/entity"
	"reflections/internal/password"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Seed inserts the roster once: nothing happens if the users table already
// has rows. Usernames that already exist are skipped. It returns how many
// users were inserted.
func (r *UserRepository) Seed(ctx context.Context, roster []entity.SeedUser, hashPasswords bool) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	for _, u := range roster {
		secret := u.Password
		if hashPasswords {
			secret, err = password.Hash(u.Password)
			if err != nil {
				return 0, fmt.Errorf("hashing password for %s: %w", u.Username, err)
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, password, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (username) DO NOTHING
		`, u.Username, secret, string(u.Role))
		if err != nil {
			return 0, fmt.Errorf("inserting user %s: %w", u.Username, err)
		}

		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}

// Authenticate looks the user up by exact username and checks the password.
// Any mismatch yields ErrInvalidCredentials.
func (r *UserRepository) Authenticate(ctx context.Context, username, given string) (entity.User, error) {
	var u entity.User

	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password, role
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Password, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return entity.User{}, err
	}

	if !password.Verify(u.Password, given) {
		return entity.User{}, ErrInvalidCredentials
	}

	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (entity.User, error) {
	var u entity.User

	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password, role
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Password, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, ErrNotFound
	}

	return u, err
}
