// Package auth turns submitted credentials into an Identity.
//
// Two variants exist. AccountAuthenticator checks per-user accounts stored
// in the database. SharedAuthenticator checks a single class passphrase and
// yields an anonymous student identity.
package auth

import (
	"context"
	"errors"

	"reflections/internal/entity"
	"reflections/internal/password"
	"reflections/internal/repository"
)

// ErrInvalidCredentials is the only failure callers show to the user.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Identity is the result of a successful login. UserID is zero for the
// anonymous shared-passphrase identity.
type Identity struct {
	UserID   int
	Username string
	Role     entity.Role
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Identity, error)
	// Check reports whether an identity from an earlier login is still
	// valid. It returns ErrInvalidCredentials when it is not.
	Check(ctx context.Context, id Identity) error
	// RequiresUsername tells the login form whether to show a username field.
	RequiresUsername() bool
}

type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (entity.User, error)
	GetByID(ctx context.Context, id int) (entity.User, error)
}

type AccountAuthenticator struct {
	users UserStore
}

func NewAccountAuthenticator(users UserStore) *AccountAuthenticator {
	return &AccountAuthenticator{users: users}
}

func (a *AccountAuthenticator) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	u, err := a.users.Authenticate(ctx, username, password)
	if errors.Is(err, repository.ErrInvalidCredentials) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}

	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Check fails for users that were removed or whose role changed since login.
func (a *AccountAuthenticator) Check(ctx context.Context, id Identity) error {
	u, err := a.users.GetByID(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	if u.Username != id.Username || u.Role != id.Role {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *AccountAuthenticator) RequiresUsername() bool {
	return true
}

type SharedAuthenticator struct {
	passphrase string
}

func NewSharedAuthenticator(passphrase string) *SharedAuthenticator {
	return &SharedAuthenticator{passphrase: passphrase}
}

// Authenticate ignores username.
func (a *SharedAuthenticator) Authenticate(_ context.Context, _, given string) (Identity, error) {
	if given == "" || !password.Verify(a.passphrase, given) {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{Role: entity.RoleStudent}, nil
}

func (a *SharedAuthenticator) Check(_ context.Context, id Identity) error {
	if id.UserID != 0 || id.Role != entity.RoleStudent {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *SharedAuthenticator) RequiresUsername() bool {
	return false
}
