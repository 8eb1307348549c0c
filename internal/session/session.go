package session

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"reflections/internal/entity"
)

const cookieName = "app-session"

// Session is the caller's login state for one request.
type Session struct {
	Authenticated bool
	UserID        int
	Username      string
	Role          entity.Role
}

func (s Session) IsAdmin() bool {
	return s.Authenticated && s.Role == entity.RoleAdmin
}

// OwnerID returns the id to attribute reflections to, or nil for the
// anonymous shared-passphrase login.
func (s Session) OwnerID() *int {
	if !s.Authenticated || s.UserID == 0 {
		return nil
	}
	id := s.UserID
	return &id
}

type Manager struct {
	store *sessions.CookieStore
}

type Options struct {
	// Key is a hex encoded signing key. Empty means a fresh random key, so
	// sessions do not survive a restart.
	Key    string
	MaxAge int
	Secure bool
}

func NewManager(opts Options) (*Manager, error) {
	var key []byte
	if opts.Key == "" {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("generating session key")
		}
	} else {
		decoded, err := hex.DecodeString(opts.Key)
		if err != nil {
			return nil, fmt.Errorf("SESSION_KEY must be hex: %w", err)
		}
		if len(decoded) < 32 {
			return nil, fmt.Errorf("SESSION_KEY must be at least 32 bytes, got %d", len(decoded))
		}
		key = decoded
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{store: store}, nil
}

// Load decodes the session cookie. A missing, expired or forged cookie
// yields an anonymous Session.
func (m *Manager) Load(r *http.Request) Session {
	gs, err := m.store.Get(r, cookieName)
	if err != nil {
		return Session{}
	}

	userID, _ := gs.Values["user_id"].(int)
	username, _ := gs.Values["username"].(string)
	role, _ := gs.Values["role"].(string)
	authenticated, _ := gs.Values["authenticated"].(bool)

	if !authenticated || !entity.Role(role).Valid() {
		return Session{}
	}

	return Session{
		Authenticated: true,
		UserID:        userID,
		Username:      username,
		Role:          entity.Role(role),
	}
}

func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s Session) error {
	// a stale cookie signed with an older key is simply replaced
	gs, _ := m.store.Get(r, cookieName)

	gs.Values["authenticated"] = s.Authenticated
	gs.Values["user_id"] = s.UserID
	gs.Values["username"] = s.Username
	gs.Values["role"] = string(s.Role)

	return gs.Save(r, w)
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	gs, _ := m.store.Get(r, cookieName)
	for k := range gs.Values {
		delete(gs.Values, k)
	}
	gs.Options.MaxAge = -1

	return gs.Save(r, w)
}

type ctxKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Session stored by NewContext, or an anonymous one.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(ctxKey{}).(Session)
	return s
}
