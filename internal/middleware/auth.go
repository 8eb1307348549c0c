package middleware

import (
	"context"
	"errors"
	"net/http"

	"reflections/internal/auth"
	"reflections/internal/entity"
	"reflections/internal/session"
)

type IdentityChecker interface {
	Check(ctx context.Context, id auth.Identity) error
}

// RequireAuth loads the caller's session into the request context and sends
// anonymous callers to the login form. A session whose identity no longer
// passes the checker is cleared.
func RequireAuth(sessions *session.Manager, checker IdentityChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sessions.Load(r)
			if !s.Authenticated {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			err := checker.Check(r.Context(), auth.Identity{UserID: s.UserID, Username: s.Username, Role: s.Role})
			if errors.Is(err, auth.ErrInvalidCredentials) {
				sessions.Clear(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

// RequireRoles must run after RequireAuth.
func RequireRoles(allowedRoles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.FromContext(r.Context())

			for _, role := range allowedRoles {
				if s.Authenticated && s.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Access denied", http.StatusForbidden)
		})
	}
}
