package handler

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"reflections/internal/auth"
	"reflections/internal/metrics"
	"reflections/internal/session"
)

var loginMessages = map[string]string{
	"logged_out": "You have been logged out.",
}

var loginErrors = map[string]string{
	"invalid_credentials": "Invalid username or password.",
	"session_error":       "Could not start the session, please try again.",
}

type LoginHandler struct {
	auth     auth.Authenticator
	sessions *session.Manager
	metrics  *metrics.Metrics
	log      *zap.Logger
	tmpl     *template.Template
}

func NewLoginHandler(a auth.Authenticator, sessions *session.Manager, m *metrics.Metrics, log *zap.Logger) *LoginHandler {
	return &LoginHandler{
		auth:     a,
		sessions: sessions,
		metrics:  m,
		log:      log,
		tmpl:     parsePage("login.html"),
	}
}

// LoginPage shows the login form, or sends an authenticated caller to the
// page for their role.
func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Load(r)
	if s.Authenticated {
		http.Redirect(w, r, homeFor(s.Role), http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	status := http.StatusOK
	if q.Get("error") != "" {
		status = http.StatusUnauthorized
	}

	render(w, h.log, h.tmpl, status, map[string]interface{}{
		"Title":        "Sign in",
		"Username":     "",
		"LoggedIn":     false,
		"AskUsername":  h.auth.RequiresUsername(),
		"FormUsername": q.Get("username"),
		"Message":      loginMessages[q.Get("message")],
		"Error":        loginErrors[q.Get("error")],
	})
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form", http.StatusBadRequest)
		return
	}

	// stray spaces from the input box are dropped; the lookup itself is exact
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	identity, err := h.auth.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.metrics.LoginFailed()
		h.log.Info("login failed", zap.String("username", username))

		http.Redirect(w, r, "/login?error=invalid_credentials&username="+url.QueryEscape(username), http.StatusSeeOther)
		return
	}
	if err != nil {
		h.log.Error("login lookup failed", zap.String("username", username), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s := session.Session{
		Authenticated: true,
		UserID:        identity.UserID,
		Username:      identity.Username,
		Role:          identity.Role,
	}
	if err := h.sessions.Save(w, r, s); err != nil {
		h.log.Error("saving session failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=session_error", http.StatusSeeOther)
		return
	}

	h.metrics.LoginSucceeded()
	h.log.Info("login",
		zap.Int("user_id", identity.UserID),
		zap.String("username", identity.Username),
		zap.String("role", string(identity.Role)),
	)

	http.Redirect(w, r, homeFor(identity.Role), http.StatusSeeOther)
}

// Logout drops the session and returns to the login form.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.log.Warn("clearing session failed", zap.Error(err))
	}

	http.Redirect(w, r, "/login?message=logged_out", http.StatusSeeOther)
}
