package handler

import (
	"net/http"

	"go.uber.org/zap"

	"reflections/internal/auth"
	"reflections/internal/entity"
	"reflections/internal/metrics"
	"reflections/internal/middleware"
	"reflections/internal/session"
)

type Dependencies struct {
	Auth        auth.Authenticator
	Sessions    *session.Manager
	Reflections ReflectionStore
	DB          Pinger
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	login := NewLoginHandler(deps.Auth, deps.Sessions, deps.Metrics, deps.Log)
	reflections := NewReflectionHandler(deps.Reflections, deps.Metrics, deps.Log)
	admin := NewAdminHandler(deps.Reflections, deps.Log)
	index := NewIndexHandler(deps.DB, deps.Log)

	students := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.RequireAuth(deps.Sessions, deps.Auth), middleware.RequireRoles(entity.RoleStudent))
	}
	admins := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.RequireAuth(deps.Sessions, deps.Auth), middleware.RequireRoles(entity.RoleAdmin))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", login.LoginPage)
	mux.HandleFunc("GET /login", login.LoginPage)
	mux.HandleFunc("POST /login", login.Login)
	mux.HandleFunc("POST /logout", login.Logout)
	mux.HandleFunc("GET /logout", login.Logout)

	mux.Handle("GET /reflections", students(reflections.Page))
	mux.Handle("POST /reflections", students(reflections.Submit))
	mux.Handle("GET /admin/reflections", admins(admin.AllReflections))

	mux.HandleFunc("GET /healthz", index.Health)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	return middleware.Chain(mux,
		middleware.RequestLogger(deps.Log, deps.Metrics),
		middleware.Recover(deps.Log),
	)
}
