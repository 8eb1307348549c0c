package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reflections/internal/auth"
	"reflections/internal/config"
	"reflections/internal/database"
	"reflections/internal/handler"
	"reflections/internal/logging"
	"reflections/internal/metrics"
	"reflections/internal/repository"
	"reflections/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reflections: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.InitSchema(db, cfg.Database.Driver); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := repository.NewUserRepository(db)
	reflections := repository.NewReflectionRepository(db)

	var authenticator auth.Authenticator
	switch cfg.Mode {
	case config.ModeShared:
		authenticator = auth.NewSharedAuthenticator(cfg.SharedPassphrase)
	default:
		inserted, err := users.Seed(ctx, cfg.SeedUsers, cfg.HashPasswords)
		if err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}
		if inserted > 0 {
			log.Info("seeded users", zap.Int("count", inserted), zap.Bool("hashed", cfg.HashPasswords))
		}
		authenticator = auth.NewAccountAuthenticator(users)
	}

	sessions, err := session.NewManager(session.Options{
		Key:    cfg.SessionKey,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.SessionSecure,
	})
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.Dependencies{
		Auth:        authenticator,
		Sessions:    sessions,
		Reflections: reflections,
		DB:          db,
		Metrics:     metrics.New(),
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started",
			zap.String("addr", srv.Addr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db_driver", cfg.Database.Driver),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
