package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type IndexHandler struct {
	db  Pinger
	log *zap.Logger
}

func NewIndexHandler(db Pinger, log *zap.Logger) *IndexHandler {
	return &IndexHandler{db: db, log: log}
}

// Health reports whether the store answers.
func (i *IndexHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := i.db.PingContext(r.Context()); err != nil {
		i.log.Error("health check failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
