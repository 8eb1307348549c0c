package handler

import (
	"context"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"reflections/internal/entity"
	"reflections/internal/filter"
	"reflections/internal/session"
)

type ReflectionLister interface {
	ListAll(ctx context.Context) ([]entity.Reflection, error)
}

type AdminHandler struct {
	reflections ReflectionLister
	log         *zap.Logger
	tmpl        *template.Template
}

func NewAdminHandler(reflections ReflectionLister, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		reflections: reflections,
		log:         log,
		tmpl:        parsePage("admin.html"),
	}
}

// AllReflections lists every reflection, filterable by user, difficulty and
// sentiment.
func (h *AdminHandler) AllReflections(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	rows, err := h.reflections.ListAll(r.Context())
	if err != nil {
		h.log.Error("listing all reflections failed", zap.Error(err))
		http.Error(w, "Could not load reflections", http.StatusInternalServerError)
		return
	}

	criteria := filter.Parse(r.URL.Query())

	render(w, h.log, h.tmpl, http.StatusOK, map[string]interface{}{
		"Title":        "All reflections",
		"Username":     s.Username,
		"LoggedIn":     true,
		"Rows":         filter.Apply(rows, criteria),
		"Total":        len(rows),
		"EmptyMessage": "No reflections have been submitted yet.",
		"UserFilter": checkboxGroup{
			Legend:  "User",
			Name:    "user",
			Options: filter.UsernameOptions(filter.Usernames(rows), criteria.Usernames),
		},
		"DifficultyFilter": checkboxGroup{
			Legend:  "Difficulty",
			Name:    "difficulty",
			Options: filter.ScaleOptions(criteria.Difficulties, entity.DifficultyLabel),
		},
		"SentimentFilter": checkboxGroup{
			Legend:  "Sentiment",
			Name:    "sentiment",
			Options: filter.ScaleOptions(criteria.Sentiments, nil),
		},
	})
}
