package handler

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"reflections/internal/entity"
	"reflections/internal/filter"
	"reflections/internal/templates"
)

var funcMap = template.FuncMap{
	"difficultyLabel": entity.DifficultyLabel,
	"userLabel": func(username string) string {
		if username == "" {
			return "(anonymous)"
		}
		return username
	},
}

// parsePage parses one page together with the shared layout.
func parsePage(name string) *template.Template {
	return template.Must(template.New(name).
		Funcs(funcMap).
		ParseFS(templates.FS, "layout.html", name))
}

func render(w http.ResponseWriter, log *zap.Logger, tmpl *template.Template, status int, data map[string]interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := tmpl.Execute(w, data); err != nil {
		log.Error("template render failed", zap.String("template", tmpl.Name()), zap.Error(err))
	}
}

// homeFor is where a logged in user lands.
func homeFor(role entity.Role) string {
	switch role {
	case entity.RoleAdmin:
		return "/admin/reflections"
	case entity.RoleStudent:
		return "/reflections"
	default:
		return "/login"
	}
}

type checkboxGroup struct {
	Legend  string
	Name    string
	Options []filter.Option
}
