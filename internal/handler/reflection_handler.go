package handler

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"reflections/internal/entity"
	"reflections/internal/filter"
	"reflections/internal/metrics"
	"reflections/internal/session"
)

type ReflectionStore interface {
	Insert(ctx context.Context, ref entity.Reflection) (int, error)
	ListForUser(ctx context.Context, userID int) ([]entity.Reflection, error)
	ListAll(ctx context.Context) ([]entity.Reflection, error)
}

// ReflectionForm is the submitted reflection before it is stored.
type ReflectionForm struct {
	Difficulty int    `validate:"required,min=1,max=5"`
	Sentiment  int    `validate:"required,min=1,max=5"`
	Category   string `validate:"required,oneof=Content Exercises Time Other"`
	Comment    string
}

// defaultForm mirrors the widgets' initial state.
func defaultForm() ReflectionForm {
	return ReflectionForm{
		Difficulty: entity.MinScale,
		Sentiment:  3,
		Category:   string(entity.CategoryContent),
	}
}

func formFromRequest(r *http.Request) ReflectionForm {
	// unparsable numbers stay zero and fail "required"
	difficulty, _ := strconv.Atoi(r.PostFormValue("difficulty"))
	sentiment, _ := strconv.Atoi(r.PostFormValue("sentiment"))

	// comments are kept as typed; whitespace alone counts as no comment
	comment := r.PostFormValue("comment")
	if strings.TrimSpace(comment) == "" {
		comment = ""
	}

	return ReflectionForm{
		Difficulty: difficulty,
		Sentiment:  sentiment,
		Category:   r.PostFormValue("category"),
		Comment:    comment,
	}
}

var fieldNames = map[string]string{
	"Difficulty": "difficulty",
	"Sentiment":  "sentiment",
	"Category":   "category",
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form."
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldNames[fe.Field()])
	}
	return "Please choose a valid " + strings.Join(fields, ", ") + "."
}

type ReflectionHandler struct {
	reflections ReflectionStore
	validate    *validator.Validate
	metrics     *metrics.Metrics
	log         *zap.Logger
	tmpl        *template.Template
}

func NewReflectionHandler(reflections ReflectionStore, m *metrics.Metrics, log *zap.Logger) *ReflectionHandler {
	return &ReflectionHandler{
		reflections: reflections,
		validate:    validator.New(),
		metrics:     m,
		log:         log,
		tmpl:        parsePage("reflections.html"),
	}
}

// Page shows the submission form and the caller's reflections.
func (h *ReflectionHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, defaultForm(), "")
}

func (h *ReflectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form", http.StatusBadRequest)
		return
	}

	s := session.FromContext(r.Context())
	form := formFromRequest(r)

	if err := h.validate.Struct(form); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, form, validationMessage(err))
		return
	}

	ref := entity.NewReflection(s.OwnerID(), form.Difficulty, form.Sentiment, entity.Category(form.Category), form.Comment)
	id, err := h.reflections.Insert(r.Context(), ref)
	if err != nil {
		h.log.Error("storing reflection failed", zap.Int("user_id", s.UserID), zap.Error(err))
		http.Error(w, "Could not save the reflection", http.StatusInternalServerError)
		return
	}

	h.metrics.Submissions.Inc()
	h.log.Info("reflection submitted", zap.Int("id", id), zap.Int("user_id", s.UserID))

	http.Redirect(w, r, "/reflections?submitted=1", http.StatusSeeOther)
}

func (h *ReflectionHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, form ReflectionForm, formError string) {
	s := session.FromContext(r.Context())

	// the shared-passphrase login has no owner and sees every reflection
	var (
		rows []entity.Reflection
		err  error
	)
	if owner := s.OwnerID(); owner != nil {
		rows, err = h.reflections.ListForUser(r.Context(), *owner)
	} else {
		rows, err = h.reflections.ListAll(r.Context())
	}
	if err != nil {
		h.log.Error("listing reflections failed", zap.Int("user_id", s.UserID), zap.Error(err))
		http.Error(w, "Could not load reflections", http.StatusInternalServerError)
		return
	}

	criteria := filter.Parse(r.URL.Query())
	criteria.Usernames = nil

	render(w, h.log, h.tmpl, status, map[string]interface{}{
		"Title":        "My reflections",
		"Username":     s.Username,
		"LoggedIn":     true,
		"Shared":       s.OwnerID() == nil,
		"Submitted":    r.URL.Query().Get("submitted") == "1" && formError == "",
		"Error":        formError,
		"Form":         form,
		"Scale":        entity.ScaleValues(),
		"Categories":   entity.Categories,
		"Rows":         filter.Apply(rows, criteria),
		"Total":        len(rows),
		"EmptyMessage": "You have not submitted any reflection yet.",
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
