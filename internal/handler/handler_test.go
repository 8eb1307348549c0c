package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"reflections/internal/auth"
	"reflections/internal/config"
	"reflections/internal/database"
	"reflections/internal/entity"
	"reflections/internal/metrics"
	"reflections/internal/repository"
	"reflections/internal/session"
)

type testApp struct {
	router      http.Handler
	db          *sql.DB
	users       *repository.UserRepository
	reflections *repository.ReflectionRepository
}

func newTestApp(t *testing.T, shared bool) *testApp {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "app.db")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.InitSchema(db, "sqlite"))

	users := repository.NewUserRepository(db)
	reflections := repository.NewReflectionRepository(db)

	var authenticator auth.Authenticator = auth.NewAccountAuthenticator(users)
	if shared {
		authenticator = auth.NewSharedAuthenticator("12345")
	} else {
		_, err = users.Seed(context.Background(), entity.DefaultRoster(), false)
		require.NoError(t, err)
	}

	sessions, err := session.NewManager(session.Options{})
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		Auth:        authenticator,
		Sessions:    sessions,
		Reflections: reflections,
		DB:          db,
		Metrics:     metrics.New(),
		Log:         zaptest.NewLogger(t),
	})

	return &testApp{router: router, db: db, users: users, reflections: reflections}
}

// browser keeps cookies between requests like a real client would.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.app.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}

	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil)
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, target, form)
}

func (b *browser) login(username, password string) *httptest.ResponseRecorder {
	return b.post("/login", url.Values{"username": {username}, "password": {password}})
}

func submission(difficulty, sentiment, category, comment string) url.Values {
	return url.Values{
		"difficulty": {difficulty},
		"sentiment":  {sentiment},
		"category":   {category},
		"comment":    {comment},
	}
}

func TestIndex_AnonymousSeesLoginForm(t *testing.T) {
	b := newTestApp(t, false).browser(t)

	rec := b.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="username"`)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	b := newTestApp(t, false).browser(t)

	for _, creds := range [][2]string{{"profesor", "wrong"}, {"nobody", "admin123"}} {
		rec := b.login(creds[0], creds[1])
		require.Equal(t, http.StatusSeeOther, rec.Code)

		location := rec.Header().Get("Location")
		assert.True(t, strings.HasPrefix(location, "/login?error=invalid_credentials"), location)

		page := b.get(location)
		assert.Equal(t, http.StatusUnauthorized, page.Code)
		assert.Contains(t, page.Body.String(), "Invalid username or password.")
	}

	assert.Equal(t, http.StatusSeeOther, b.get("/reflections").Code, "still anonymous")
}

func TestLogin_UsernameSurroundingSpacesIgnored(t *testing.T) {
	b := newTestApp(t, false).browser(t)

	rec := b.login("  profesor ", "admin123")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/reflections", rec.Header().Get("Location"))

	b2 := newTestApp(t, false).browser(t)
	rec = b2.login("Profesor", "admin123")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?error=invalid_credentials"))
}

func TestLogin_AdminLandsOnAdminView(t *testing.T) {
	b := newTestApp(t, false).browser(t)

	rec := b.login("profesor", "admin123")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/reflections", rec.Header().Get("Location"))

	rec = b.get("/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/reflections", rec.Header().Get("Location"))

	rec = b.get("/admin/reflections")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No reflections have been submitted yet.")

	assert.Equal(t, http.StatusForbidden, b.get("/reflections").Code)
}

func TestStudent_SubmitAndList(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)

	rec := b.login("lopez", "pass123")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/reflections", rec.Header().Get("Location"))

	rec = b.post("/reflections", submission("3", "4", "Content", "ok"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/reflections?submitted=1", rec.Header().Get("Location"))

	page := b.get("/reflections?submitted=1")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Reflection submitted.")
	assert.Contains(t, page.Body.String(), "<td>ok</td>")

	user, err := app.users.Authenticate(context.Background(), "lopez", "pass123")
	require.NoError(t, err)

	refs, err := app.reflections.ListForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.NotZero(t, refs[0].ID)
	assert.Equal(t, 3, refs[0].Difficulty)
	assert.Equal(t, 4, refs[0].Sentiment)
	assert.Equal(t, entity.CategoryContent, refs[0].Category)
	assert.Equal(t, "ok", refs[0].Comment)

	assert.Equal(t, http.StatusForbidden, b.get("/admin/reflections").Code)
}

func TestStudent_CommentStoredAsTyped(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)
	b.login("lopez", "pass123")

	require.Equal(t, http.StatusSeeOther, b.post("/reflections", submission("2", "2", "Other", "  indented\nsecond line ")).Code)
	require.Equal(t, http.StatusSeeOther, b.post("/reflections", submission("2", "2", "Other", " \n\t ")).Code)

	all, err := app.reflections.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "", all[0].Comment)
	assert.Equal(t, "  indented\nsecond line ", all[1].Comment)
}

func TestStudent_SeesOnlyOwnReflections(t *testing.T) {
	app := newTestApp(t, false)

	lopez := app.browser(t)
	lopez.login("lopez", "pass123")
	lopez.post("/reflections", submission("2", "2", "Time", "from-lopez"))

	segura := app.browser(t)
	segura.login("segura", "pass123")
	segura.post("/reflections", submission("5", "1", "Exercises", "from-segura"))

	body := lopez.get("/reflections").Body.String()
	assert.Contains(t, body, "from-lopez")
	assert.NotContains(t, body, "from-segura")
}

func TestStudent_InvalidSubmission(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)
	b.login("lopez", "pass123")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"difficulty out of range", submission("9", "3", "Content", ""), "difficulty"},
		{"missing sentiment", submission("2", "", "Content", ""), "sentiment"},
		{"unknown category", submission("2", "3", "Homework", ""), "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := b.post("/reflections", tt.form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Please choose a valid")
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	all, err := app.reflections.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStudent_Filters(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)
	b.login("lopez", "pass123")

	b.post("/reflections", submission("1", "5", "Content", "easy-one"))
	b.post("/reflections", submission("4", "2", "Other", "hard-one"))

	body := b.get("/reflections?filtered=1&difficulty=4&difficulty=5&sentiment=1&sentiment=2&sentiment=3&sentiment=4&sentiment=5").Body.String()
	assert.Contains(t, body, "hard-one")
	assert.NotContains(t, body, "easy-one")
	assert.Contains(t, body, "Showing 1 of 2")

	body = b.get("/reflections?filtered=1").Body.String()
	assert.Contains(t, body, "No reflection matches the selected filters.")
}

func TestAdmin_SeesEverythingAndFiltersByUser(t *testing.T) {
	app := newTestApp(t, false)

	for _, s := range []struct{ user, comment string }{{"lopez", "from-lopez"}, {"segura", "from-segura"}} {
		b := app.browser(t)
		b.login(s.user, "pass123")
		require.Equal(t, http.StatusSeeOther, b.post("/reflections", submission("3", "3", "Time", s.comment)).Code)
	}

	admin := app.browser(t)
	admin.login("profesor", "admin123")

	body := admin.get("/admin/reflections").Body.String()
	assert.Contains(t, body, "from-lopez")
	assert.Contains(t, body, "from-segura")
	assert.Less(t, strings.Index(body, "from-segura"), strings.Index(body, "from-lopez"), "newest first")

	q := url.Values{"filtered": {"1"}, "user": {"lopez"}}
	for v := 1; v <= 5; v++ {
		q.Add("difficulty", string(rune('0'+v)))
		q.Add("sentiment", string(rune('0'+v)))
	}
	body = admin.get("/admin/reflections?" + q.Encode()).Body.String()
	assert.Contains(t, body, "from-lopez")
	assert.NotContains(t, body, "from-segura")
}

func TestLogout_ShowsLoginFormAgain(t *testing.T) {
	b := newTestApp(t, false).browser(t)

	b.login("profesor", "admin123")
	require.Equal(t, http.StatusOK, b.get("/admin/reflections").Code)

	rec := b.post("/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?message=logged_out", rec.Header().Get("Location"))

	page := b.get("/")
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `name="password"`)
	assert.NotContains(t, page.Body.String(), "All reflections")

	rec = b.get("/admin/reflections")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestSharedMode(t *testing.T) {
	app := newTestApp(t, true)
	b := app.browser(t)

	page := b.get("/")
	assert.NotContains(t, page.Body.String(), `name="username"`)

	rec := b.post("/login", url.Values{"password": {"nope"}})
	assert.Contains(t, rec.Header().Get("Location"), "error=invalid_credentials")

	rec = b.post("/login", url.Values{"password": {"12345"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/reflections", rec.Header().Get("Location"))

	require.Equal(t, http.StatusSeeOther, b.post("/reflections", submission("2", "5", "Exercises", "anonymous note")).Code)

	all, err := app.reflections.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Anonymous())

	other := app.browser(t)
	other.post("/login", url.Values{"password": {"12345"}})
	body := other.get("/reflections").Body.String()
	assert.Contains(t, body, "Submitted reflections")
	assert.Contains(t, body, "anonymous note")
}

func TestHealthAndMetrics(t *testing.T) {
	b := newTestApp(t, false).browser(t)

	rec := b.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	b.login("profesor", "wrong")
	rec = b.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `reflections_login_attempts_total{result="failure"} 1`)
}
