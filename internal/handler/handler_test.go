package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/handler/dto"
	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/middleware"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/session"
	"github.com/inkpost/inkpost/internal/testutil/memstore"
)

const testCookie = "inkpost_session"

type testApp struct {
	router   *chi.Mux
	articles *memstore.Articles
	metrics  *metrics.InMemoryRecorder
}

type denyLimiter struct{}

func (denyLimiter) CheckIPRateLimit(ctx context.Context, ip string, rps float64, burst int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: false, RetryAfter: 7 * time.Second}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, mutate ...func(*RouterConfig)) *testApp {
	t.Helper()

	logger := discardLogger()
	views, err := NewRenderer(logger)
	require.NoError(t, err)

	hasher, err := auth.NewHasher(auth.HasherConfig{
		Algorithm:     auth.AlgorithmArgon2id,
		Argon2Time:    1,
		Argon2Memory:  8 * 1024,
		Argon2Threads: 1,
		BcryptCost:    4,
	})
	require.NoError(t, err)

	recorder := metrics.NewInMemory()
	articleStore := memstore.NewArticles()

	cfg := RouterConfig{
		Logger:   logger,
		Views:    views,
		Articles: service.NewArticleService(articleStore, recorder),
		Accounts: service.NewAccountService(memstore.NewAccounts(), hasher, recorder),
		Sessions: session.NewManager(session.NewMemoryStore(), time.Hour),
		Metrics:  recorder,
		Cookie:   CookieConfig{Name: testCookie},
		Security: middleware.SecurityConfig{IsDevelopment: true, MaxRequestBodySize: 1 << 20},
		CORS:     middleware.DefaultCORSConfig(),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	return &testApp{
		router:   NewRouter(cfg),
		articles: articleStore,
		metrics:  recorder,
	}
}

func (a *testApp) do(t *testing.T, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) doJSON(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.do(t, req, cookie)
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req, cookie)
}

// signIn registers an account and logs in, returning the session cookie.
func (a *testApp) signIn(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	rec := a.doJSON(t, http.MethodPost, "/user", dto.CreateAccountRequest{Email: email, Password: password}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.postForm(t, "/login", url.Values{"username": {email}, "password": {password}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/articles", rec.Header().Get("Location"))

	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", testCookie)
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRouter_UnauthenticatedRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/articles", "/articles/1", "/new-article", "/api/articles", "/api/articles/1", "/nowhere"} {
		t.Run(path, func(t *testing.T) {
			rec := app.do(t, httptest.NewRequest(http.MethodGet, path, nil), nil)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		})
	}

	rec := app.doJSON(t, http.MethodPost, "/api/articles", dto.ArticleRequest{Title: "t"}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, app.articles.Len())
}

func TestRouter_UnknownSessionCookieRedirects(t *testing.T) {
	app := newTestApp(t)
	cookie := &http.Cookie{Name: testCookie, Value: "not-a-real-token"}

	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/articles", nil), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRouter_PublicPages(t *testing.T) {
	app := newTestApp(t)

	testCases := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/login", "text/html", `action="/login"`},
		{"/signup", "text/html", `action="/user"`},
		{"/healthz", "application/json", `"ok"`},
		{"/static/css/app.css", "text/css", ".site-header"},
		{"/static/js/article.js", "javascript", "/api/articles"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rec := app.do(t, httptest.NewRequest(http.MethodGet, tc.path, nil), nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tc.contentType)
			assert.Contains(t, rec.Body.String(), tc.contains)
		})
	}
}

func TestRouter_LoginPageMessages(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/login?error", nil), nil)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")

	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/login?registered", nil), nil)
	assert.Contains(t, rec.Body.String(), "Account created.")
}

func TestRouter_SignupJSON(t *testing.T) {
	app := newTestApp(t)

	rec := app.doJSON(t, http.MethodPost, "/user", dto.CreateAccountRequest{Email: "Writer@Example.com", Password: "long-enough"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	account := decodeBody[dto.AccountResponse](t, rec)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "writer@example.com", account.Email)

	rec = app.doJSON(t, http.MethodPost, "/user", dto.CreateAccountRequest{Email: "writer@example.com", Password: "long-enough"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", decodeBody[dto.ErrorResponse](t, rec).Code)

	rec = app.doJSON(t, http.MethodPost, "/user", dto.CreateAccountRequest{Email: "short@example.com", Password: "short"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeBody[dto.ErrorResponse](t, rec)
	assert.Equal(t, "VALIDATION_FAILED", errResp.Code)
	assert.Equal(t, "password", errResp.Field)

	assert.Equal(t, uint64(1), app.metrics.Snapshot().AccountsRegistered)
}

func TestRouter_SignupForm(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{"email": {"form@example.com"}, "password": {"long-enough"}}

	rec := app.postForm(t, "/user", form, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login"))

	rec = app.postForm(t, "/user", form, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")
	assert.Contains(t, rec.Body.String(), `value="form@example.com"`)

	rec = app.postForm(t, "/user", url.Values{"email": {"not-an-email"}, "password": {"long-enough"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestRouter_Login(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "reader@example.com", "long-enough")

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
	assert.Equal(t, 1, int(app.metrics.Snapshot().LoginAttempts[metrics.LoginSuccess]))

	// Already signed in: the login page bounces to the list.
	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
}

func TestRouter_LoginAcceptsEmailField(t *testing.T) {
	app := newTestApp(t)
	rec := app.doJSON(t, http.MethodPost, "/user", dto.CreateAccountRequest{Email: "alt@example.com", Password: "long-enough"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.postForm(t, "/login", url.Values{"email": {"alt@example.com"}, "password": {"long-enough"}}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
}

func TestRouter_LoginFailure(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "reader@example.com", "long-enough")

	testCases := []struct {
		name string
		form url.Values
	}{
		{"wrong password", url.Values{"username": {"reader@example.com"}, "password": {"not-the-one"}}},
		{"unknown email", url.Values{"username": {"ghost@example.com"}, "password": {"long-enough"}}},
		{"empty form", url.Values{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.postForm(t, "/login", tc.form, nil)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login?error", rec.Header().Get("Location"))
			assert.Empty(t, rec.Result().Cookies())
		})
	}

	assert.Equal(t, uint64(3), app.metrics.Snapshot().LoginAttempts[metrics.LoginFailure])
}

func TestRouter_LoginRateLimited(t *testing.T) {
	app := newTestApp(t, func(cfg *RouterConfig) {
		cfg.RateLimit = middleware.RateLimitConfig{Limiter: denyLimiter{}, Enabled: true, RPS: 1, Burst: 1}
	})

	rec := app.postForm(t, "/login", url.Values{"username": {"a@example.com"}, "password": {"long-enough"}}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("Retry-After"))
	assert.Equal(t, uint64(1), app.metrics.Snapshot().LoginAttempts[metrics.LoginRateLimited])

	// Page loads are never limited.
	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Logout(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "reader@example.com", "long-enough")

	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/articles", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login"))
	expired := sessionCookie(t, rec)
	assert.Empty(t, expired.Value)
	assert.Negative(t, expired.MaxAge)

	// The old cookie no longer opens anything.
	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/articles", nil), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, uint64(1), app.metrics.Snapshot().Logouts)
}

func TestRouter_ArticleAPI(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "author@example.com", "long-enough")

	rec := app.doJSON(t, http.MethodGet, "/api/articles", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = app.doJSON(t, http.MethodPost, "/api/articles", dto.ArticleRequest{Title: "title", Content: "content"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[dto.ArticleResponse](t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "title", created.Title)
	assert.Equal(t, "content", created.Content)

	articlePath := "/api/articles/" + strconv.FormatInt(created.ID, 10)

	rec = app.doJSON(t, http.MethodGet, articlePath, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeBody[dto.ArticleResponse](t, rec).ID)

	rec = app.doJSON(t, http.MethodPut, articlePath, dto.ArticleRequest{Title: "after_title", Content: "after_content"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[dto.ArticleResponse](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "after_title", updated.Title)
	assert.Equal(t, "after_content", updated.Content)

	rec = app.doJSON(t, http.MethodGet, "/api/articles", nil, cookie)
	list := decodeBody[[]dto.ArticleResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "after_title", list[0].Title)

	rec = app.doJSON(t, http.MethodDelete, articlePath, nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = app.doJSON(t, http.MethodGet, articlePath, nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decodeBody[dto.ErrorResponse](t, rec)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
	assert.Equal(t, "not found:"+strconv.FormatInt(created.ID, 10), errResp.Error)

	// Deleting again is still fine.
	rec = app.doJSON(t, http.MethodDelete, articlePath, nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	snap := app.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.ArticlesCreated)
	assert.Equal(t, uint64(1), snap.ArticlesUpdated)
}

func TestRouter_ArticleAPIErrors(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "author@example.com", "long-enough")

	testCases := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"update missing", http.MethodPut, "/api/articles/99", dto.ArticleRequest{Title: "t"}, http.StatusNotFound, "NOT_FOUND"},
		{"bad id", http.MethodGet, "/api/articles/abc", nil, http.StatusBadRequest, "INVALID_ID"},
		{"zero id", http.MethodDelete, "/api/articles/0", nil, http.StatusBadRequest, "INVALID_ID"},
		{"blank title", http.MethodPost, "/api/articles", dto.ArticleRequest{Title: "  "}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown api path", http.MethodGet, "/api/nothing", nil, http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodPatch, "/api/articles/1", nil, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.doJSON(t, tc.method, tc.path, tc.body, cookie)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, decodeBody[dto.ErrorResponse](t, rec).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := app.do(t, req, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", decodeBody[dto.ErrorResponse](t, rec).Code)
}

func TestRouter_ArticleViews(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "author@example.com", "long-enough")

	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))

	rec = app.doJSON(t, http.MethodPost, "/api/articles", dto.ArticleRequest{Title: "<b>Hello</b>", Content: "first post"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := strconv.FormatInt(decodeBody[dto.ArticleResponse](t, rec).ID, 10)

	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/articles", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "&lt;b&gt;Hello&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Hello</b>")
	assert.Contains(t, body, "author@example.com")
	assert.Contains(t, body, `href="/articles/`+id+`"`)

	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/articles/"+id, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first post")
	assert.Contains(t, rec.Body.String(), `data-id="`+id+`"`)

	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/new-article", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="create-btn"`)

	rec = app.do(t, httptest.NewRequest(http.MethodGet, "/new-article?id="+id, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="modify-btn"`)
	assert.Contains(t, rec.Body.String(), "first post")

	for _, path := range []string{"/articles/999", "/articles/abc", "/new-article?id=999", "/nowhere"} {
		rec = app.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	prom := metrics.NewPrometheus()
	app := newTestApp(t, func(cfg *RouterConfig) {
		cfg.Metrics = prom
		cfg.MetricsHandler = prom.Handler()
	})
	app.signIn(t, "counted@example.com", "long-enough")

	rec := app.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inkpost_auth_login_attempts_total{status="success"} 1`)
}
