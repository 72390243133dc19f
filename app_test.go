package blogforge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogforge/guard"
	"github.com/eringen/blogforge/session"
	"github.com/eringen/blogforge/views"
)

// backend is a fake generation API recording what it receives.
type backend struct {
	*httptest.Server

	mu             sync.Mutex
	calls          map[string]int
	authHeaders    map[string]string
	meStatus       int
	generateStatus int
	generateBody   map[string]any
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		calls:       make(map[string]int),
		authHeaders: make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.record("login", r)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized", "message": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "tok-123",
			"message":      "Login successful",
			"user":         map[string]string{"id": "u1", "email": body["email"]},
		})
	})
	mux.HandleFunc("POST /api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		b.record("signup", r)
		writeJSON(w, http.StatusCreated, map[string]any{
			"access_token": "tok-new",
			"user":         map[string]string{"id": "u2", "email": "new@example.com"},
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.record("me", r)
		b.mu.Lock()
		status := b.meStatus
		b.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": "Unauthorized", "message": "Token has expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1", "email": "ada@example.com"}})
	})
	mux.HandleFunc("POST /api/blog/preview", func(w http.ResponseWriter, r *http.Request) {
		b.record("preview", r)
		writeJSON(w, http.StatusOK, map[string]any{"preview": map[string]any{
			"title": "Example Domain", "word_count": 120, "keywords": []string{"example"},
		}})
	})
	mux.HandleFunc("POST /api/blog/generate", func(w http.ResponseWriter, r *http.Request) {
		b.record("generate", r)
		b.mu.Lock()
		status := b.generateStatus
		_ = json.NewDecoder(r.Body).Decode(&b.generateBody)
		b.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"blog": map[string]any{"id": "blog-9", "title": "Post"}})
	})
	mux.HandleFunc("GET /api/blog/history", func(w http.ResponseWriter, r *http.Request) {
		b.record("history", r)
		writeJSON(w, http.StatusOK, map[string]any{
			"history": []map[string]any{{
				"id":             "blog-1",
				"website_url":    "https://example.com",
				"generated_blog": "# Hello\n\nworld",
				"keywords":       []string{"hello"},
				"created_at":     "2024-03-01T09:30:00",
			}},
			"total": 1,
			"limit": 10,
			"skip":  0,
		})
	})
	mux.HandleFunc("GET /api/blog/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record("blog", r)
		if r.PathValue("id") != "blog-1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found", "message": "Blog not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blog": map[string]any{
			"id":             "blog-1",
			"website_url":    "https://example.com",
			"generated_blog": "# Hello\n\nSome **bold** words",
			"keywords":       []string{"hello"},
		}})
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *backend) record(op string, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[op]++
	b.authHeaders[op] = r.Header.Get("Authorization")
}

func (b *backend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *backend) auth(op string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authHeaders[op]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(b *backend) SiteConfig {
	return SiteConfig{
		APIURL:        b.URL + "/api",
		SessionSecret: "test-secret-test-secret-test-sec",
		Environment:   "testing",
	}
}

func newTestApp(t *testing.T, cfg SiteConfig, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	a := New(cfg, opts...)
	require.NoError(t, a.Setup())
	srv := httptest.NewServer(a.Echo)
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return srv
}

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (br *browser) get(path string) (*http.Response, string) {
	br.t.Helper()
	resp, err := br.client.Get(br.base + path)
	require.NoError(br.t, err)
	return resp, readBody(br.t, resp)
}

func (br *browser) post(path string, form url.Values) (*http.Response, string) {
	br.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", br.csrf())
	resp, err := br.client.PostForm(br.base+path, form)
	require.NoError(br.t, err)
	return resp, readBody(br.t, resp)
}

// csrf returns the token from the _csrf cookie, fetching a page first if
// the cookie has not been issued yet.
func (br *browser) csrf() string {
	u, _ := url.Parse(br.base)
	for i := 0; i < 2; i++ {
		for _, c := range br.client.Jar.Cookies(u) {
			if c.Name == "_csrf" {
				return c.Value
			}
		}
		resp, err := br.client.Get(br.base + "/healthz")
		require.NoError(br.t, err)
		resp.Body.Close()
		resp, err = br.client.Get(br.base + "/login/")
		require.NoError(br.t, err)
		resp.Body.Close()
	}
	br.t.Fatalf("no csrf cookie issued")
	return ""
}

func (br *browser) login() {
	br.t.Helper()
	resp, _ := br.post("/login/", url.Values{"email": {"ada@example.com"}, "password": {"secret"}})
	require.Equal(br.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(br.t, "/dashboard/", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestProtectedPagesRedirectWhenSignedOut(t *testing.T) {
	srv := newTestApp(t, testConfig(newBackend(t)))
	br := newBrowser(t, srv.URL)

	for _, path := range []string{"/dashboard/", "/generate/", "/history/", "/blog/blog-1/"} {
		resp, _ := br.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/", resp.Header.Get("Location"), path)
	}

	resp, body := br.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Get Started Free")
}

func TestLoginThenHistoryCarriesToken(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)

	br.login()
	assert.Empty(t, b.auth("login"), "login must be sent without a bearer token")

	resp, body := br.get("/history/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok-123", b.auth("history"))
	assert.Contains(t, body, "https://example.com")
	assert.Contains(t, body, `href="/blog/blog-1/"`)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp, _ = br.get("/login/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/", resp.Header.Get("Location"))
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)

	resp, body := br.post("/login/", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid email or password")
	assert.Contains(t, body, `value="ada@example.com"`)

	resp, _ = br.get("/dashboard/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestAuthLimitedAfterBackendRejections(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)
	wrong := url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}

	for i := 0; i < 5; i++ {
		resp, _ := br.post("/login/", wrong)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}
	require.Equal(t, 5, b.count("login"))

	resp, body := br.post("/login/", url.Values{"email": {"ada@example.com"}, "password": {"secret"}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many attempts")

	resp, _ = br.post("/signup/", url.Values{
		"email":            {"new@example.com"},
		"password":         {"same"},
		"confirm_password": {"same"},
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	assert.Equal(t, 5, b.count("login"), "blocked attempts must not reach the backend")
	assert.Zero(t, b.count("signup"))
}

func TestAuthLimiterIgnoresNetworkErrors(t *testing.T) {
	b := newBackend(t)
	cfg := testConfig(b)
	b.Close()
	srv := newTestApp(t, cfg)
	br := newBrowser(t, srv.URL)

	for i := 0; i < 7; i++ {
		resp, _ := br.post("/login/", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}})
		require.Equal(t, http.StatusBadGateway, resp.StatusCode, "attempt %d", i+1)
	}
}

func TestAuthLimiterIgnoresLocalValidation(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)

	for i := 0; i < 6; i++ {
		resp, _ := br.post("/login/", url.Values{"email": {""}, "password": {""}})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "attempt %d", i+1)
		resp, _ = br.post("/signup/", url.Values{
			"email":            {"new@example.com"},
			"password":         {"one"},
			"confirm_password": {"two"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "attempt %d", i+1)
	}
	assert.Zero(t, b.count("login"))
	assert.Zero(t, b.count("signup"))

	br.login()
}

func TestLoginRequiresCSRF(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))

	resp, err := http.PostForm(srv.URL+"/login/", url.Values{"email": {"a@b.c"}, "password": {"secret"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, b.count("login"))
}

func TestSignupPasswordMismatchSendsNothing(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)

	resp, body := br.post("/signup/", url.Values{
		"email":            {"new@example.com"},
		"password":         {"one"},
		"confirm_password": {"two"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Passwords do not match")
	assert.Zero(t, b.count("signup"))

	resp, _ = br.post("/signup/", url.Values{
		"email":            {"new@example.com"},
		"password":         {"same"},
		"confirm_password": {"same"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, b.auth("signup"))
}

func TestLogoutClearsSession(t *testing.T) {
	srv := newTestApp(t, testConfig(newBackend(t)))
	br := newBrowser(t, srv.URL)
	br.login()

	resp, _ := br.post("/logout/", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = br.get("/dashboard/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// Logging out twice is harmless.
	resp, _ = br.post("/logout/", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestRejectedTokenIsNotCleared(t *testing.T) {
	b := newBackend(t)
	b.meStatus = http.StatusUnauthorized
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)
	br.login()

	resp, body := br.get("/dashboard/")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Token has expired")
	assert.Contains(t, body, `action="/logout/"`)

	resp, _ = br.get("/history/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok-123", b.auth("history"))
}

var formIDPattern = regexp.MustCompile(`name="form_id" value="([^"]+)"`)

func openGenerator(t *testing.T, br *browser) string {
	t.Helper()
	resp, body := br.get("/generate/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := formIDPattern.FindStringSubmatch(body)
	require.Len(t, m, 2)
	return m[1]
}

func TestGenerateFlow(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)
	br.login()
	formID := openGenerator(t, br)

	resp, body := br.post("/generate/", url.Values{"form_id": {formID}, "url": {""}, "length": {"1000"}, "tone": {"casual"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "URL is required")
	assert.Zero(t, b.count("generate"))

	resp, body = br.post("/generate/preview/", url.Values{"form_id": {formID}, "url": {"https://example.com"}, "length": {"1200"}, "tone": {"casual"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Example Domain")
	assert.Contains(t, body, `value="1200"`)
	assert.Contains(t, body, `<option value="casual" selected>`)
	assert.Equal(t, "Bearer tok-123", b.auth("preview"))

	resp, _ = br.post("/generate/", url.Values{
		"form_id":     {formID},
		"url":         {"https://example.com"},
		"length":      {"1200"},
		"tone":        {"casual"},
		"include_cta": {"true"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/blog/blog-9/", resp.Header.Get("Location"))
	assert.Equal(t, 1, b.count("generate"))
	assert.Equal(t, map[string]any{
		"url": "https://example.com", "length": float64(1200), "tone": "casual", "include_cta": true,
	}, b.generateBody)
}

func TestGenerateServerErrorStaysOnForm(t *testing.T) {
	b := newBackend(t)
	b.generateStatus = http.StatusInternalServerError
	srv := newTestApp(t, testConfig(b))
	br := newBrowser(t, srv.URL)
	br.login()
	formID := openGenerator(t, br)

	resp, body := br.post("/generate/", url.Values{"form_id": {formID}, "url": {"https://example.com"}, "length": {"1000"}, "tone": {"professional"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "Failed to generate blog. Please try again.")
	assert.Contains(t, body, `>Generate Blog</button>`)
	assert.Equal(t, 1, b.count("generate"))
}

func TestBlogView(t *testing.T) {
	srv := newTestApp(t, testConfig(newBackend(t)))
	br := newBrowser(t, srv.URL)
	br.login()

	resp, body := br.get("/blog/blog-1/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<p><h1>Hello</h1></p><p>Some <strong>bold</strong> words</p>")

	resp, body = br.get("/blog/missing/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Blog not found")
	assert.Contains(t, body, "Back to History")
}

type brokenSlots struct{}

func (brokenSlots) Slot(echo.Context, string) session.Slot { return brokenSlot{} }
func (brokenSlots) Close() error                           { return nil }

type brokenSlot struct{}

func (brokenSlot) Load(context.Context) (string, bool, error) { return "", false, errors.New("down") }
func (brokenSlot) Save(context.Context, string) error         { return errors.New("down") }
func (brokenSlot) Delete(context.Context) error               { return errors.New("down") }

func TestPendingSessionShowsPlaceholder(t *testing.T) {
	b := newBackend(t)
	srv := newTestApp(t, testConfig(b), WithSlotProvider(brokenSlots{}))
	br := newBrowser(t, srv.URL)

	for _, path := range []string{"/dashboard/", "/login/", "/"} {
		resp, body := br.get(path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
		assert.Contains(t, body, "Loading...", path)
		assert.NotContains(t, body, "Welcome", path)
	}
	assert.Zero(t, b.count("me"))
}

func TestSQLiteSessionSurvivesRestart(t *testing.T) {
	b := newBackend(t)
	cfg := testConfig(b)
	cfg.SessionBackend = BackendSQLite
	cfg.SessionDBPath = filepath.Join(t.TempDir(), "sessions.db")

	first := newTestApp(t, cfg)
	br := newBrowser(t, first.URL)
	br.login()

	second := newTestApp(t, cfg)
	// Carry the browser's cookies over to the second server.
	u1, _ := url.Parse(first.URL)
	u2, _ := url.Parse(second.URL)
	br.client.Jar.SetCookies(u2, br.client.Jar.Cookies(u1))
	br.base = second.URL

	resp, _ := br.get("/history/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok-123", b.auth("history"))
}

func TestHealthz(t *testing.T) {
	srv := newTestApp(t, testConfig(newBackend(t)))
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, `"ok"`))
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	srv := newTestApp(t, testConfig(newBackend(t)))
	resp, err := http.Get(srv.URL + "/nope/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestCustomViewsAndRoutes(t *testing.T) {
	landing := func(p views.Page) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "custom landing for "+p.Site.Name)
			return err
		})
	}
	srv := newTestApp(t, testConfig(newBackend(t)),
		WithViews(ViewFuncs{Landing: landing}),
		WithCustomRoutes(func(a *App) {
			a.Echo.GET("/about/", func(c echo.Context) error {
				return c.String(http.StatusOK, "about "+a.Config.Name)
			}, a.guard(guard.Public))
		}),
	)
	br := newBrowser(t, srv.URL)

	resp, body := br.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "custom landing for AI Blog Generator", body)

	resp, body = br.get("/login/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password"`)

	resp, body = br.get("/about/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "about AI Blog Generator", body)
}
