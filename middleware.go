package blogforge

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/blogforge/guard"
	"github.com/eringen/blogforge/session"
)

const (
	sessionName  = "blogforge_session"
	browserIDKey = "bid"

	ctxSession   = "blogforge.session"
	ctxBrowserID = "blogforge.browser"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= 500 {
				level = slog.LevelError
			}
			a.Logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; form-action 'self'",
		HSTSMaxAge:            31536000,
	}))

	e.Use(echosession.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		CookieHTTPOnly: true,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return isHealthCheck(c.Request().URL.Path)
		},
	}))

	e.Use(cacheControlMiddleware)
	e.Use(a.sessionMiddleware)
}

// Pages depend on the caller's token, so nothing may be cached by shared
// caches.
func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(a.Config.SessionTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// sessionMiddleware binds a session.Store to every request. The store is
// initialized from the browser's durable slot before any handler or guard
// runs; a failing slot or a missing browser id leaves it pending.
func (a *App) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if isHealthCheck(c.Request().URL.Path) {
			return next(c)
		}
		bid, err := browserID(c)
		store := session.NewStore(a.slots.Slot(c, bid))
		if err != nil {
			a.Logger.Warn("browser id unavailable", "error", err)
		} else if _, err := store.Initialize(c.Request().Context()); err != nil {
			a.Logger.Warn("session slot unavailable", "error", err, "backend", a.Config.SessionBackend)
		}
		c.Set(ctxSession, store)
		c.Set(ctxBrowserID, bid)
		return next(c)
	}
}

// browserID returns the id stored in the session cookie, issuing one on
// first contact.
func browserID(c echo.Context) (string, error) {
	sess, err := cookieSession(c)
	if err != nil {
		return "", err
	}
	if id, ok := sess.Values[browserIDKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[browserIDKey] = id
	return id, sess.Save(c.Request(), c.Response())
}

// SessionFor returns the session bound to the request, or nil outside the
// session middleware.
func SessionFor(c echo.Context) *session.Store {
	s, _ := c.Get(ctxSession).(*session.Store)
	return s
}

// BrowserID returns the id of the browser behind the request.
func BrowserID(c echo.Context) string {
	id, _ := c.Get(ctxBrowserID).(string)
	return id
}

// guard enforces access on a route before its handler renders.
func (a *App) guard(access guard.Access) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := guard.Decide(access, SessionFor(c).Status())
			switch d.Action {
			case guard.Redirect:
				return c.Redirect(http.StatusSeeOther, d.Location)
			case guard.Wait:
				c.Response().Header().Set("Retry-After", "1")
				return RenderStatus(c, http.StatusServiceUnavailable, a.Views.Loading(a.page(c)))
			}
			return next(c)
		}
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

func isHealthCheck(path string) bool {
	return strings.TrimSuffix(path, "/") == "/healthz"
}
