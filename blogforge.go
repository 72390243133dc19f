// Package blogforge is the browser-facing server of an AI blog generator.
// It holds each browser's session token, gates pages on it, and calls the
// generation backend on the user's behalf: preview a source URL, generate a
// post, and browse the posts generated so far.
//
// Page markup comes from the ViewFuncs struct, which defaults to the views
// package; blogforge handles sessions, routing and the backend workflow.
package blogforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/blogforge/apiclient"
	"github.com/eringen/blogforge/guard"
	"github.com/eringen/blogforge/views"
	"github.com/eringen/blogforge/workflow"
)

// ViewFuncs holds the page components the server renders. Nil fields are
// filled from the views package.
type ViewFuncs struct {
	Landing     func(p views.Page) templ.Component
	Login       func(p views.Page, f views.AuthForm) templ.Component
	Signup      func(p views.Page, f views.AuthForm) templ.Component
	Dashboard   func(p views.Page, d views.DashboardData) templ.Component
	Generator   func(p views.Page, d views.GeneratorData) templ.Component
	History     func(p views.Page, d views.HistoryData) templ.Component
	Blog        func(p views.Page, d views.BlogData) templ.Component
	BlogError   func(p views.Page, msg string, backPage int) templ.Component
	Loading     func(p views.Page) templ.Component
	NotFound    func(p views.Page) templ.Component
	ServerError func(p views.Page) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Landing == nil {
		v.Landing = views.Landing
	}
	if v.Login == nil {
		v.Login = views.Login
	}
	if v.Signup == nil {
		v.Signup = views.Signup
	}
	if v.Dashboard == nil {
		v.Dashboard = views.Dashboard
	}
	if v.Generator == nil {
		v.Generator = views.Generator
	}
	if v.History == nil {
		v.History = views.History
	}
	if v.Blog == nil {
		v.Blog = views.BlogView
	}
	if v.BlogError == nil {
		v.BlogError = views.BlogError
	}
	if v.Loading == nil {
		v.Loading = views.Loading
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// API is the backend surface the handlers use. *apiclient.Client
// implements it.
type API interface {
	Signup(ctx context.Context, email, password string) (apiclient.AuthResponse, error)
	Login(ctx context.Context, email, password string) (apiclient.AuthResponse, error)
	Me(ctx context.Context) (apiclient.User, error)
	GetBlogByID(ctx context.Context, id string) (apiclient.BlogRecord, error)
	workflow.Previewer
	workflow.Creator
	workflow.HistoryLoader
}

// App is the central blogforge application. It wires together the session
// backend, the backend client, workflow state, middleware and views.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Logger    *slog.Logger
	Views     ViewFuncs
	Workflows *workflow.Registry

	slots        SlotProvider
	newAPI       func(tokens apiclient.TokenSource) API
	httpClient   *http.Client
	authLimiter  *AuthLimiter
	customRoutes []func(*App)
	stops        []func()
	ready        bool
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		httpClient: &http.Client{},
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.Environment, os.Stdout)
	}
	a.Views.setDefaults()
	return a
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// Setup validates the configuration and builds the session backend,
// workflow registry, middleware and routes. Start calls it when needed;
// tests call it directly and serve a.Echo.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("blogforge: %w", err)
	}

	if a.slots == nil {
		slots, err := a.newSlotProvider()
		if err != nil {
			return err
		}
		a.slots = slots
	}
	if a.newAPI == nil {
		a.newAPI = a.defaultAPI
	}

	a.authLimiter = NewAuthLimiter(5, time.Minute)
	a.stops = append(a.stops, a.authLimiter.Stop)

	a.Workflows = workflow.NewRegistry(a.Config.WorkflowTTL)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) defaultAPI(tokens apiclient.TokenSource) API {
	return apiclient.New(a.Config.APIURL, tokens,
		apiclient.WithHTTPClient(a.httpClient),
		apiclient.WithLogger(a.Logger),
		apiclient.WithRequestTimeout(a.Config.RequestTimeout),
	)
}

// api returns a backend client authenticated with the request's session.
func (a *App) api(c echo.Context) API {
	return a.newAPI(SessionFor(c))
}

// Start sets the app up, starts background maintenance and serves until
// the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.startMaintenance()

	a.Logger.Info("starting server",
		"addr", a.Config.Addr,
		"api", a.Config.APIURL,
		"session_backend", a.Config.SessionBackend,
	)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) startMaintenance() {
	interval := a.Config.WorkflowTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	a.stops = append(a.stops, a.Workflows.StartSweeper(interval))

	if p, ok := a.slots.(*sqliteSlots); ok {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n, err := p.prune(a.Config.SessionTTL); err != nil {
						a.Logger.Warn("prune session tokens", "error", err)
					} else if n > 0 {
						a.Logger.Info("pruned session tokens", "count", n)
					}
				case <-done:
					return
				}
			}
		}()
		a.stops = append(a.stops, func() { close(done) })
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", handleHealthz)

	publicOnly := a.guard(guard.PublicOnly)
	e.GET("/", a.handleLanding, publicOnly)
	e.GET("/login/", a.handleLoginPage, publicOnly)
	e.POST("/login/", a.handleLogin, publicOnly)
	e.GET("/signup/", a.handleSignupPage, publicOnly)
	e.POST("/signup/", a.handleSignup, publicOnly)
	e.POST("/logout/", a.handleLogout, a.guard(guard.Public))

	protected := a.guard(guard.Protected)
	e.GET("/dashboard/", a.handleDashboard, protected)
	e.GET("/generate/", a.handleGeneratorPage, protected)
	e.POST("/generate/preview/", a.handlePreview, protected)
	e.POST("/generate/", a.handleGenerate, protected)
	e.GET("/history/", a.handleHistory, protected)
	e.GET("/blog/:id/", a.handleBlog, protected)
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	for _, stop := range a.stops {
		stop()
	}
	a.stops = nil
	if a.slots != nil {
		return a.slots.Close()
	}
	return nil
}
