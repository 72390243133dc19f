package blogforge

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/blogforge/apiclient"
)

// Session backends.
const (
	BackendCookie = "cookie"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// SiteConfig holds all configuration for a blogforge server.
type SiteConfig struct {
	Name   string // Site name shown in the navigation (default "AI Blog Generator")
	APIURL string // Backend API base URL (default "http://localhost:10000/api")
	Addr   string // Listen address (default ":3000")

	SessionSecret  string // Required: cookie signing secret
	CookieSecure   bool   // Set true for HTTPS
	SessionBackend string // cookie, sqlite or redis (default cookie)
	SessionDBPath  string // SQLite path for the sqlite backend (default "data/sessions.db")
	RedisURL       string // redis:// URL for the redis backend
	SessionTTL     time.Duration

	RequestTimeout time.Duration // Per-request timeout for backend calls except generation (default 15s)
	WorkflowTTL    time.Duration // Idle lifetime of generator and history state (default 1h)

	LogLevel    string // debug, info, warn, error (default info)
	LogFormat   string // text or json (default text)
	Environment string // development, production, testing (default development)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "AI Blog Generator"
	}
	if c.APIURL == "" {
		c.APIURL = "http://localhost:10000/api"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.SessionBackend == "" {
		c.SessionBackend = BackendCookie
	}
	if c.SessionDBPath == "" {
		c.SessionDBPath = "data/sessions.db"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 7 * 24 * time.Hour
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.WorkflowTTL == 0 {
		c.WorkflowTTL = time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Validate checks the configuration after defaults are applied.
func (c *SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("invalid api url: %q", c.APIURL)
	}
	switch c.SessionBackend {
	case BackendCookie, BackendSQLite:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis url is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be cookie, sqlite, or redis)", c.SessionBackend)
	}
	validEnvs := map[string]bool{"development": true, "production": true, "testing": true}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, production, or testing)", c.Environment)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.RequestTimeout < 0 || c.WorkflowTTL < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *SiteConfig) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads configuration from the environment, after loading a
// .env file from the working directory if one exists.
func LoadConfig() (SiteConfig, error) {
	_ = godotenv.Load()

	cfg := SiteConfig{
		Name:           os.Getenv("SITE_NAME"),
		APIURL:         os.Getenv("BLOGFORGE_API_URL"),
		Addr:           os.Getenv("ADDR"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		SessionBackend: os.Getenv("SESSION_BACKEND"),
		SessionDBPath:  os.Getenv("SESSION_DB_PATH"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SessionTTL:     getDurationEnv("SESSION_TTL", 0),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 0),
		WorkflowTTL:    getDurationEnv("WORKFLOW_TTL", 0),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      os.Getenv("LOG_FORMAT"),
		Environment:    os.Getenv("ENVIRONMENT"),
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("blogforge: invalid configuration: %w", err)
	}
	return cfg, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithViews replaces the built-in page components. Nil fields keep their
// defaults.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithSlotProvider replaces the configured session backend.
func WithSlotProvider(p SlotProvider) Option {
	return func(a *App) {
		a.slots = p
	}
}

// WithAPI sets how a request's backend client is built from its session.
// The default is an *apiclient.Client rooted at APIURL.
func WithAPI(fn func(tokens apiclient.TokenSource) API) Option {
	return func(a *App) {
		a.newAPI = fn
	}
}
