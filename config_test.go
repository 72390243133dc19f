package blogforge

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteConfigDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()

	assert.Equal(t, "AI Blog Generator", cfg.Name)
	assert.Equal(t, "http://localhost:10000/api", cfg.APIURL)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, BackendCookie, cfg.SessionBackend)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.WorkflowTTL)
	assert.False(t, cfg.IsProduction())
}

func TestSiteConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SiteConfig)
		wantErr string
	}{
		{"valid", func(*SiteConfig) {}, ""},
		{"missing secret", func(c *SiteConfig) { c.SessionSecret = "" }, "session secret is required"},
		{"bad api url", func(c *SiteConfig) { c.APIURL = "localhost:10000" }, "invalid api url"},
		{"unknown backend", func(c *SiteConfig) { c.SessionBackend = "memcache" }, "invalid session backend"},
		{"redis without url", func(c *SiteConfig) { c.SessionBackend = BackendRedis }, "redis url is required"},
		{"bad environment", func(c *SiteConfig) { c.Environment = "staging" }, "invalid environment"},
		{"bad log level", func(c *SiteConfig) { c.LogLevel = "trace" }, "invalid log level"},
		{"negative timeout", func(c *SiteConfig) { c.RequestTimeout = -time.Second }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SiteConfig{SessionSecret: "secret"}
			cfg.setDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("BLOGFORGE_API_URL", "https://api.example.com/api")
	t.Setenv("SESSION_BACKEND", BackendSQLite)
	t.Setenv("REQUEST_TIMEOUT", "30")
	t.Setenv("WORKFLOW_TTL", "10m")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SessionSecret)
	assert.Equal(t, "https://api.example.com/api", cfg.APIURL)
	assert.Equal(t, BackendSQLite, cfg.SessionBackend)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.WorkflowTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("info", "json", "development", &buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger("info", "text", "development", &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	NewLogger("warn", "text", "development", &buf).Info("dropped")
	assert.Empty(t, buf.String())
}
