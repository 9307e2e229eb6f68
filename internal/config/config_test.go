package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qargo/dashboard/internal/company"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Server.Codec)
	assert.Equal(t, 30*time.Minute, cfg.Session.Duration)
	assert.Equal(t, time.Minute, cfg.Session.CheckInterval)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, company.DefaultEndpoint, cfg.Company.Endpoint)
	assert.Zero(t, cfg.Company.Timeout)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, 20, cfg.Server.MaxConnectionsPerIP)
	assert.True(t, cfg.Server.Metrics)
	assert.False(t, cfg.Server.TrustProxy)
	assert.Empty(t, cfg.Audit.File)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	v := viper.New()
	Setup(v, "")

	cfg, err := Load(v)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Server.Addr, cfg.Server.Addr)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, want.Timeouts, cfg.Timeouts)
	assert.Equal(t, want.Session, cfg.Session)
	assert.Equal(t, want.Store, cfg.Store)
	assert.Equal(t, want.Company, cfg.Company)
	assert.Equal(t, want.UI, cfg.UI)
	assert.Equal(t, want.Logging, cfg.Logging)
	assert.Equal(t, want.Audit, cfg.Audit)
	assert.Equal(t, want.Server.MaxConnectionsPerIP, cfg.Server.MaxConnectionsPerIP)
	assert.True(t, cfg.Server.Metrics)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  codec: msgpack
  allowed_origins:
    - https://dash.example.com
session:
  duration: 45m
store:
  driver: file
  dir: /var/lib/dashboard
company:
  timeout: 5s
ui:
  theme: neon
audit:
  file: /var/log/dashboard/audit.log
`), 0o600))

	t.Setenv("DASHBOARD_LOGGING_LEVEL", "debug")
	t.Setenv("DASHBOARD_SERVER_ADDR", ":7070")
	t.Setenv("DASHBOARD_SERVER_TRUST_PROXY", "true")

	v := viper.New()
	Setup(v, path)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "environment wins over the file")
	assert.Equal(t, "msgpack", cfg.Server.Codec)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 45*time.Minute, cfg.Session.Duration)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/dashboard", cfg.Store.Dir)
	assert.Equal(t, 5*time.Second, cfg.Company.Timeout)
	assert.Equal(t, "neon", cfg.UI.Theme)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Server.TrustProxy)
	assert.Equal(t, "/var/log/dashboard/audit.log", cfg.Audit.File)
	assert.Equal(t, time.Minute, cfg.Session.CheckInterval, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	Setup(v, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: pink\nstore:\n  driver: redis\n"), 0o600))

	v := viper.New()
	Setup(v, path)

	_, err := Load(v)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"bad codec", func(c *Config) { c.Server.Codec = "xml" }, "server.codec"},
		{"short session key", func(c *Config) { c.Server.SessionKey = "short" }, "server.session_key"},
		{"negative rate", func(c *Config) { c.Server.LoginRateLimit = -1 }, "server.login_rate_limit"},
		{"negative per-ip connections", func(c *Config) { c.Server.MaxConnectionsPerIP = -1 }, "server.max_connections_per_ip"},
		{"zero read timeout", func(c *Config) { c.Timeouts.Read = 0 }, "timeouts.read"},
		{"zero websocket write", func(c *Config) { c.Timeouts.WebSocketWrite = 0 }, "timeouts.websocket_write"},
		{"zero session", func(c *Config) { c.Session.Duration = 0 }, "session.duration"},
		{"file store without dir", func(c *Config) { c.Store.Driver = StoreFile; c.Store.Dir = "" }, "store.dir"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, "store.driver"},
		{"relative endpoint", func(c *Config) { c.Company.Endpoint = "/company" }, "company.endpoint"},
		{"negative company timeout", func(c *Config) { c.Company.Timeout = -time.Second }, "company.timeout"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "pink" }, "ui.theme"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationError_HidesSessionKey(t *testing.T) {
	cfg := Default()
	cfg.Server.SessionKey = "hunter2"

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.NotContains(t, errs[0].Error(), "hunter2")
}

func TestTimeoutsLive(t *testing.T) {
	live := Default().Timeouts.Live()
	assert.NoError(t, live.Validate())
	assert.Equal(t, 10*time.Second, live.ComponentEvent)
}
