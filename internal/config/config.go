// Package config loads the dashboard configuration from defaults, an
// optional YAML file and DASHBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/pkg/core"
)

// EnvPrefix prefixes every environment override, e.g. DASHBOARD_SERVER_ADDR.
const EnvPrefix = "DASHBOARD"

// Config is the full dashboard configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Session  SessionConfig  `mapstructure:"session"`
	Store    StoreConfig    `mapstructure:"store"`
	Company  CompanyConfig  `mapstructure:"company"`
	Users    UsersConfig    `mapstructure:"users"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// SessionKey signs session cookies. A random key is generated when
	// empty, which logs everyone out on restart.
	SessionKey     string   `mapstructure:"session_key"`
	SecureCookies  bool     `mapstructure:"secure_cookies"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Codec is the live wire codec: json or msgpack.
	Codec string `mapstructure:"codec"`
	// LoginRateLimit is how many login and sign-up posts one client may
	// make per minute. Zero disables the limit.
	LoginRateLimit int `mapstructure:"login_rate_limit"`
	// MaxConnections caps open live connections. Health checks report
	// degraded once it is reached. Zero means unlimited.
	MaxConnections int `mapstructure:"max_connections"`
	// MaxConnectionsPerIP caps open live connections per client address.
	// Zero means unlimited.
	MaxConnectionsPerIP int `mapstructure:"max_connections_per_ip"`
	// TrustProxy takes client addresses from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxy bool `mapstructure:"trust_proxy"`
	// Metrics serves GET /metrics.
	Metrics bool `mapstructure:"metrics"`
}

// TimeoutsConfig bounds HTTP and live connection work.
type TimeoutsConfig struct {
	Read           time.Duration `mapstructure:"read"`
	Write          time.Duration `mapstructure:"write"`
	Shutdown       time.Duration `mapstructure:"shutdown"`
	ComponentEvent time.Duration `mapstructure:"component_event"`
	WebSocketRead  time.Duration `mapstructure:"websocket_read"`
	WebSocketWrite time.Duration `mapstructure:"websocket_write"`
}

// Live returns the live runtime timeouts.
func (t TimeoutsConfig) Live() core.TimeoutConfig {
	return core.TimeoutConfig{
		ComponentEvent:   t.ComponentEvent,
		WebSocketRead:    t.WebSocketRead,
		WebSocketWrite:   t.WebSocketWrite,
		GracefulShutdown: t.Shutdown,
	}
}

// SessionConfig controls login lifetime.
type SessionConfig struct {
	Duration      time.Duration `mapstructure:"duration"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
)

// StoreConfig selects the state store backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
}

// CompanyConfig points at the company submission API.
type CompanyConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	// Timeout of zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// UsersConfig controls the initial user list.
type UsersConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// UIConfig holds presentation defaults.
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// AuditConfig controls the security event trail.
type AuditConfig struct {
	// File receives one JSON event per line. Events go to the main log
	// when empty.
	File string `mapstructure:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	live := core.DefaultTimeoutConfig()
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			Codec:          "json",
			LoginRateLimit:      5,
			MaxConnections:      1000,
			MaxConnectionsPerIP: 20,
			Metrics:             true,
		},
		Timeouts: TimeoutsConfig{
			Read:           15 * time.Second,
			Write:          15 * time.Second,
			Shutdown:       live.GracefulShutdown,
			ComponentEvent: live.ComponentEvent,
			WebSocketRead:  live.WebSocketRead,
			WebSocketWrite: live.WebSocketWrite,
		},
		Session: SessionConfig{
			Duration:      30 * time.Minute,
			CheckInterval: time.Minute,
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Dir:    "data",
		},
		Company: CompanyConfig{
			Endpoint: company.DefaultEndpoint,
		},
		UI: UIConfig{
			Theme: theme.Default,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers every default with v so that file and environment
// values only need to override what they change.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_key", d.Server.SessionKey)
	v.SetDefault("server.secure_cookies", d.Server.SecureCookies)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.codec", d.Server.Codec)
	v.SetDefault("server.login_rate_limit", d.Server.LoginRateLimit)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.max_connections_per_ip", d.Server.MaxConnectionsPerIP)
	v.SetDefault("server.trust_proxy", d.Server.TrustProxy)
	v.SetDefault("server.metrics", d.Server.Metrics)

	v.SetDefault("timeouts.read", d.Timeouts.Read)
	v.SetDefault("timeouts.write", d.Timeouts.Write)
	v.SetDefault("timeouts.shutdown", d.Timeouts.Shutdown)
	v.SetDefault("timeouts.component_event", d.Timeouts.ComponentEvent)
	v.SetDefault("timeouts.websocket_read", d.Timeouts.WebSocketRead)
	v.SetDefault("timeouts.websocket_write", d.Timeouts.WebSocketWrite)

	v.SetDefault("session.duration", d.Session.Duration)
	v.SetDefault("session.check_interval", d.Session.CheckInterval)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dir", d.Store.Dir)

	v.SetDefault("company.endpoint", d.Company.Endpoint)
	v.SetDefault("company.timeout", d.Company.Timeout)

	v.SetDefault("users.seed_file", d.Users.SeedFile)

	v.SetDefault("ui.theme", d.UI.Theme)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.json", d.Logging.JSON)

	v.SetDefault("audit.file", d.Audit.File)
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dashboard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dashboard"
	}
	return filepath.Join(home, ".config", "dashboard")
}

// Setup prepares v: defaults, config file lookup and environment binding.
// An explicit cfgFile replaces the search for dashboard.yaml in the
// working directory and ConfigDir.
func Setup(v *viper.Viper, cfgFile string) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the config file if one is found, decodes v and validates the
// result. A missing file is not an error unless it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}
