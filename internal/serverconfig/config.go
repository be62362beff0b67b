// Package serverconfig loads the embeddable server's runtime configuration
// from environment variables; an embedder may instead build a Config in
// code (starting from Default) and pass it to mcpserver.Build. Grounded
// on internal/config/loader.go's koanf env.Provider precedence pattern,
// trimmed to env-only (no YAML file, no path/permission
// validation machinery -- an embedded library has no config file of its
// own to protect).
package serverconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/mcpserver/internal/limits"
)

// Config is the full set of knobs an embedder can override via
// MCPSERVER_-prefixed environment variables.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Limits          limits.Limits `koanf:"limits"`
	NATSURL         string        `koanf:"nats_url"` // empty disables distributed notification fan-out
	LogLevel        string        `koanf:"log_level"`
}

// Default returns the configuration an embedder gets with no environment
// overrides at all.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		Limits:          limits.Default(),
		LogLevel:        "info",
	}
}

const envPrefix = "MCPSERVER_"

// Load reads MCPSERVER_* environment variables over Default(), e.g.
// MCPSERVER_HTTP_ADDR, MCPSERVER_SHUTDOWN_TIMEOUT, MCPSERVER_NATS_URL,
// MCPSERVER_LOG_LEVEL, and MCPSERVER_LIMITS__MAX_SESSIONS (double
// underscore separates the nested limits section from its field name).
func Load() (Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		trimmed := strings.TrimPrefix(s, envPrefix)
		lower := strings.ToLower(trimmed)
		return strings.ReplaceAll(lower, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment config: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot safely start with.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of debug|info|warning|error, got %q", c.LogLevel)
	}
	return nil
}
