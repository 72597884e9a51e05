// Package config loads the throttled service configuration from YAML and
// THROTTLE_-prefixed environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/campushub/throttle/pkg/limiter"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig          `mapstructure:"server"`
	Redis   RedisConfig           `mapstructure:"redis"`
	Store   StoreConfig           `mapstructure:"store"`
	Logging LoggingConfig         `mapstructure:"logging"`
	Rules   map[string]RuleConfig `mapstructure:"rules"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig contains the fast-backend client configuration.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	OpTimeout   time.Duration `mapstructure:"op_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// StoreConfig contains the durable-backend (libsql) configuration.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// RuleConfig is one named rate-limit rule callers can reference by name.
type RuleConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Limiter converts a rule into a limiter policy scoped to the given endpoint.
func (r RuleConfig) Limiter(endpoint string) limiter.Config {
	return limiter.Config{
		MaxRequests: r.MaxRequests,
		Window:      time.Duration(r.WindowSeconds) * time.Second,
		Endpoint:    endpoint,
	}
}

// Validate rejects configurations the limiter treats as caller bugs rather
// than runtime conditions.
func (c *Config) Validate() error {
	for name, rule := range c.Rules {
		if rule.MaxRequests <= 0 {
			return fmt.Errorf("rule %q: max_requests must be > 0", name)
		}
		if rule.WindowSeconds <= 0 {
			return fmt.Errorf("rule %q: window_seconds must be > 0", name)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}
