package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration with the usual layering: built-in defaults, then
// an optional YAML file, then THROTTLE_-prefixed environment variables
// (THROTTLE_REDIS_ADDR overrides redis.addr, and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("THROTTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("throttled")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/throttled")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			// No file is fine; defaults plus environment carry the day.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "1s")
	v.SetDefault("redis.op_timeout", "500ms")
	v.SetDefault("redis.key_prefix", "ratelimit:")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "throttle.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	// The stock presets; config files typically extend rather than replace.
	v.SetDefault("rules", map[string]map[string]int{
		"auth":   {"max_requests": 5, "window_seconds": 60},
		"read":   {"max_requests": 200, "window_seconds": 60},
		"write":  {"max_requests": 50, "window_seconds": 60},
		"upload": {"max_requests": 30, "window_seconds": 60},
	})
}
