package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "90s" or
// "24h".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads the config file at path, falling back to defaults when path is
// empty or the file does not exist, then applies environment overrides and
// validates. A present but malformed file is an error; serving with silently
// ignored config is worse than failing startup.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override the common knobs
// without editing the config file.
func applyEnvOverrides(cfg *Config) {
	cfg.Server.Addr = GetEnvString("SCREEND_ADDR", cfg.Server.Addr)
	cfg.Batch.Workers = GetEnvInt("SCREEND_BATCH_WORKERS", cfg.Batch.Workers)
	cfg.RateLimit.RedisAddr = GetEnvString("SCREEND_REDIS_ADDR", cfg.RateLimit.RedisAddr)
	cfg.RateLimit.RequestsPerMinute = GetEnvInt("SCREEND_RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.WatchConfig = GetEnvBool("SCREEND_WATCH_CONFIG", cfg.WatchConfig)
	if v := GetEnvDuration("SCREEND_REFRESH_INTERVAL", cfg.Feeds.RefreshInterval.Std()); v != cfg.Feeds.RefreshInterval.Std() {
		cfg.Feeds.RefreshInterval = Duration(v)
	}
	if v := GetEnvFloat("SCREEND_MINIMUM_SCORE", cfg.Scoring.Weights.MinimumScore); v != cfg.Scoring.Weights.MinimumScore {
		cfg.Scoring.Weights.MinimumScore = v
	}
}

// GetEnvString returns the env var value or the default when unset.
func GetEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// GetEnvInt returns the env var parsed as int, or the default when unset or
// invalid.
func GetEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetEnvFloat returns the env var parsed as float64, or the default when
// unset or invalid.
func GetEnvFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// GetEnvBool returns the env var parsed as bool, or the default when unset
// or invalid.
func GetEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetEnvDuration returns the env var parsed as a duration, or the default
// when unset or invalid.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
