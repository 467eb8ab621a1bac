package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Pitwall configuration.
type Config struct {
	Listen string       `yaml:"listen"`
	DBPath string       `yaml:"db_path"`
	Origin OriginConfig `yaml:"origin"`
	Cache  CacheConfig  `yaml:"cache"`
	Sweep  SweepConfig  `yaml:"sweep"`
}

// OriginConfig points at the upstream timing API.
type OriginConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig controls the cache layers.
type CacheConfig struct {
	// DiagnosticLogging enables per-request log and analytics writes.
	DiagnosticLogging bool        `yaml:"diagnostic_logging"`
	Local             LocalConfig `yaml:"local"`
}

// LocalConfig selects and sizes the local tier. Backend is "memory"
// (in-process) or "redis" (shared across instances).
type LocalConfig struct {
	Backend       string `yaml:"backend"`
	MaxBytes      int64  `yaml:"max_bytes"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// SweepConfig controls the expiry sweep cadence.
type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "pitwall.db",
		Origin: OriginConfig{
			BaseURL: "https://api.openf1.org",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			DiagnosticLogging: true,
			Local: LocalConfig{
				Backend:  "memory",
				MaxBytes: 64 << 20,
			},
		},
		Sweep: SweepConfig{
			Interval: 24 * time.Hour,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Cache.Local.Backend != "memory" && cfg.Cache.Local.Backend != "redis" {
		return nil, fmt.Errorf("unknown local cache backend %q", cfg.Cache.Local.Backend)
	}
	return cfg, nil
}
