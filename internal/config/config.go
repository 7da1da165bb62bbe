// Package config loads service configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "BLOGAPI_"

type Config struct {
	Addr     string   `yaml:"addr"`
	DiagAddr string   `yaml:"diag_addr"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Cache    Cache    `yaml:"cache"`
}

type Redis struct {
	Addr         string        `yaml:"addr"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type Postgres struct {
	// DSN is optional; when empty the service runs on the in-memory store
	// with fixture data.
	DSN string `yaml:"dsn"`
}

type Cache struct {
	// TTL bounds the lifetime of all three shadow entities. FlushEvery is
	// the view-counter write-back threshold: the count goes durable on
	// every read where count % FlushEvery == 0.
	TTL        time.Duration `yaml:"ttl"`
	FlushEvery int64         `yaml:"flush_every"`
}

func Default() Config {
	return Config{
		Addr:     ":3333",
		DiagAddr: ":9999",
		Redis: Redis{
			Addr:         "localhost:6379",
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: Cache{
			TTL:        24 * time.Hour,
			FlushEvery: 10,
		},
	}
}

// Load builds the effective configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Addr = GetEnv("ADDR", cfg.Addr)
	cfg.DiagAddr = GetEnv("DIAG_ADDR", cfg.DiagAddr)
	cfg.Redis.Addr = GetEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Postgres.DSN = GetEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.FlushEvery = int64(getEnvInt("CACHE_FLUSH_EVERY", int(cfg.Cache.FlushEvery)))

	if cfg.Cache.FlushEvery <= 0 {
		return cfg, fmt.Errorf("cache.flush_every must be positive, got %d", cfg.Cache.FlushEvery)
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, fmt.Errorf("cache.ttl must be positive, got %s", cfg.Cache.TTL)
	}

	return cfg, nil
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}

	return d
}
