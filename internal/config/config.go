// Package config loads service settings from the environment, an optional
// .env file and an optional YAML galaxy file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/starfield/internal/galaxy"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Logging LoggingConfig
	Manager ManagerConfig
	Galaxy  galaxy.Config `validate:"-"` // checked by galaxy.Config.Validate
}

type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	AdminKey       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimit      RateLimitConfig
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gte=1"`
}

type StorageConfig struct {
	SQLitePath  string `validate:"required"`
	RedisURL    string // empty disables the Redis fallback
	RedisPrefix string
}

type LoggingConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	JSONFormat bool
}

type ManagerConfig struct {
	AutosaveInterval time.Duration
	HomeSearchRadius float64 `validate:"gt=0"`
	ChunkRadius      float64 `validate:"gt=0"`
	ChunkMaxSystems  int     `validate:"gte=1"`
	ChunkCacheSize   int     `validate:"gte=1"`
}

var validate = validator.New()

// Load reads .env (if present), the environment and the galaxy file named
// by GALAXY_CONFIG_PATH.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	cfg := &Config{
		Server:  loadServerConfig(),
		Storage: loadStorageConfig(),
		Logging: loadLoggingConfig(),
		Manager: loadManagerConfig(),
	}

	gal, err := loadGalaxyConfig()
	if err != nil {
		return nil, err
	}
	cfg.Galaxy = gal

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Manager.AutosaveInterval < time.Second {
		return errors.New("autosave interval must be at least 1s")
	}
	return c.Galaxy.Validate()
}

func loadServerConfig() ServerConfig {
	var origins []string
	for _, o := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return ServerConfig{
		Port:           getEnv("STARFIELD_PORT", "8080"),
		AdminKey:       getEnv("STARFIELD_ADMIN_KEY", ""),
		AllowedOrigins: origins,
		ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		RateLimit: RateLimitConfig{
			Enabled:           getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 2),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 5),
		},
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		SQLitePath:  getEnv("SQLITE_PATH", "data/starfield.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "starfield:"),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		JSONFormat: getEnv("LOG_FORMAT", "text") == "json",
	}
}

func loadManagerConfig() ManagerConfig {
	return ManagerConfig{
		AutosaveInterval: getEnvDuration("AUTOSAVE_INTERVAL", 5*time.Minute),
		HomeSearchRadius: getEnvFloat("HOME_SEARCH_RADIUS", 10000),
		ChunkRadius:      getEnvFloat("CHUNK_RADIUS", 2000),
		ChunkMaxSystems:  getEnvInt("CHUNK_MAX_SYSTEMS", 200),
		ChunkCacheSize:   getEnvInt("CHUNK_CACHE_SIZE", 256),
	}
}

// loadGalaxyConfig starts from the defaults, overlays the YAML file and
// then the seed and star count from the environment.
func loadGalaxyConfig() (galaxy.Config, error) {
	cfg := galaxy.DefaultConfig()

	if path := getEnv("GALAXY_CONFIG_PATH", ""); path != "" {
		var err error
		cfg, err = LoadGalaxyFile(path, cfg)
		if err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("GALAXY_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("GALAXY_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("GALAXY_STAR_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("GALAXY_STAR_COUNT: %w", err)
		}
		cfg.StarCount = n
	}
	return cfg, nil
}

// LoadGalaxyFile decodes a YAML galaxy config on top of base. Fields absent
// from the file keep their base values.
func LoadGalaxyFile(path string, base galaxy.Config) (galaxy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read galaxy config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse galaxy config %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
