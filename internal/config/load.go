package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SETGROUPER_CACHE_BACKEND.
const EnvPrefix = "SETGROUPER"

var defaults = map[string]any{
	"server.port":                  8080,
	"server.log_level":             "info",
	"cache.backend":                BackendSQLite,
	"cache.sqlite_path":            "setgrouper-cache.db",
	"cache.database_url":           "",
	"cache.redis_addr":             "",
	"cache.redis_password":         "",
	"cache.redis_db":               0,
	"cache.expiration":             96 * time.Hour,
	"cache.retention_count":        50,
	"cache.max_bytes":              0,
	"scryfall.base_url":            "https://api.scryfall.com",
	"scryfall.user_agent":          "setgrouper/1.0",
	"scryfall.timeout":             30 * time.Second,
	"scryfall.requests_per_second": 10.0,
	"scryfall.burst":               1,
	"scryfall.max_retries":         2,
	"pipeline.concurrency":         1,
	"pipeline.exclude_zero_price":  true,
}

// Load configuration from environment variables and an optional config.yaml
// in the working directory.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
