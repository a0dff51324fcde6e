package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
	Scryfall ScryfallConfig `mapstructure:"scryfall" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Cache backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// CacheConfig selects and tunes the durable response cache.
type CacheConfig struct {
	Backend        string        `mapstructure:"backend"         validate:"required,oneof=sqlite postgres redis memory"`
	SQLitePath     string        `mapstructure:"sqlite_path"     validate:"required_if=Backend sqlite"`
	DatabaseURL    string        `mapstructure:"database_url"    validate:"required_if=Backend postgres"`
	RedisAddr      string        `mapstructure:"redis_addr"      validate:"required_if=Backend redis"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"        validate:"gte=0"`
	Expiration     time.Duration `mapstructure:"expiration"      validate:"gt=0"`
	RetentionCount int           `mapstructure:"retention_count" validate:"gte=0"`
	MaxBytes       int64         `mapstructure:"max_bytes"       validate:"gte=0"`
}

// ScryfallConfig contains settings for the card-data service client.
type ScryfallConfig struct {
	BaseURL           string        `mapstructure:"base_url"            validate:"required,url"`
	UserAgent         string        `mapstructure:"user_agent"          validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst"               validate:"gte=1"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
}

// PipelineConfig tunes the fetch pipeline.
type PipelineConfig struct {
	Concurrency      int  `mapstructure:"concurrency"        validate:"gte=1,lte=8"`
	ExcludeZeroPrice bool `mapstructure:"exclude_zero_price"`
}
