package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Host       string `validate:"required"`
	Port       int    `validate:"min=1,max=65535"`
	MaxClients int    `validate:"min=1"`
	HTTPAddr   string

	StatsBackend         string `validate:"oneof=file postgres sqlite"`
	StatsFile            string `validate:"required_if=StatsBackend file"`
	DatabaseURL          string `validate:"required_if=StatsBackend postgres"`
	SQLitePath           string `validate:"required_if=StatsBackend sqlite"`
	DBMaxOpenConns       int    `validate:"min=1"`
	DBMaxIdleConns       int    `validate:"min=0"`
	DBConnMaxLifetimeMin int    `validate:"min=0"`

	RedisURL      string
	RedisPassword string
	StatsCacheTTL time.Duration `validate:"min=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=console json"`

	RateLimitPerSec float64 `validate:"gt=0"`
	RateLimitBurst  int     `validate:"min=1"`

	SessionMaxIdle time.Duration `validate:"min=0"`
	WriteTimeout   time.Duration `validate:"gt=0"`
}

// LoadConfig reads the environment (main loads .env first) and validates
// the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Host:       GetEnv("SERVER_HOST", "localhost"),
		Port:       GetEnvAsInt("SERVER_PORT", 5678),
		MaxClients: GetEnvAsInt("MAX_CLIENTS", 10),
		HTTPAddr:   GetEnv("HTTP_ADDR", ""),

		StatsBackend:         strings.ToLower(GetEnv("STATS_BACKEND", BackendFile)),
		StatsFile:            GetEnv("STATS_FILE", "data/records.json"),
		DatabaseURL:          GetEnv("DATABASE_URL", ""),
		SQLitePath:           GetEnv("SQLITE_PATH", "data/records.db"),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisURL:      GetEnv("REDIS_URL", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		StatsCacheTTL: GetEnvAsDuration("STATS_CACHE_TTL_SECONDS", 300, time.Second),

		LogLevel:  strings.ToLower(GetEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(GetEnv("LOG_FORMAT", "console")),

		RateLimitPerSec: GetEnvAsFloat("RATE_LIMIT_PER_SEC", 20),
		RateLimitBurst:  GetEnvAsInt("RATE_LIMIT_BURST", 40),

		SessionMaxIdle: GetEnvAsDuration("SESSION_MAX_IDLE_MINUTES", 60, time.Minute),
		WriteTimeout:   GetEnvAsDuration("WRITE_TIMEOUT_SECONDS", 10, time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr is the TCP listen address of the game server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func GetEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// invalid values fall back to the default; Validate catches what is left
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvAsDuration reads an integer count of unit.
func GetEnvAsDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(GetEnvAsInt(key, defaultValue)) * unit
}
