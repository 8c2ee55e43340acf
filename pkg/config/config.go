package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SQLite   SQLiteConfig
	Upstream UpstreamConfig
	List     ListConfig
	OTEL     OTELConfig
	Log      LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// SQLiteConfig holds the local preference store location
type SQLiteConfig struct {
	Path string
}

// UpstreamConfig describes the list API the console talks to
type UpstreamConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ListConfig holds the defaults shared by every list screen
type ListConfig struct {
	PageSize        int
	SearchMinLength int
	SearchDebounce  time.Duration
	StaleTime       time.Duration
	CacheSize       int
	FetchTimeout    time.Duration
	L2TTL           time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
	// File receives the console log; the terminal belongs to the UI.
	File string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "admin_console"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "console.db"),
		},
		Upstream: UpstreamConfig{
			BaseURL:           getEnv("LIST_API_URL", "http://localhost:8080/api/lists"),
			Timeout:           getEnvAsDuration("LIST_API_TIMEOUT", 15*time.Second),
			RequestsPerSecond: getEnvAsFloat("LIST_API_RPS", 10),
			Burst:             getEnvAsInt("LIST_API_BURST", 5),
		},
		List: ListConfig{
			PageSize:        getEnvAsInt("LIST_PAGE_SIZE", 10),
			SearchMinLength: getEnvAsInt("LIST_SEARCH_MIN_LENGTH", 3),
			SearchDebounce:  getEnvAsDuration("LIST_SEARCH_DEBOUNCE", 200*time.Millisecond),
			StaleTime:       getEnvAsDuration("LIST_STALE_TIME", 60*time.Second),
			CacheSize:       getEnvAsInt("LIST_CACHE_MAX_ENTRIES", 1000),
			FetchTimeout:    getEnvAsDuration("LIST_FETCH_TIMEOUT", 15*time.Second),
			L2TTL:           getEnvAsDuration("LIST_L2_TTL", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "admin-console"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.List.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects list defaults the controller cannot work with
func (c *ListConfig) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("LIST_PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.SearchMinLength < 0 {
		return fmt.Errorf("LIST_SEARCH_MIN_LENGTH must not be negative, got %d", c.SearchMinLength)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("LIST_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("200ms", "1m") or plain milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
