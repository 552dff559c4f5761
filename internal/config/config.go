package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
	DatabaseMemory   DatabaseBackend = "memory"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	DBBackend DatabaseBackend
	DBDSN     string

	// AuthEnabled gates the bearer-token middleware; single-user setups run
	// without it and every request acts as the local user.
	AuthEnabled   bool
	JWTSigningKey string

	IconCacheEnabled bool
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	OpenLibraryBaseURL string
	OpenLibraryRetry   int

	// BucketTablesPath optionally points at a YAML file overriding the
	// built-in range bucket tables.
	BucketTablesPath string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("BOOKLORE_ENV", "development"),
		HTTPBind:    getEnv("BOOKLORE_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("BOOKLORE_HTTP_PORT", 8080),
		MetricsBind: getEnv("BOOKLORE_METRICS_BIND", "127.0.0.1:9000"),

		DBBackend: DatabaseBackend(getEnv("BOOKLORE_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("BOOKLORE_DB_DSN", "booklore.db"),

		AuthEnabled:   getEnvBool("BOOKLORE_AUTH_ENABLED", false),
		JWTSigningKey: getEnv("BOOKLORE_JWT_SIGNING_KEY", ""),

		IconCacheEnabled: getEnvBool("BOOKLORE_ICON_CACHE_ENABLED", false),
		RedisAddr:        getEnv("BOOKLORE_REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("BOOKLORE_REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("BOOKLORE_REDIS_DB", 0),

		OpenLibraryBaseURL: getEnv("BOOKLORE_OPENLIBRARY_BASE_URL", "https://openlibrary.org"),
		OpenLibraryRetry:   getEnvInt("BOOKLORE_OPENLIBRARY_RETRY", 2),

		BucketTablesPath: getEnv("BOOKLORE_BUCKET_TABLES", ""),
	}

	switch cfg.DBBackend {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite, DatabaseMemory:
	default:
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBBackend != DatabaseMemory && cfg.DBDSN == "" {
		return nil, fmt.Errorf("BOOKLORE_DB_DSN must be provided")
	}

	if cfg.AuthEnabled && cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("BOOKLORE_JWT_SIGNING_KEY must be provided when auth is enabled")
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}
