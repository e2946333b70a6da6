package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port            string
	Debug           bool
	StaticDir       string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Logging
	LogLevel  string
	LogFormat string

	// Request handling
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	TrustedProxies     []string

	// Result cache
	CacheBackend string
	CacheSize    int
	CacheTTL     time.Duration
	RedisAddr    string

	// Tax policy
	TaxPolicyBackend      string
	TaxPolicyFile         string
	SQLiteDBPath          string
	PolicyRefreshSchedule string

	// AMQP, optional: policy reload broadcasts
	AMQPURL      string
	AMQPExchange string
}

// Load reads configuration from the environment. Call godotenv first to
// pick up a .env file.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Debug:           getEnvBool("DEBUG", false),
		StaticDir:       getEnv("STATIC_DIR", ""),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", nil),

		CacheBackend: getEnv("CACHE_BACKEND", "memory"),
		CacheSize:    getEnvInt("CACHE_SIZE", 1000),
		CacheTTL:     getEnvDuration("CACHE_TTL", 10*time.Minute),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),

		TaxPolicyBackend:      getEnv("TAX_POLICY_BACKEND", "embedded"),
		TaxPolicyFile:         getEnv("TAX_POLICY_FILE", ""),
		SQLiteDBPath:          getEnv("SQLITE_DB_PATH", "./data/financecalc.db"),
		PolicyRefreshSchedule: getEnv("POLICY_REFRESH_SCHEDULE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financecalc"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.MaxBodyBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max body size %d: must be at least 1024 bytes", c.MaxBodyBytes))
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative (0 disables)", c.RateLimitPerMinute))
	}

	if c.StaticDir != "" {
		if info, err := os.Stat(c.StaticDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("static directory does not exist: %s", c.StaticDir))
		}
	}

	switch c.CacheBackend {
	case "memory":
		if c.CacheSize < 1 {
			errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
		}
	case "redis":
		if c.RedisAddr == "" {
			errors = append(errors, "REDIS_ADDR is required when using the redis cache backend")
		}
	case "none":
	default:
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of [memory redis none]", c.CacheBackend))
	}
	if c.CacheBackend != "none" && c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}

	switch c.TaxPolicyBackend {
	case "embedded":
	case "file":
		if c.TaxPolicyFile == "" {
			errors = append(errors, "TAX_POLICY_FILE is required when using the file policy backend")
		} else if _, err := os.Stat(c.TaxPolicyFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("tax policy file does not exist: %s", c.TaxPolicyFile))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite policy backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid tax policy backend '%s': must be one of [embedded file sqlite]", c.TaxPolicyBackend))
	}

	if c.PolicyRefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.PolicyRefreshSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid policy refresh schedule '%s': %v", c.PolicyRefreshSchedule, err))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
