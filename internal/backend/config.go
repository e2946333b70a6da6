package backend

import (
	"errors"
	"fmt"

	"financecalc/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	c := Config{
		Policy:       PolicyBackendType(appConfig.TaxPolicyBackend),
		Cache:        CacheBackendType(appConfig.CacheBackend),
		PolicyFile:   appConfig.TaxPolicyFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		CacheSize:    appConfig.CacheSize,
		CacheTTL:     appConfig.CacheTTL,
		RedisAddr:    appConfig.RedisAddr,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	var errs []error

	switch c.Policy {
	case EmbeddedPolicy:
	case FilePolicy:
		if c.PolicyFile == "" {
			errs = append(errs, errors.New("policy file path is required for file policy backend"))
		}
	case SQLitePolicy:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("SQLite database path is required for sqlite policy backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid policy backend type: %s", c.Policy))
	}

	switch c.Cache {
	case MemoryCache:
		if c.CacheSize < 1 {
			errs = append(errs, fmt.Errorf("cache size must be at least 1, got %d", c.CacheSize))
		}
		if c.CacheTTL <= 0 {
			errs = append(errs, errors.New("cache TTL must be positive"))
		}
	case RedisCache:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for redis cache backend"))
		}
		if c.CacheTTL <= 0 {
			errs = append(errs, errors.New("cache TTL must be positive"))
		}
	case NoCache:
	default:
		errs = append(errs, fmt.Errorf("invalid cache backend type: %s", c.Cache))
	}

	return errors.Join(errs...)
}

// GetPolicyBackendTypes returns all valid policy backend types
func GetPolicyBackendTypes() []PolicyBackendType {
	return []PolicyBackendType{EmbeddedPolicy, FilePolicy, SQLitePolicy}
}

// GetCacheBackendTypes returns all valid cache backend types
func GetCacheBackendTypes() []CacheBackendType {
	return []CacheBackendType{MemoryCache, RedisCache, NoCache}
}
