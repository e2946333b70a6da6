// Package backend builds the storage collaborators selected by configuration:
// where the tax policy is loaded from and where calculation results are cached.
package backend

import (
	"context"
	"time"

	"financecalc/internal/cache"
	"financecalc/internal/policy"
	"financecalc/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PolicyResult is the policy store and, for the sqlite backend, the
// repository behind it.
type PolicyResult struct {
	Store      policy.Store
	Repository *storage.PolicyRepository
	Cleanup    CleanupFunc
}

// CacheResult is the result store plus what the cache manager needs.
// Cleaner and Stats are nil for backends that expire entries themselves
// or keep no local entries.
type CacheResult struct {
	Store   cache.ResultStore
	Cleaner cache.Cleaner
	Stats   func() cache.Stats
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreatePolicyBackend(ctx context.Context, config Config) (*PolicyResult, error)
	CreateCacheBackend(ctx context.Context, config Config) (*CacheResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Policy PolicyBackendType
	Cache  CacheBackendType

	// file policy backend
	PolicyFile string

	// sqlite policy backend
	SQLiteDBPath string

	// memory cache backend
	CacheSize int
	CacheTTL  time.Duration

	// redis cache backend
	RedisAddr string
}

// PolicyBackendType selects where the tax policy is read from.
type PolicyBackendType string

const (
	EmbeddedPolicy PolicyBackendType = "embedded"
	FilePolicy     PolicyBackendType = "file"
	SQLitePolicy   PolicyBackendType = "sqlite"
)

func (bt PolicyBackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt PolicyBackendType) IsValid() bool {
	switch bt {
	case EmbeddedPolicy, FilePolicy, SQLitePolicy:
		return true
	default:
		return false
	}
}

// CacheBackendType selects the result cache.
type CacheBackendType string

const (
	MemoryCache CacheBackendType = "memory"
	RedisCache  CacheBackendType = "redis"
	NoCache     CacheBackendType = "none"
)

func (bt CacheBackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt CacheBackendType) IsValid() bool {
	switch bt {
	case MemoryCache, RedisCache, NoCache:
		return true
	default:
		return false
	}
}
