package backend

import (
	"context"
	"fmt"

	"financecalc/internal/cache"
	"financecalc/internal/log"
	"financecalc/internal/policy"
	"financecalc/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreatePolicyBackend implements Factory.CreatePolicyBackend
func (f *DefaultFactory) CreatePolicyBackend(ctx context.Context, config Config) (*PolicyResult, error) {
	switch config.Policy {
	case EmbeddedPolicy:
		f.logger.InfoContext(ctx, "Using embedded tax policy")
		return &PolicyResult{Store: policy.EmbeddedStore{}}, nil

	case FilePolicy:
		if config.PolicyFile == "" {
			return nil, fmt.Errorf("policy file path is required for file policy backend")
		}
		f.logger.InfoContext(ctx, "Using tax policy file", "path", config.PolicyFile)
		return &PolicyResult{Store: policy.FileStore{Path: config.PolicyFile}}, nil

	case SQLitePolicy:
		repo, err := storage.NewPolicyRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite policy repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite policy backend", "db_path", config.SQLiteDBPath)
		return &PolicyResult{Store: repo, Repository: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported policy backend type: %s", config.Policy)
	}
}

// CreateCacheBackend implements Factory.CreateCacheBackend
func (f *DefaultFactory) CreateCacheBackend(ctx context.Context, config Config) (*CacheResult, error) {
	switch config.Cache {
	case MemoryCache:
		store := cache.NewMemoryStore(config.CacheSize, config.CacheTTL)
		f.logger.InfoContext(ctx, "Initialized memory result cache", "max_entries", config.CacheSize, "ttl", config.CacheTTL.String())
		return &CacheResult{Store: store, Cleaner: store, Stats: store.Stats}, nil

	case RedisCache:
		store, err := cache.NewRedisStore(ctx, config.RedisAddr, config.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis result cache: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized redis result cache", "addr", config.RedisAddr, "ttl", config.CacheTTL.String())
		return &CacheResult{Store: store, Cleanup: store.Close}, nil

	case NoCache:
		f.logger.InfoContext(ctx, "Result cache disabled")
		return &CacheResult{}, nil

	default:
		return nil, fmt.Errorf("unsupported cache backend type: %s", config.Cache)
	}
}
