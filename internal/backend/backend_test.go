package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"financecalc/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := &config.Config{
		TaxPolicyBackend: "sqlite",
		SQLiteDBPath:     "/tmp/x.db",
		CacheBackend:     "memory",
		CacheSize:        10,
		CacheTTL:         time.Minute,
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Policy != SQLitePolicy || got.Cache != MemoryCache || got.CacheSize != 10 {
		t.Errorf("FromAppConfig() = %+v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"embedded without cache", Config{Policy: EmbeddedPolicy, Cache: NoCache}, ""},
		{"file needs path", Config{Policy: FilePolicy, Cache: NoCache}, "policy file path"},
		{"sqlite needs path", Config{Policy: SQLitePolicy, Cache: NoCache}, "SQLite database path"},
		{"bad policy type", Config{Policy: "s3", Cache: NoCache}, "invalid policy backend"},
		{"memory needs size", Config{Policy: EmbeddedPolicy, Cache: MemoryCache, CacheTTL: time.Minute}, "cache size"},
		{"redis needs addr", Config{Policy: EmbeddedPolicy, Cache: RedisCache, CacheTTL: time.Minute}, "redis address"},
		{"bad cache type", Config{Policy: EmbeddedPolicy, Cache: "memcached"}, "invalid cache backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBackendTypes(t *testing.T) {
	for _, bt := range GetPolicyBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	for _, bt := range GetCacheBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if PolicyBackendType("nope").IsValid() || CacheBackendType("nope").IsValid() {
		t.Error("unknown types must be invalid")
	}
}

func TestCreatePolicyBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreatePolicyBackend(ctx, Config{Policy: EmbeddedPolicy})
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	p, err := res.Store.Load(ctx)
	if err != nil || p.Name != "india-new-regime" {
		t.Errorf("embedded Load() = %+v, %v", p, err)
	}

	dbPath := filepath.Join(t.TempDir(), "policies.db")
	res, err = f.CreatePolicyBackend(ctx, Config{Policy: SQLitePolicy, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer res.Cleanup()
	if res.Repository == nil {
		t.Fatal("sqlite backend should expose its repository")
	}
	if p, err := res.Store.Load(ctx); err != nil || len(p.Slabs) != 6 {
		t.Errorf("sqlite Load() = %+v, %v", p, err)
	}
}

func TestCreateCacheBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateCacheBackend(ctx, Config{Cache: MemoryCache, CacheSize: 5, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if res.Store == nil || res.Cleaner == nil || res.Stats == nil {
		t.Errorf("memory result incomplete: %+v", res)
	}

	res, err = f.CreateCacheBackend(ctx, Config{Cache: NoCache})
	if err != nil || res.Store != nil {
		t.Errorf("none: %+v, %v", res, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if _, err := f.CreateCacheBackend(ctx, Config{Cache: RedisCache, RedisAddr: "127.0.0.1:1", CacheTTL: time.Minute}); err == nil {
		t.Error("expected error connecting to an unreachable redis")
	}
}
