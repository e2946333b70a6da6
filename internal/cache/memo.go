package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/sync/singleflight"

	"financecalc/internal/log"
)

// Memo deduplicates concurrent identical calculations and caches their
// encoded results. Store failures degrade to recomputation.
type Memo struct {
	store  ResultStore
	group  singleflight.Group
	logger *log.Logger
}

// NewMemo wraps store; a nil store disables caching but keeps request
// coalescing.
func NewMemo(store ResultStore, logger *log.Logger) *Memo {
	if logger == nil {
		logger = log.Discard()
	}
	return &Memo{store: store, logger: logger.WithComponent(log.ComponentCache)}
}

// Key derives a cache key from the calculator, the tax policy fingerprint
// and the request fields. Field order does not matter.
func Key(calculator, policyFingerprint string, fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(calculator))
	h.Write([]byte{0})
	h.Write([]byte(policyFingerprint))
	h.Write([]byte{0})
	h.Write(data)
	return calculator + ":" + hex.EncodeToString(h.Sum(nil))
}

// Do returns the cached value for key or runs compute once for all
// concurrent callers. hit reports whether the value came from the store.
// Errors from compute are never cached. An empty key bypasses the cache.
func (m *Memo) Do(ctx context.Context, key string, compute func() ([]byte, error)) (value []byte, hit bool, err error) {
	if key == "" {
		v, err := compute()
		return v, false, err
	}

	if m.store != nil {
		v, ok, err := m.store.Get(ctx, key)
		if err != nil {
			m.logger.WarnContext(ctx, "Cache read failed", log.FieldError, err.Error())
		} else if ok {
			return v, true, nil
		}
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		out, err := compute()
		if err != nil {
			return nil, err
		}
		if m.store != nil {
			if err := m.store.Set(ctx, key, out); err != nil {
				m.logger.WarnContext(ctx, "Cache write failed", log.FieldError, err.Error())
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Purge empties the underlying store.
func (m *Memo) Purge(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.Purge(ctx)
}
