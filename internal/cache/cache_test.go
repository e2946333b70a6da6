package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}

	// "b" is now least recently used
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Evictions != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() after Purge = %d", c.Size())
	}
}

func TestManager_CleanNow(t *testing.T) {
	store := NewMemoryStore(10, time.Minute)
	now := time.Now()
	store.lru.now = func() time.Time { return now }
	store.Set(context.Background(), "x", []byte("1"))
	now = now.Add(time.Hour)

	m := NewManager(nil)
	m.Register(store)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestKey(t *testing.T) {
	a := Key("sip", "fp1", map[string]any{"monthlyInvestment": 5000, "years": 10})
	b := Key("sip", "fp1", map[string]any{"years": 10, "monthlyInvestment": 5000})
	if a != b {
		t.Errorf("key depends on field order: %s != %s", a, b)
	}
	if a == Key("sip", "fp2", map[string]any{"monthlyInvestment": 5000, "years": 10}) {
		t.Error("key should change with policy fingerprint")
	}
	if a == Key("emi", "fp1", map[string]any{"monthlyInvestment": 5000, "years": 10}) {
		t.Error("key should change with calculator")
	}
}

func TestMemo_CachesResults(t *testing.T) {
	memo := NewMemo(NewMemoryStore(10, time.Minute), nil)
	ctx := context.Background()
	var calls int32

	compute := func() ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"ok":true}`), nil
	}

	v, hit, err := memo.Do(ctx, "k", compute)
	if err != nil || hit || string(v) != `{"ok":true}` {
		t.Fatalf("first Do() = %s, %v, %v", v, hit, err)
	}
	v, hit, err = memo.Do(ctx, "k", compute)
	if err != nil || !hit || string(v) != `{"ok":true}` {
		t.Fatalf("second Do() = %s, %v, %v", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	if err := memo.Purge(ctx); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if _, hit, _ := memo.Do(ctx, "k", compute); hit {
		t.Error("expected miss after Purge")
	}
}

func TestMemo_ErrorsNotCached(t *testing.T) {
	memo := NewMemo(NewMemoryStore(10, time.Minute), nil)
	ctx := context.Background()
	boom := errors.New("boom")
	var calls int

	for i := 0; i < 2; i++ {
		_, _, err := memo.Do(ctx, "k", func() ([]byte, error) {
			calls++
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Do() error = %v, want boom", err)
		}
	}
	if calls != 2 {
		t.Errorf("compute called %d times, want 2", calls)
	}
}

func TestMemo_CoalescesConcurrentCalls(t *testing.T) {
	memo := NewMemo(nil, nil)
	release := make(chan struct{})
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			memo.Do(context.Background(), "k", func() ([]byte, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return []byte("x"), nil
			})
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls < 1 || calls > 5 {
		t.Errorf("calls = %d", calls)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("down") }
func (failingStore) Purge(context.Context) error              { return errors.New("down") }

func TestMemo_StoreFailureFallsBack(t *testing.T) {
	memo := NewMemo(failingStore{}, nil)
	v, hit, err := memo.Do(context.Background(), "k", func() ([]byte, error) { return []byte("y"), nil })
	if err != nil || hit || string(v) != "y" {
		t.Errorf("Do() = %s, %v, %v", v, hit, err)
	}
}

func TestMemo_EmptyKeyBypasses(t *testing.T) {
	store := NewMemoryStore(10, time.Minute)
	memo := NewMemo(store, nil)
	memo.Do(context.Background(), "", func() ([]byte, error) { return []byte("z"), nil })
	if store.Stats().Size != 0 {
		t.Error("empty key should not be stored")
	}
}
