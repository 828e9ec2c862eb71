package cache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/raysh454/commentlens/internal/cache"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/testutil"
)

// exerciseCache runs the shared contract against any backend.
func exerciseCache(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	entry, err := c.Get(ctx)
	if err != nil || entry != nil {
		t.Fatalf("empty cache Get = %+v, %v", entry, err)
	}

	if err := c.Set(ctx, "A", testutil.SamplePayload()); err != nil {
		t.Fatalf("Set A: %v", err)
	}
	entry, err = c.Get(ctx)
	if err != nil || entry == nil || entry.VideoID != "A" {
		t.Fatalf("Get after Set = %+v, %v", entry, err)
	}
	if got, _ := entry.Payload.SentimentScore(model.SentimentPositive); got.Count != 60 {
		t.Errorf("cached payload positive = %+v", got)
	}
	if entry.StoredAt.IsZero() {
		t.Error("StoredAt not recorded")
	}

	if err := c.Set(ctx, "B", testutil.SamplePayload()); err != nil {
		t.Fatalf("Set B: %v", err)
	}
	entry, _ = c.Get(ctx)
	if entry == nil || entry.VideoID != "B" {
		t.Fatalf("second Set should replace the entry, got %+v", entry)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if entry, _ := c.Get(ctx); entry != nil {
		t.Fatalf("Get after Invalidate = %+v", entry)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate on empty cache: %v", err)
	}

	if err := c.Set(ctx, "C", nil); err == nil {
		t.Error("nil payload accepted")
	}
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseCache(t, cache.NewMemory())
}

func TestSQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := cache.OpenSQLite(context.Background(), cache.SQLiteConfig{Path: path}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := cache.OpenSQLite(ctx, cache.SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Set(ctx, "persisted", testutil.SamplePayload()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	first.Close()

	second, err := cache.OpenSQLite(ctx, cache.SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	entry, err := second.Get(ctx)
	if err != nil || entry == nil || entry.VideoID != "persisted" {
		t.Fatalf("Get after reopen = %+v, %v", entry, err)
	}
}

func newMiniValkey(t *testing.T) (*cache.Valkey, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	c, err := cache.NewValkey(context.Background(), cache.ValkeyConfig{
		Addr:         mini.Addr(),
		TTL:          time.Minute,
		DisableCache: true,
	}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewValkey: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mini
}

func TestValkey(t *testing.T) {
	t.Parallel()
	c, _ := newMiniValkey(t)
	exerciseCache(t, c)
}

func TestValkey_EntryExpires(t *testing.T) {
	t.Parallel()

	c, mini := newMiniValkey(t)
	ctx := context.Background()
	if err := c.Set(ctx, "A", testutil.SamplePayload()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mini.TTL(cache.DefaultKey); ttl != time.Minute {
		t.Errorf("ttl = %s, want 1m", ttl)
	}
	mini.FastForward(2 * time.Minute)
	if entry, _ := c.Get(ctx); entry != nil {
		t.Fatalf("expired entry still returned: %+v", entry)
	}
}

func TestValkey_CorruptEntryIsDropped(t *testing.T) {
	t.Parallel()

	c, mini := newMiniValkey(t)
	if err := mini.Set(cache.DefaultKey, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	entry, err := c.Get(context.Background())
	if err != nil || entry != nil {
		t.Fatalf("Get = %+v, %v", entry, err)
	}
	if mini.Exists(cache.DefaultKey) {
		t.Error("corrupt entry should be deleted")
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, err := cache.New(ctx, cache.Config{}, nil)
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := c.(*cache.Memory); !ok {
		t.Errorf("default backend = %T", c)
	}

	c, err = cache.New(ctx, cache.Config{Backend: "SQLite", SQLite: cache.SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db")}}, nil)
	if err != nil {
		t.Fatalf("New sqlite: %v", err)
	}
	defer c.Close()
	if _, ok := c.(*cache.SQLite); !ok {
		t.Errorf("sqlite backend = %T", c)
	}

	if _, err := cache.New(ctx, cache.Config{Backend: "memcached"}, nil); err == nil {
		t.Error("unknown backend accepted")
	}
}
