// Package cache keeps the single last-fetched analysis, keyed by the video it
// belongs to. Callers invalidate it whenever the page changes.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/model"
)

// Entry is the cached analysis for one video.
type Entry struct {
	VideoID  string
	Payload  *model.Payload
	StoredAt time.Time
}

// Cache holds at most one Entry. Get returns (nil, nil) when empty.
type Cache interface {
	Get(ctx context.Context) (*Entry, error)
	Set(ctx context.Context, videoID string, payload *model.Payload) error
	Invalidate(ctx context.Context) error
	Close() error
}

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendValkey Backend = "valkey"
)

type Config struct {
	Backend Backend      `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Valkey  ValkeyConfig `yaml:"valkey"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		SQLite:  SQLiteConfig{Path: "commentlens.db"},
		Valkey:  ValkeyConfig{Addr: "localhost:6379", Key: DefaultKey, TTL: time.Hour},
	}
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Cache, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.With(logging.Field{Key: "component", Value: "cache"})

	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendSQLite:
		c, err := OpenSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendValkey:
		c, err := NewValkey(ctx, cfg.Valkey, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Memory is the in-process backend.
type Memory struct {
	mu    sync.Mutex
	entry *Entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Get(context.Context) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry == nil {
		return nil, nil
	}
	cp := *m.entry
	return &cp, nil
}

func (m *Memory) Set(_ context.Context, videoID string, payload *model.Payload) error {
	if payload == nil {
		return fmt.Errorf("cache: nil payload for %s", videoID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = &Entry{VideoID: videoID, Payload: payload, StoredAt: m.now()}
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
	return nil
}

func (m *Memory) Close() error { return nil }
