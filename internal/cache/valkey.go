package cache

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/valkey-io/valkey-go"
)

// DefaultKey holds the entry in valkey.
const DefaultKey = "commentlens:last"

type ValkeyConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
	// DisableCache turns off client-side caching (needed for servers
	// without RESP3 tracking).
	DisableCache bool `yaml:"disable_cache"`
}

// Valkey shares the entry between processes through a valkey server.
type Valkey struct {
	client valkey.Client
	key    string
	ttl    time.Duration
	logger logging.Logger
}

type valkeyRecord struct {
	VideoID  string          `json:"video_id"`
	Payload  json.RawMessage `json:"payload"`
	StoredAt int64           `json:"stored_at"`
}

func NewValkey(ctx context.Context, cfg ValkeyConfig, logger logging.Logger) (*Valkey, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("valkey cache: addr is required")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: cfg.DisableCache,
	})
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", cfg.Addr, err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey %s: %w", cfg.Addr, err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	logger.Info("valkey cache connected", logging.Field{Key: "addr", Value: cfg.Addr})
	return &Valkey{client: client, key: key, ttl: cfg.TTL, logger: logger}, nil
}

func (v *Valkey) Get(ctx context.Context) (*Entry, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(v.key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", v.key, err)
	}

	var rec valkeyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		v.logger.Warn("dropping unreadable cached analysis", logging.Field{Key: "error", Value: err.Error()})
		return nil, v.Invalidate(ctx)
	}
	payload, err := model.ParsePayload(rec.Payload)
	if err != nil {
		v.logger.Warn("dropping unreadable cached analysis",
			logging.Field{Key: "video_id", Value: rec.VideoID},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, v.Invalidate(ctx)
	}
	return &Entry{VideoID: rec.VideoID, Payload: payload, StoredAt: time.UnixMilli(rec.StoredAt)}, nil
}

func (v *Valkey) Set(ctx context.Context, videoID string, payload *model.Payload) error {
	if payload == nil {
		return fmt.Errorf("cache: nil payload for %s", videoID)
	}
	raw, err := payload.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	value, err := json.Marshal(valkeyRecord{VideoID: videoID, Payload: raw, StoredAt: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	var cmd valkey.Completed
	if v.ttl > 0 {
		cmd = v.client.B().Set().Key(v.key).Value(string(value)).Ex(v.ttl).Build()
	} else {
		cmd = v.client.B().Set().Key(v.key).Value(string(value)).Build()
	}
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", v.key, err)
	}
	return nil
}

func (v *Valkey) Invalidate(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.key).Build()).Error(); err != nil {
		return fmt.Errorf("valkey del %s: %w", v.key, err)
	}
	return nil
}

func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}
