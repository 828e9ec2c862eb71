package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/model"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SQLite persists the entry in a single-row table so it survives restarts.
type SQLite struct {
	db     *sql.DB
	owned  bool
	logger logging.Logger
}

// OpenSQLite opens (or creates) the database at cfg.Path.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig, logger logging.Logger) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite cache: path is required")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %s: %w", cfg.Path, err)
	}
	// one writer; keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	c, err := NewSQLite(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// NewSQLite wraps an open database and applies the schema.
func NewSQLite(ctx context.Context, db *sql.DB, logger logging.Logger) (*SQLite, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if err := applySchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLite{db: db, logger: logger}, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context) (*Entry, error) {
	var (
		videoID  string
		raw      []byte
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT video_id, payload, stored_at FROM last_analysis WHERE slot = 1`,
	).Scan(&videoID, &raw, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select last analysis: %w", err)
	}

	payload, err := model.ParsePayload(raw)
	if err != nil {
		s.logger.Warn("dropping unreadable cached analysis",
			logging.Field{Key: "video_id", Value: videoID},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, s.Invalidate(ctx)
	}
	return &Entry{VideoID: videoID, Payload: payload, StoredAt: time.UnixMilli(storedAt)}, nil
}

func (s *SQLite) Set(ctx context.Context, videoID string, payload *model.Payload) error {
	if payload == nil {
		return fmt.Errorf("cache: nil payload for %s", videoID)
	}
	raw, err := payload.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO last_analysis (slot, video_id, payload, stored_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			video_id = excluded.video_id,
			payload = excluded.payload,
			stored_at = excluded.stored_at`,
		videoID, raw, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert last analysis: %w", err)
	}
	return nil
}

func (s *SQLite) Invalidate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM last_analysis`); err != nil {
		return fmt.Errorf("clear last analysis: %w", err)
	}
	return nil
}

// Close closes the database if OpenSQLite opened it.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
