// Package sqlite stores values in a single SQLite table so they survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	pr "github.com/unkn0wn-root/accessor/provider"
)

const (
	schemaVersion = 1
	schema        = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);`
)

var ErrMemoryPath = errors.New("sqlite: use an explicitly named memory database")

type Config struct {
	// Path of the database file, or a name when InMemory is set.
	Path     string
	InMemory bool
}

// Provider is safe for concurrent use; writes go through one connection.
type Provider struct {
	db  *sql.DB
	now func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if strings.Contains(cfg.Path, ":memory:") {
		return nil, ErrMemoryPath
	}
	name, hasScheme := strings.CutPrefix(cfg.Path, "file:")

	params := make(url.Values)
	params.Add("_txlock", "immediate")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(1000)")
	params.Add("_pragma", "synchronous(NORMAL)")
	if cfg.InMemory {
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	}
	dsn := name + "?" + params.Encode()
	if !hasScheme || cfg.InMemory {
		dsn = "file:" + dsn
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	p := &Provider{db: db, now: time.Now}
	if err := p.setup(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Provider) setup(ctx context.Context) error {
	var existing int
	if err := p.db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&existing); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}
	switch existing {
	case schemaVersion:
		return nil
	case 0:
		if _, err := p.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		if _, err := p.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("schema version mismatch: expected %d, have %d", schemaVersion, existing)
	}
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		b   []byte
		exp int64
	)
	err := p.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM entries WHERE key = ?", key,
	).Scan(&b, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if exp != 0 && p.now().UnixNano() >= exp {
		_ = p.Del(ctx, key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp int64
	if ttl > 0 {
		exp = p.now().Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, exp,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", key)
	return err
}

// Purge removes every expired entry and reports how many were dropped.
func (p *Provider) Purge(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM entries WHERE expires_at != 0 AND expires_at <= ?", p.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *Provider) Close(_ context.Context) error { return p.db.Close() }
