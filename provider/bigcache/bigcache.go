package bigcache

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/accessor/provider"
)

const expLen = 8

// Provider stores values in an allegro/bigcache shard set.
// Every entry is evicted after Config.LifeWindow at the latest. A shorter per-entry
// TTL is kept in an 8-byte expiry prefix and enforced on Get; callers only ever see
// their own bytes.
type Provider struct {
	c   *bc.BigCache
	now func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration // required
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // 0 = unlimited
	StatsEnabled       bool
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.LifeWindow <= 0 {
		return nil, errors.New("bigcache: LifeWindow must be > 0")
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize + expLen
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.StatsEnabled = cfg.StatsEnabled
	conf.Verbose = false

	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(b) < expLen {
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	if exp := int64(binary.BigEndian.Uint64(b[:expLen])); exp != 0 && p.now().UnixNano() >= exp {
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	return b[expLen:], true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp int64
	if ttl > 0 {
		exp = p.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, expLen+len(value))
	binary.BigEndian.PutUint64(buf[:expLen], uint64(exp))
	copy(buf[expLen:], value)

	if err := p.c.Set(key, buf); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

// Stats returns bigcache hit/miss counters. Zero unless Config.StatsEnabled.
func (p *Provider) Stats() bc.Stats { return p.c.Stats() }

func (p *Provider) Close(_ context.Context) error { return p.c.Close() }
