package arc

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/arc/v2"

	pr "github.com/unkn0wn-root/accessor/provider"
)

type entry struct {
	b   []byte
	exp time.Time // zero => no TTL
}

// Provider keeps values in an Adaptive Replacement Cache bounded by entry count.
// TTLs are enforced lazily on Get. Cost is ignored.
type Provider struct {
	c   *lru.ARCCache[string, entry]
	now func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Size int // max entries; required
}

func New(cfg Config) (*Provider, error) {
	if cfg.Size <= 0 {
		return nil, errors.New("arc: size must be positive")
	}
	c, err := lru.NewARC[string, entry](cfg.Size)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !p.now().Before(e.exp) {
		p.c.Remove(key)
		return nil, false, nil
	}
	return e.b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	e := entry{b: value}
	if ttl > 0 {
		e.exp = p.now().Add(ttl)
	}
	p.c.Add(key, e)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Remove(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Purge()
	return nil
}

// Len reports the number of entries, expired ones included until they are read.
func (p *Provider) Len() int { return p.c.Len() }
