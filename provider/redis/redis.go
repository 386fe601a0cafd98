package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/accessor/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Redis stores each value as one Redis string under Prefix+key.
type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	sliding     time.Duration
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client goredis.UniversalClient

	// Prefix namespaces every key, e.g. "app:prod:". Optional.
	Prefix string

	// Sliding, when > 0, resets a key's expiry to Sliding on every hit (GETEX).
	// Keys written without a TTL keep none until their first hit.
	Sliding time.Duration

	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{
		rdb:         cfg.Client,
		prefix:      cfg.Prefix,
		sliding:     cfg.Sliding,
		closeClient: cfg.CloseClient,
	}, nil
}

func (p *Redis) k(key string) string { return p.prefix + key }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var cmd *goredis.StringCmd
	if p.sliding > 0 {
		cmd = p.rdb.GetEx(ctx, p.k(key), p.sliding)
	} else {
		cmd = p.rdb.Get(ctx, p.k(key))
	}
	b, err := cmd.Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // no expiry
	}
	if err := p.rdb.Set(ctx, p.k(key), value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.k(key)).Err()
}

// Close releases the underlying client only when this provider owns it.
// Repeated calls are no-ops.
func (p *Redis) Close(context.Context) error {
	if !p.closeClient {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
