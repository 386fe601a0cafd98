package store

import (
	"context"
	"time"

	"github.com/unkn0wn-root/accessor"
	"github.com/unkn0wn-root/accessor/codec"
	"github.com/unkn0wn-root/accessor/internal/wire"
	pr "github.com/unkn0wn-root/accessor/provider"
)

// CostFunc computes the provider cost of a framed value. Default: 1.
type CostFunc func(key string, raw []byte) int64

// KeyConfig describes one key of a provider. Provider, Codec and Key are required.
type KeyConfig[V any] struct {
	Provider pr.Provider
	Codec    codec.Codec[V]
	Key      string

	TTL  time.Duration // 0 => no expiry
	Cost CostFunc      // nil => 1

	// Fallback supplies the value for a missing (or self-healed) key.
	// nil => Read returns ErrNotFound.
	Fallback func() V

	Logger accessor.Logger // nil => NopLogger
	Hooks  accessor.Hooks  // nil => NopHooks
}

// Key is an Accessor over a single provider key.
type Key[V any] struct {
	p        pr.Provider
	codec    codec.Codec[V]
	key      string
	ttl      time.Duration
	cost     CostFunc
	fallback func() V
	log      accessor.Logger
	hooks    accessor.Hooks
}

var _ accessor.Accessor[int] = (*Key[int])(nil)

func NewKey[V any](cfg KeyConfig[V]) (*Key[V], error) {
	if cfg.Provider == nil {
		return nil, ErrNilProvider
	}
	if cfg.Codec == nil {
		return nil, ErrNilCodec
	}
	if cfg.Key == "" {
		return nil, ErrEmptyKey
	}

	k := &Key[V]{
		p:        cfg.Provider,
		codec:    cfg.Codec,
		key:      cfg.Key,
		ttl:      cfg.TTL,
		cost:     cfg.Cost,
		fallback: cfg.Fallback,
		log:      cfg.Logger,
		hooks:    cfg.Hooks,
	}
	if k.cost == nil {
		k.cost = func(string, []byte) int64 { return 1 }
	}
	if k.log == nil {
		k.log = accessor.NopLogger{}
	}
	if k.hooks == nil {
		k.hooks = accessor.NopHooks{}
	}
	return k, nil
}

// Name returns the provider key.
func (k *Key[V]) Name() string { return k.key }

// Read loads and decodes the value. A missing key yields Fallback() or ErrNotFound.
// Bytes that are not a frame written by Key are deleted and treated as missing.
// A frame whose payload the codec rejects is reported as *CodecError and left in place.
func (k *Key[V]) Read(ctx context.Context) (V, error) {
	var zero V
	raw, ok, err := k.p.Get(ctx, k.key)
	if err != nil {
		return zero, err
	}
	if !ok {
		return k.missing()
	}

	payload, err := wire.Decode(raw)
	if err != nil {
		_ = k.p.Del(ctx, k.key) // self-heal corrupt
		k.hooks.SelfHeal(k.key, "corrupt")
		k.log.Warn("deleted corrupt entry", keyFields(k.key))
		return k.missing()
	}

	v, err := k.codec.Decode(payload)
	if err != nil {
		return zero, &CodecError{Key: k.key, Op: "decode", Err: err}
	}
	return v, nil
}

// Write encodes and stores v with the configured TTL.
func (k *Key[V]) Write(ctx context.Context, v V) error {
	payload, err := k.codec.Encode(v)
	if err != nil {
		return &CodecError{Key: k.key, Op: "encode", Err: err}
	}
	raw := wire.Encode(payload)
	ok, err := k.p.Set(ctx, k.key, raw, k.cost(k.key, raw), k.ttl)
	if err != nil {
		return err
	}
	if !ok {
		k.log.Debug("write rejected by provider (pressure)", keyFields(k.key))
		return ErrRejected
	}
	return nil
}

// Delete removes the key from the provider.
func (k *Key[V]) Delete(ctx context.Context) error {
	return k.p.Del(ctx, k.key)
}

func (k *Key[V]) missing() (V, error) {
	if k.fallback != nil {
		return k.fallback(), nil
	}
	var zero V
	return zero, ErrNotFound
}

// keyFields is the log field set for key.
func keyFields(key string) accessor.Fields { return accessor.Fields{"key": key} }
