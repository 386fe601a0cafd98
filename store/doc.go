// Package store provides backing accessors to put behind accessor.Cached and
// accessor.AsyncCached.
//
//   - Box: a value in process memory. Each Box is its own store; nothing is global.
//   - Key: one key of a provider.Provider (Redis, BigCache, Ristretto), encoded
//     with a codec.Codec and framed so foreign bytes under the key are detected.
//
// Usage:
//
//	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	p, _ := redisprovider.New(redisprovider.Config{Client: rdb})
//
//	k, _ := store.NewKey(store.KeyConfig[Settings]{
//	    Provider: p,
//	    Codec:    codec.JSON[Settings]{},
//	    Key:      "app:prod:settings",
//	    Fallback: func() Settings { return DefaultSettings },
//	})
//	settings, _ := accessor.NewCached[Settings](k)
package store
