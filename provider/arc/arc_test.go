package arc

import (
	"context"
	"testing"
	"time"
)

func TestARCProvider(t *testing.T) {
	ctx := context.Background()
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero size")
	}

	p, err := New(Config{Size: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if ok, err := p.Set(ctx, "k", []byte("v1"), 0, 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	if b, ok, err := p.Get(ctx, "k"); err != nil || !ok || string(b) != "v1" {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}

	_ = p.Del(ctx, "k")
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("key still present after Del")
	}
}

func TestARCProviderTTL(t *testing.T) {
	ctx := context.Background()
	p, _ := New(Config{Size: 8})
	now := time.Unix(1000, 0)
	p.now = func() time.Time { return now }

	_, _ = p.Set(ctx, "short", []byte("x"), 1, time.Second)
	_, _ = p.Set(ctx, "forever", []byte("y"), 1, 0)

	now = now.Add(2 * time.Second)
	if _, ok, _ := p.Get(ctx, "short"); ok {
		t.Fatalf("expired entry returned")
	}
	if p.Len() != 1 {
		t.Fatalf("expired entry not removed on read: len=%d", p.Len())
	}
	if _, ok, _ := p.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without TTL expired")
	}
}

func TestARCProviderEvicts(t *testing.T) {
	ctx := context.Background()
	p, _ := New(Config{Size: 2})
	for _, k := range []string{"a", "b", "c"} {
		_, _ = p.Set(ctx, k, []byte(k), 1, 0)
	}
	if p.Len() > 2 {
		t.Fatalf("size bound not enforced: len=%d", p.Len())
	}
}
