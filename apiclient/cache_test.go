package apiclient

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCacheKey(t *testing.T) {
	if got := CacheKey("/master/supplier/data", nil); got != "master/supplier/data" {
		t.Errorf("no params: %q", got)
	}
	got := CacheKey("master/supplier/data", url.Values{"start": {"0"}, "draw": {"1"}})
	if got != "master/supplier/data?draw=1&start=0" {
		t.Errorf("with params: %q", got)
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	_ = c.Set(ctx, "a", []byte("1"))
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatal("expected hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted")
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewMemoryCache(0)
	ctx := context.Background()
	for _, k := range []string{"a", "a?x=1", "a?x=2", "ab", "b"} {
		_ = c.Set(ctx, k, []byte(k))
	}
	_ = c.Invalidate(ctx, "a")
	for _, k := range []string{"a", "a?x=1", "a?x=2"} {
		if _, ok := c.Get(ctx, k); ok {
			t.Errorf("%q should be gone", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2 (ab, b kept)", c.Len())
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()
	c := NewRedisCache(rdb, "sapi-test:"+t.Name()+":", time.Minute)
	t.Cleanup(func() { _ = c.Invalidate(ctx, "") })

	for _, k := range []string{"a", "a?x=1", "b"} {
		if err := c.Set(ctx, k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	if b, ok := c.Get(ctx, "a?x=1"); !ok || string(b) != "a?x=1" {
		t.Fatalf("get = %q %v", b, ok)
	}
	if err := c.Invalidate(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "a?x=1"); ok {
		t.Error("variant not invalidated")
	}
	if _, ok := c.Get(ctx, "b"); !ok {
		t.Error("unrelated key removed")
	}
}

func TestGlobEscape(t *testing.T) {
	if got := globEscape("p:a?x=[1]*"); got != `p:a\?x=\[1\]\*` {
		t.Errorf("globEscape = %q", got)
	}
}
