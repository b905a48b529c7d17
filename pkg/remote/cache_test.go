package remote

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cache.Set(ctx, "a", Verdict{Message: "Invalid"}, time.Minute)
	_ = cache.Set(ctx, "b", Verdict{Valid: true}, 0)

	if got, ok, _ := cache.Get(ctx, "a"); !ok || got.Message != "Invalid" {
		t.Fatalf("expected fresh entry, got %#v %v", got, ok)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := cache.Get(ctx, "a"); ok {
		t.Fatalf("expected entry to expire")
	}
	if got, ok, _ := cache.Get(ctx, "b"); !ok || !got.Valid {
		t.Fatalf("entries without ttl should persist")
	}
	if cache.Len() != 1 {
		t.Fatalf("expired entries should be evicted on read, len=%d", cache.Len())
	}
}
