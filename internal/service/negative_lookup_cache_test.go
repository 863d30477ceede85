package service

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryNegativeLookupCacheStoreGetSetInvalidate(t *testing.T) {
	store := NewInMemoryNegativeLookupCacheStore()
	ctx := context.Background()

	if err := store.Set(ctx, userNotFoundNamespace, "ghost", time.Minute); err != nil {
		t.Fatalf("set negative cache: %v", err)
	}
	if err := store.Set(ctx, "other.namespace", "ghost", time.Minute); err != nil {
		t.Fatalf("set other namespace: %v", err)
	}
	ok, err := store.Get(ctx, userNotFoundNamespace, "ghost")
	if err != nil || !ok {
		t.Fatalf("expected negative cache hit, ok=%v err=%v", ok, err)
	}

	if err := store.InvalidateNamespace(ctx, userNotFoundNamespace); err != nil {
		t.Fatalf("invalidate negative cache namespace: %v", err)
	}
	if ok, _ := store.Get(ctx, userNotFoundNamespace, "ghost"); ok {
		t.Fatal("expected negative cache miss after invalidate")
	}
	if ok, _ := store.Get(ctx, "other.namespace", "ghost"); !ok {
		t.Fatal("invalidation must be scoped to its namespace")
	}
}

func TestInMemoryNegativeLookupCacheStoreExpiry(t *testing.T) {
	store := NewInMemoryNegativeLookupCacheStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, userNotFoundNamespace, "ghost", time.Second); err != nil {
		t.Fatalf("set negative cache: %v", err)
	}
	now = now.Add(time.Second)
	if ok, _ := store.Get(ctx, userNotFoundNamespace, "ghost"); ok {
		t.Fatal("expected negative cache entry to expire")
	}
	if len(store.entries) != 0 {
		t.Fatalf("expired entry should be dropped, have %d", len(store.entries))
	}
	if err := store.Set(ctx, userNotFoundNamespace, "ghost", 0); err != nil || len(store.entries) != 0 {
		t.Fatalf("non-positive ttl must not store: %v", err)
	}
}

func TestInMemoryNegativeLookupCacheStorePrune(t *testing.T) {
	store := NewInMemoryNegativeLookupCacheStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, userNotFoundNamespace, "short", time.Second)
	_ = store.Set(ctx, userNotFoundNamespace, "long", time.Hour)
	now = now.Add(time.Minute)

	if removed := store.Prune(); removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	if ok, _ := store.Get(ctx, userNotFoundNamespace, "long"); !ok {
		t.Fatal("expected unexpired entry to survive prune")
	}
}

func TestNoopNegativeLookupCacheStoreAlwaysMisses(t *testing.T) {
	store := NewNoopNegativeLookupCacheStore()
	ctx := context.Background()
	if err := store.Set(ctx, userNotFoundNamespace, "404", time.Minute); err != nil {
		t.Fatalf("set noop negative cache: %v", err)
	}
	ok, err := store.Get(ctx, userNotFoundNamespace, "404")
	if err != nil || ok {
		t.Fatalf("expected noop negative cache miss, ok=%v err=%v", ok, err)
	}
	if err := store.InvalidateNamespace(ctx, userNotFoundNamespace); err != nil {
		t.Fatalf("invalidate noop negative cache namespace: %v", err)
	}
}

func TestCacheKeyHelpers(t *testing.T) {
	cases := map[string]string{"": "_", " User.Not Found ": "user.not_found", "a/b:c": "a_b_c"}
	for in, want := range cases {
		if got := normalizeToken(in); got != want {
			t.Fatalf("normalizeToken(%q)=%q want %q", in, got, want)
		}
	}
	if len(hashToken("x")) != 64 || hashToken("x") == hashToken("y") {
		t.Fatal("hashToken must be a 64-char hex digest that differs per input")
	}
}
