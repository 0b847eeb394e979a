// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T, opts MemoryCacheOptions) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(opts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	ctx := context.Background()

	if err := cache.Set(ctx, "home", []byte("props"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := cache.Get(ctx, "home")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "props" {
		t.Errorf("expected props, got %s", string(val))
	}

	has, err := cache.Has(ctx, "home")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("expected home to exist")
	}

	if err := cache.Delete(ctx, "home"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cache.Get(ctx, "home"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	value := []byte("abc")
	_ = cache.Set(ctx, "k", value, 0)
	value[0] = 'X'

	got, _ := cache.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value was mutated through caller slice: %s", got)
	}
	got[1] = 'Y'
	again, _ := cache.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value was mutated through returned slice: %s", again)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	ctx := context.Background()

	_ = cache.Set(ctx, "short", []byte("v"), 30*time.Millisecond)
	_ = cache.Set(ctx, "long", []byte("v"), 0)

	time.Sleep(50 * time.Millisecond)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected short TTL key to expire, got %v", err)
	}
	if has, _ := cache.Has(ctx, "short"); has {
		t.Error("Has reported an expired key")
	}
	if _, err := cache.Get(ctx, "long"); err != nil {
		t.Errorf("expected default TTL key to survive, got %v", err)
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "post:a", []byte("1"), 0)
	_ = cache.Set(ctx, "post:b", []byte("2"), 0)
	_ = cache.Set(ctx, "home", []byte("3"), 0)

	if err := cache.DeleteByPrefix(ctx, "post:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}

	for _, k := range []string{"post:a", "post:b"} {
		if has, _ := cache.Has(ctx, k); has {
			t.Errorf("%s should be gone", k)
		}
	}
	if has, _ := cache.Has(ctx, "home"); !has {
		t.Error("home should remain")
	}
	if got := cache.Stats().Items; got != 1 {
		t.Errorf("Items = %d, want 1", got)
	}
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{DefaultTTL: time.Hour, MaxEntries: 2})
	ctx := context.Background()

	_ = cache.Set(ctx, "soon", []byte("1"), time.Minute)
	_ = cache.Set(ctx, "late", []byte("2"), time.Hour)
	_ = cache.Set(ctx, "new", []byte("3"), time.Hour)

	if got := cache.Stats().Items; got != 2 {
		t.Fatalf("Items = %d, want 2", got)
	}
	if has, _ := cache.Has(ctx, "soon"); has {
		t.Error("entry closest to expiry should have been evicted")
	}
	if has, _ := cache.Has(ctx, "new"); !has {
		t.Error("new entry should be stored")
	}

	// Overwriting an existing key never evicts.
	_ = cache.Set(ctx, "late", []byte("22"), time.Hour)
	if has, _ := cache.Has(ctx, "new"); !has {
		t.Error("overwrite evicted another key")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("12345"), 0)
	_, _ = cache.Get(ctx, "k")
	_, _ = cache.Get(ctx, "missing")

	s := cache.Stats()
	if s.Backend != "memory" || s.Hits != 1 || s.Misses != 1 || s.Sets != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", s.HitRate)
	}
	if s.Size != 5 {
		t.Errorf("Size = %d, want 5", s.Size)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{CleanupInterval: time.Millisecond})
	ctx := context.Background()
	_ = cache.Close()
	_ = cache.Close()

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get: expected ErrCacheClosed, got %v", err)
	}
	if err := cache.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set: expected ErrCacheClosed, got %v", err)
	}
	if err := cache.DeleteByPrefix(ctx, ""); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("DeleteByPrefix: expected ErrCacheClosed, got %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := newTestMemoryCache(t, MemoryCacheOptions{MaxEntries: 50, CleanupInterval: time.Millisecond})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("post:%d", (n*100+j)%80)
				_ = cache.Set(ctx, key, []byte("v"), 0)
				_, _ = cache.Get(ctx, key)
				if j%25 == 0 {
					_ = cache.DeleteByPrefix(ctx, "post:1")
				}
			}
		}(i)
	}
	wg.Wait()

	if got := cache.Stats().Items; got > 50 {
		t.Errorf("Items = %d, exceeds MaxEntries", got)
	}
}
