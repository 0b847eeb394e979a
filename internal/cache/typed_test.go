// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"
)

type testProps struct {
	UID   string   `json:"uid"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestTypedCache_RoundTrip(t *testing.T) {
	mem := newTestMemoryCache(t, MemoryCacheOptions{})
	cache := NewTypedCache[testProps](mem, "post:", time.Hour)
	ctx := context.Background()

	in := &testProps{UID: "hello", Title: "Hello", Tags: []string{"space"}}
	if err := cache.Set(ctx, "hello", in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := cache.Get(ctx, "hello")
	if !ok {
		t.Fatal("expected to find hello")
	}
	if got.UID != in.UID || got.Title != in.Title || len(got.Tags) != 1 {
		t.Errorf("got %+v, want %+v", got, in)
	}

	// Keys are namespaced in the underlying cache.
	if has, _ := mem.Has(ctx, "post:hello"); !has {
		t.Error("expected namespaced key post:hello")
	}
}

func TestTypedCache_Miss(t *testing.T) {
	cache := NewTypedCache[testProps](newTestMemoryCache(t, MemoryCacheOptions{}), "p:", time.Hour)

	if _, ok := cache.Get(context.Background(), "nope"); ok {
		t.Error("expected miss")
	}
}

func TestTypedCache_UndecodableValueIsMiss(t *testing.T) {
	mem := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()
	_ = mem.Set(ctx, "p:bad", []byte("{not json"), 0)

	cache := NewTypedCache[testProps](mem, "p:", time.Hour)
	if _, ok := cache.Get(ctx, "bad"); ok {
		t.Error("expected undecodable value to be a miss")
	}
}

func TestTypedCache_Clear(t *testing.T) {
	mem := newTestMemoryCache(t, MemoryCacheOptions{})
	ctx := context.Background()
	posts := NewTypedCache[testProps](mem, "post:", time.Hour)
	other := NewTypedCache[testProps](mem, "home:", time.Hour)

	_ = posts.Set(ctx, "a", &testProps{UID: "a"})
	_ = posts.Set(ctx, "b", &testProps{UID: "b"})
	_ = other.Set(ctx, "index", &testProps{UID: "index"})

	if err := posts.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := posts.Get(ctx, "a"); ok {
		t.Error("post:a should be cleared")
	}
	if _, ok := other.Get(ctx, "index"); !ok {
		t.Error("other namespace should survive")
	}
	if err := posts.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}
