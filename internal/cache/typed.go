// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache stores values of T as JSON under a key namespace.
type TypedCache[T any] struct {
	cache      Cache
	namespace  string
	defaultTTL time.Duration
}

// NewTypedCache wraps cache; every key is prefixed with namespace.
func NewTypedCache[T any](cache Cache, namespace string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, namespace: namespace, defaultTTL: defaultTTL}
}

func (c *TypedCache[T]) key(k string) string {
	return c.namespace + k
}

// Get returns the value and true, or nil and false on a miss or a value
// that no longer decodes.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, c.key(key))
	if err != nil {
		return nil, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return &value, true
}

// Set stores value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	return c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetWithTTL stores value with ttl.
func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, value *T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, c.key(key), data, ttl)
}

// Delete removes key.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, c.key(key))
}

// Clear removes every key of the namespace.
func (c *TypedCache[T]) Clear(ctx context.Context) error {
	return c.cache.DeleteByPrefix(ctx, c.namespace)
}
