// Package cache provides the injected read cache used for user profiles,
// conversation messages and performer listings.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a key/value cache with per-entry TTL. Values are stored as copies,
// so callers never share memory with the cache.
type Cache interface {
	Get(ctx context.Context, key string, target any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key categories
const (
	CategoryUser       = "user"
	CategoryMessages   = "messages"
	CategoryPerformers = "performers"
)

// PerformersPrefix matches every performers listing page.
const PerformersPrefix = CategoryPerformers + ":"

// UserKey returns the key of a cached user profile.
func UserKey(userID int64) string {
	return fmt.Sprintf("%s:%d", CategoryUser, userID)
}

// MessagesKey returns the key of a conversation's cached message list.
func MessagesKey(conversationID int64) string {
	return fmt.Sprintf("%s:%d", CategoryMessages, conversationID)
}

// PerformersKey returns the key of one performers listing page.
func PerformersKey(limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", PerformersPrefix, limit, offset)
}

// Nop never stores anything; every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string, any) error { return ErrMiss }

func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

func (Nop) Delete(context.Context, ...string) error { return nil }

func (Nop) DeletePrefix(context.Context, string) error { return nil }

// Load returns the cached value under key, or calls load and caches its result for ttl.
// Cache failures never fail the read; they fall through to load. On a guarded
// cache the result is dropped if key was invalidated while load ran.
func Load[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	guard, guarded := c.(versionedSetter)
	var version uint64
	if guarded {
		version = guard.Version(key)
	}

	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	val, err := load(ctx)
	if err != nil {
		return val, err
	}
	if guarded {
		_ = guard.SetIfVersion(ctx, key, val, ttl, version)
	} else {
		_ = c.Set(ctx, key, val, ttl)
	}
	return val, nil
}
