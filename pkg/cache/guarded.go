package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const guardStripes = 256

// versionedSetter is implemented by caches that can refuse a write whose read
// started before an invalidation of the same key.
type versionedSetter interface {
	Version(key string) uint64
	SetIfVersion(ctx context.Context, key string, value any, ttl time.Duration, version uint64) error
}

// Guarded tracks invalidations so that Load never stores a value read before a
// concurrent Delete of its key. Versions are striped by key hash; a collision
// only skips a cache fill. The guard covers invalidations issued by this
// process; writes from other instances are bounded by the entry TTL.
type Guarded struct {
	Cache

	mu      sync.Mutex
	epoch   uint64
	stripes [guardStripes]uint64
}

// NewGuarded wraps next with invalidation tracking.
func NewGuarded(next Cache) *Guarded {
	return &Guarded{Cache: next}
}

func stripe(key string) int {
	return int(xxhash.Sum64String(key) % guardStripes)
}

// Version returns a value that changes whenever key may have been invalidated.
func (g *Guarded) Version(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch + g.stripes[stripe(key)]
}

// SetIfVersion stores value only if key has not been invalidated since version was taken.
func (g *Guarded) SetIfVersion(ctx context.Context, key string, value any, ttl time.Duration, version uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch+g.stripes[stripe(key)] != version {
		return nil
	}
	return g.Cache.Set(ctx, key, value, ttl)
}

func (g *Guarded) Delete(ctx context.Context, keys ...string) error {
	g.mu.Lock()
	for _, key := range keys {
		g.stripes[stripe(key)]++
	}
	g.mu.Unlock()
	return g.Cache.Delete(ctx, keys...)
}

func (g *Guarded) DeletePrefix(ctx context.Context, prefix string) error {
	g.mu.Lock()
	g.epoch++
	g.mu.Unlock()
	return g.Cache.DeletePrefix(ctx, prefix)
}
