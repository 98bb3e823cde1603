package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
)

type instrumented struct {
	next   Cache
	logger *zap.Logger
}

// NewInstrumented records hit/miss metrics per key category and logs backend errors.
func NewInstrumented(next Cache, logger *zap.Logger) Cache {
	return &instrumented{next: next, logger: logger}
}

func (c *instrumented) Get(ctx context.Context, key string, target any) error {
	err := c.next.Get(ctx, key, target)
	switch {
	case err == nil:
		metrics.CacheRequestsTotal.WithLabelValues(category(key), "hit").Inc()
	case errors.Is(err, ErrMiss):
		metrics.CacheRequestsTotal.WithLabelValues(category(key), "miss").Inc()
	default:
		metrics.CacheRequestsTotal.WithLabelValues(category(key), "error").Inc()
		c.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (c *instrumented) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	if err != nil {
		c.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (c *instrumented) Delete(ctx context.Context, keys ...string) error {
	err := c.next.Delete(ctx, keys...)
	if err != nil {
		c.logger.Warn("Cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
	return err
}

func (c *instrumented) DeletePrefix(ctx context.Context, prefix string) error {
	err := c.next.DeletePrefix(ctx, prefix)
	if err != nil {
		c.logger.Warn("Cache prefix delete failed", zap.String("prefix", prefix), zap.Error(err))
	}
	return err
}

func category(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
