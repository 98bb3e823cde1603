// Package ratelimit provides a redis fixed-window limiter for write endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
)

const keyPrefix = "rate_limit"

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// New creates a limiter allowing limit requests per window.
func New(client redis.UniversalClient, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger,
	}
}

// Allow increments the counter for key and reports whether the request fits in the window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

// Middleware limits requests per authenticated user (client IP otherwise) and route.
// Redis failures let the request through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := requestKey(r)

		allowed, err := l.Allow(r.Context(), key)
		if err != nil {
			l.logger.Warn("Rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			apphttp.DefaultErrorHandler(w, apperrors.TooManyRequestsError("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestKey(r *http.Request) string {
	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}

	subject := clientIP(r)
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		subject = "user:" + strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, route, subject)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
