package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
)

// RateLimiter is a Redis token bucket keyed by scope and client IP. It fails open.
type RateLimiter struct {
	cache    *cache.Client
	capacity int
	interval time.Duration
	log      *zap.Logger
}

// NewRateLimiter allows capacity requests per scope and IP, regaining one every interval.
func NewRateLimiter(cache *cache.Client, capacity int, interval time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		cache:    cache,
		capacity: capacity,
		interval: interval,
		log:      log.With(zap.String("component", "ratelimit")),
	}
}

// Check consumes one token for the caller in scope and returns ErrRateLimited when the bucket is empty.
func (l *RateLimiter) Check(c echo.Context, scope string) error {
	if l == nil || l.capacity <= 0 {
		return nil
	}

	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	key := "ratelimit:" + scope + ":ip:" + ip

	d, err := l.cache.Allow(c.Request().Context(), key, l.capacity, l.interval)
	if err != nil {
		l.log.Debug("rate limit check skipped", zap.String("key", key), zap.Error(err))
		return nil
	}

	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.capacity))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))

	if !d.Allowed {
		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		h.Set("Retry-After", strconv.Itoa(secs))
		l.log.Info("rate limited", zap.String("key", key), zap.Int("retry_after", secs))
		return apperrors.ErrRateLimited
	}
	return nil
}
