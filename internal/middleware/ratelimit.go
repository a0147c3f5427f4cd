package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/config"
)

// RateLimit counts requests per client IP and route in fixed windows kept
// in Redis. Without Redis, or when disabled, it passes everything through.
// Redis errors fail open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			window := now.Truncate(cfg.Window)
			key := rateKey(cfg.Prefix, c.RealIP(), c.Request().Method+" "+c.Path(), window)

			ctx := c.Request().Context()
			var incr *redis.IntCmd
			_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
				incr = p.Incr(ctx, key)
				p.Expire(ctx, key, cfg.Window)
				return nil
			})
			if err != nil {
				log.Warn("ratelimit: redis error", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			count := incr.Val()
			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Limit) {
				retry := int(window.Add(cfg.Window).Sub(now).Seconds() + 0.999)
				h.Set("Retry-After", strconv.Itoa(retry))
				return fail(c, http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func rateKey(prefix, ip, route string, window time.Time) string {
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{prefix, ip, route, strconv.FormatInt(window.Unix(), 10)}, ":")
}
