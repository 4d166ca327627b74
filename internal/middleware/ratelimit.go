package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/calendar-suite/internal/httperr"
)

// Paths exempt from rate limiting: health probes and API documentation.
var rateLimitBypass = map[string]bool{
	"/health":       true,
	"/docs":         true,
	"/redoc":        true,
	"/openapi.json": true,
}

// RateLimit returns a middleware enforcing per-IP request quotas over two
// fixed windows: the current UTC minute and the current UTC hour.  Counters
// live in Redis under rate_limit:{window}:{ip}:{bucket} and expire with
// their window.  A request over either cap is rejected with 429 before any
// counter moves, so rejected requests never consume quota.  OPTIONS
// preflights always pass, before any other check.  When Redis is nil or
// unreachable the limiter fails open: availability beats enforcement.
func RateLimit(rdb *redis.Client, perMinute, perHour int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			if rateLimitBypass[c.Request().URL.Path] {
				return next(c)
			}
			if rdb == nil {
				return next(c)
			}

			// Direct peer address only; forwarded headers are spoofable
			// and are deliberately not consulted.
			ip := peerIP(c.Request().RemoteAddr)
			now := time.Now().UTC().Unix()
			minuteKey := fmt.Sprintf("rate_limit:minute:%s:%d", ip, now/60)
			hourKey := fmt.Sprintf("rate_limit:hour:%s:%d", ip, now/3600)
			ctx := c.Request().Context()

			minuteCount, err := rdb.Get(ctx, minuteKey).Int()
			if err != nil && err != redis.Nil {
				return next(c) // store unreachable, fail open
			}
			if err == nil && minuteCount >= perMinute {
				return reject(c, perMinute, "1 minute", 60)
			}

			hourCount, err := rdb.Get(ctx, hourKey).Int()
			if err != nil && err != redis.Nil {
				return next(c)
			}
			if err == nil && hourCount >= perHour {
				return reject(c, perHour, "1 hour", 3600)
			}

			pipe := rdb.Pipeline()
			pipe.Incr(ctx, minuteKey)
			pipe.Expire(ctx, minuteKey, 60*time.Second)
			pipe.Incr(ctx, hourKey)
			pipe.Expire(ctx, hourKey, 3600*time.Second)
			_, _ = pipe.Exec(ctx) // counting failures also fail open

			return next(c)
		}
	}
}

func reject(c echo.Context, limit int, window string, retryAfter int) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
	return httperr.JSONDetails(c, http.StatusTooManyRequests, httperr.CodeRateLimited,
		"Too many requests. Please try again later.", map[string]any{
			"limit":       limit,
			"window":      window,
			"retry_after": retryAfter,
		})
}

// peerIP extracts the host part of a RemoteAddr ("ip:port").
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		if remoteAddr == "" {
			return "unknown"
		}
		return remoteAddr
	}
	return host
}
