package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
)

// bucketScript refills and takes from a token bucket stored in a hash in one
// atomic step.  ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_ms.
// Returns {allowed (0|1), tokens_left, retry_after_ms}.
var bucketScript = redis.NewScript(`
local now      = tonumber(ARGV[1])
local cap      = tonumber(ARGV[2])
local refill   = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl      = tonumber(ARGV[5])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last   = tonumber(redis.call('HGET', KEYS[1], 'last_ms'))
if tokens == nil or last == nil then
  tokens = cap
  last = now
end

local steps = math.floor(math.max(0, now - last) / interval)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * refill)
  last = last + steps * interval
end

local allowed, retry = 0, 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, interval - (now - last))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, retry}
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func parseBucketResult(v interface{}) (bucketResult, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	return bucketResult{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, true
}

// NewTokenBucket limits requests per key (see buildRateKey) with a Redis
// token bucket.  With limiting disabled or no Redis client it is a
// pass-through, and a Redis error lets the request through: the limiter must
// never be the reason a customer cannot hold a seat.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			raw, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), cfg.TTL.Milliseconds()).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: redis error key=%s: %v", key, err)
				}
				return next(c)
			}
			res, ok := parseBucketResult(raw)
			if !ok {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: unexpected script result key=%s: %#v", key, raw)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}
			secs := int(math.Ceil(res.retry.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"kind":        "too_many_requests",
				"retry_after": secs,
			})
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// buildRateKey joins the configured identity parts: "ip", "session" (the
// hold token) and "route" in any of the combinations below.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	session := HoldToken(c)
	if session == "" {
		session = "anon"
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "session":
		parts = append(parts, "session", session)
	case "route":
		parts = append(parts, "route", route)
	case "ip_session":
		parts = append(parts, "ip", ip, "session", session)
	case "session_route":
		parts = append(parts, "session", session, "route", route)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	default:
		parts = append(parts, "ip", ip, "session", session, "route", route)
	}
	return strings.Join(parts, ":")
}
