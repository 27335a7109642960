package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
)

// cachedResponse is what is stored in Redis for a cache hit.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// teeWriter forwards the response to the client and keeps up to limit bytes
// of it for the cache.  overflow is set when the body exceeded limit.
type teeWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default:
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// NewRedisCache caches successful responses of the configured methods in
// Redis for cfg.TTL.  Hits are marked "X-Cache: HIT".  With caching disabled
// or no Redis client it is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	methods := cfg.Methods()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !methods[c.Request().Method] {
				return next(c)
			}
			key := cacheKey(cfg, c)
			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = tw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tw.status != http.StatusOK || tw.overflow {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      tw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        tw.buf.Bytes(),
			})
			if err == nil {
				// detached: the request context may already be cancelled
				_ = rdb.Set(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}
