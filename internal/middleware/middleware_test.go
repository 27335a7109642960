package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// serve runs req through mw and returns the recorder plus the context the
// final handler saw.
func serve(t *testing.T, req *http.Request, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var seen echo.Context
	h := func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusNoContent)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, seen
}

func TestAdminDecision(t *testing.T) {
	hash, err := utils.HashSecret("hashed-key", bcrypt.MinCost)
	require.NoError(t, err)
	keys := AdminKeys{Plain: "plain-key", Hash: hash}
	staffToken, _, err := utils.NewStaffToken("jwt-secret", "alice", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header map[string]string
		want   service.AuthorizationDecision
	}{
		{"no credentials", nil, service.AuthorizationDecision{}},
		{"plain key", map[string]string{AdminKeyHeader: "plain-key"}, service.AuthorizationDecision{Authorized: true, Actor: "api-key"}},
		{"hashed key", map[string]string{AdminKeyHeader: "hashed-key"}, service.AuthorizationDecision{Authorized: true, Actor: "api-key"}},
		{"wrong key", map[string]string{AdminKeyHeader: "nope"}, service.AuthorizationDecision{}},
		{"staff token", map[string]string{echo.HeaderAuthorization: "Bearer " + staffToken}, service.AuthorizationDecision{Authorized: true, Actor: "staff:alice"}},
		{"garbage token", map[string]string{echo.HeaderAuthorization: "Bearer abc.def.ghi"}, service.AuthorizationDecision{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/confirm-booked", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			_, c := serve(t, req, StaffJWT("jwt-secret"), AdminDecision(keys))
			assert.Equal(t, tc.want, Decision(c))
		})
	}
}

func TestAdminDecision_NoKeysConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(AdminKeyHeader, "")
	_, c := serve(t, req, AdminDecision(AdminKeys{}))
	assert.False(t, Decision(c).Authorized)
}

func TestHoldSession_IssuesAndReusesCookie(t *testing.T) {
	rec, c := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), HoldSession(true))
	issued := HoldToken(c)
	assert.Regexp(t, `^[0-9a-f]{32}$`, issued)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, HoldCookieName, cookies[0].Name)
	assert.Equal(t, issued, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: HoldCookieName, Value: issued})
	rec, c = serve(t, req, HoldSession(true))
	assert.Equal(t, issued, HoldToken(c))
	assert.Empty(t, rec.Result().Cookies())
}

func TestHoldSession_ReplacesMalformedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: HoldCookieName, Value: "not-a-token"})
	_, c := serve(t, req, HoldSession(false))
	assert.NotEqual(t, "not-a-token", HoldToken(c))
	assert.Len(t, HoldToken(c), 32)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/seats/hold", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/seats/hold")

	key := func(strategy string) string {
		return buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
	}
	assert.Equal(t, "rl:ip:10.0.0.1", key("ip"))
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/seats/hold", key("ip_route"))
	assert.Equal(t, "rl:session:anon", key("session"))

	c.Set(ctxHoldToken, strings.Repeat("a", 32))
	assert.Equal(t, "rl:ip:10.0.0.1:session:"+strings.Repeat("a", 32)+":route:POST /api/seats/hold", key("all"))
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(1), int64(4), int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.EqualValues(t, 4, res.remaining)

	res, ok = parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, 1500*time.Millisecond, res.retry)

	_, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestRedisBackedMiddlewarePassThroughWithoutClient(t *testing.T) {
	limiter := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	cache := NewRedisCache(config.CacheConfig{Enabled: true, MethodList: "GET"}, nil)
	for i := 0; i < 3; i++ {
		rec, _ := serve(t, httptest.NewRequest(http.MethodGet, "/api/trips", nil), limiter, cache)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestCacheKey_DependsOnQuery(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	ctx := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/trips")
		return c
	}
	a := cacheKey(cfg, ctx("/api/trips?page=1"))
	b := cacheKey(cfg, ctx("/api/trips?page=2"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "cache:"))
	assert.Equal(t, a, cacheKey(cfg, ctx("/api/trips?page=1")))
}
