package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEcho(rdb *redis.Client, perMinute, perHour int) *echo.Echo {
	e := echo.New()
	e.Use(RateLimit(rdb, perMinute, perHour))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/ping", ok)
	e.GET("/health", ok)
	e.OPTIONS("/ping", ok)
	return e
}

func doRequest(e *echo.Echo, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitEnforcesMinuteCap(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := newLimitedEcho(rdb, 3, 1000)

	for i := 0; i < 3; i++ {
		rec := doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)
	assert.Equal(t, float64(3), body.Details["limit"])
	assert.Equal(t, "1 minute", body.Details["window"])
	assert.Equal(t, float64(60), body.Details["retry_after"])
}

func TestRateLimitRejectedRequestsDoNotCount(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := newLimitedEcho(rdb, 2, 1000)

	doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234")
	doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234")

	// Hammering past the cap must not grow the counter.
	for i := 0; i < 5; i++ {
		rec := doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	for _, k := range keys {
		v, err := mr.Get(k)
		require.NoError(t, err)
		assert.Equal(t, "2", v, "counter %s must stay at the cap", k)
	}
}

func TestRateLimitIsPerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := newLimitedEcho(rdb, 1, 1000)

	require.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, http.MethodGet, "/ping", "10.0.0.1:5678").Code,
		"same IP on a different port shares the quota")
	assert.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/ping", "10.0.0.2:1234").Code,
		"a different IP has its own quota")
}

func TestRateLimitBypass(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := newLimitedEcho(rdb, 1, 1)

	doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234") // consume the quota
	require.Equal(t, http.StatusTooManyRequests, doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234").Code)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/health", "10.0.0.1:1234").Code)
		assert.Equal(t, http.StatusOK, doRequest(e, http.MethodOptions, "/ping", "10.0.0.1:1234").Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // store down from the first request

	e := newLimitedEcho(rdb, 1, 1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234").Code)
	}
}

func TestRateLimitNilClient(t *testing.T) {
	e := newLimitedEcho(nil, 1, 1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(e, http.MethodGet, "/ping", "10.0.0.1:1234").Code)
	}
}

func TestPeerIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", peerIP("10.0.0.1:1234"))
	assert.Equal(t, "::1", peerIP("[::1]:1234"))
	assert.Equal(t, "10.0.0.1", peerIP("10.0.0.1"))
	assert.Equal(t, "unknown", peerIP(""))
}
