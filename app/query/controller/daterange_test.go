package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxolens/soprx/app/query/types"
)

func newTestApp(ttl time.Duration) *types.App {
	return &types.App{CacheTTL: ttl}
}

func rangeRequest(t *testing.T, query string) *http.Request {
	req, err := http.NewRequest(http.MethodGet, "/v1/sopr"+query, nil)
	require.NoError(t, err)
	return req
}

func TestParseDateRangeExplicit(t *testing.T) {
	rng, err := parseDateRange(rangeRequest(t, "?start=2024-01-01&end=2024-03-31"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", rng.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-03-31", rng.End.Format("2006-01-02"))
}

func TestParseDateRangeDefaults(t *testing.T) {
	rng, err := parseDateRange(rangeRequest(t, ""))
	require.NoError(t, err)
	assert.Equal(t, float64(defaultRangeDays), rng.End.Sub(rng.Start).Hours()/24)
}

func TestParseDateRangeRejectsBadInput(t *testing.T) {
	_, err := parseDateRange(rangeRequest(t, "?start=01/01/2024"))
	assert.ErrorIs(t, err, errInvalidStart)

	_, err = parseDateRange(rangeRequest(t, "?end=yesterday"))
	assert.ErrorIs(t, err, errInvalidEnd)

	_, err = parseDateRange(rangeRequest(t, "?start=2024-03-31&end=2024-01-01"))
	assert.ErrorIs(t, err, errInvertedRange)
}

func TestDateRangeKey(t *testing.T) {
	rng, err := parseDateRange(rangeRequest(t, "?start=2024-01-01&end=2024-03-31"))
	require.NoError(t, err)
	assert.Equal(t, "sopr:2024-01-01:2024-03-31", rng.key("sopr"))
}

func TestCacheExpiry(t *testing.T) {
	c := NewController(newTestApp(time.Hour))

	_, ok := c.cached("missing")
	assert.False(t, ok)

	c.store("k", "v")
	got, ok := c.cached("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	// Force the entry past its TTL.
	c.cache.Store("k", cacheEntry{payload: "v", expiresAt: time.Now().Add(-time.Second)})
	_, ok = c.cached("k")
	assert.False(t, ok)
}

func TestCacheDisabledWithZeroTTL(t *testing.T) {
	c := NewController(newTestApp(0))

	c.store("k", "v")
	_, ok := c.cached("k")
	assert.False(t, ok)
}

func TestWithCORSPreflight(t *testing.T) {
	handler := WithCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/sopr", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sopr", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
