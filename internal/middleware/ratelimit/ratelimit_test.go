package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowPerClient(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients have independent buckets")

	m := rl.GetMetrics()
	assert.EqualValues(t, 1, m.TotalHits)
	assert.EqualValues(t, 2, m.ClientCount)
}

func TestReserveReportsDelay(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 6, Burst: 1})
	defer rl.Stop()

	ok, _ := rl.Reserve("a")
	require.True(t, ok)
	ok, delay := rl.Reserve("a")
	assert.False(t, ok)
	assert.InDelta(t, float64(10*time.Second), float64(delay), float64(time.Second))
}

func TestCleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, IdleTimeout: time.Minute})
	defer rl.Stop()

	rl.Allow("a")
	rl.cleanupStaleEntries(time.Now())
	assert.Equal(t, 1, rl.ActiveClients())
	rl.cleanupStaleEntries(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, rl.ActiveClients())
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	h := rl.Middleware(func(r *http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	secs, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 1)
}
