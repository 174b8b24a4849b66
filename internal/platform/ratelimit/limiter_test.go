package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		rps   string
		burst string
		want  Config
	}{
		{"defaults", "", "", Config{RPS: 5, Burst: 10}},
		{"explicit", "2.5", "4", Config{RPS: 2.5, Burst: 4}},
		{"zero disables", "0", "", Config{RPS: 0, Burst: 10}},
		{"garbage keeps defaults", "fast", "-1", Config{RPS: 5, Burst: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvKeyRPS, tt.rps)
			t.Setenv(EnvKeyBurst, tt.burst)

			assert.Equal(t, tt.want, LoadConfigFromEnv())
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	assert.Nil(t, New(Config{RPS: 0, Burst: 1}))
	assert.Nil(t, New(Config{RPS: 1, Burst: 0}))

	var l *MapLimiter
	assert.True(t, l.Allow("1.2.3.4", time.Now()))
	assert.Equal(t, 0, l.Len())
}

func TestMapLimiter_Allow(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 1, Burst: 2})
	now := time.Unix(1700000000, 0)

	assert.True(t, l.Allow("a", now))
	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now), "burst exhausted")
	assert.True(t, l.Allow("b", now), "keys are independent")
	assert.True(t, l.Allow("a", now.Add(time.Second)), "token refilled")
	assert.True(t, l.Allow("  ", now), "blank key is never limited")
	assert.Equal(t, 2, l.Len())
}

func TestMapLimiter_EvictsIdleKeys(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 100, Burst: 100})
	start := time.Unix(1700000000, 0)
	l.Allow("idle", start)

	later := start.Add(defaultIdleTTL + time.Minute)
	for i := 0; i < sweepEvery; i++ {
		l.Allow("busy", later)
	}

	assert.Equal(t, 1, l.Len())
}

type countingObserver struct{ routes []string }

func (o *countingObserver) Limited(route string) { o.routes = append(o.routes, route) }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	r := gin.New()
	r.POST("/email/authorize", Middleware(New(Config{RPS: 0.001, Burst: 1}), obs), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/email/authorize", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, do().Code)

	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
	assert.Equal(t, []string{"/email/authorize"}, obs.routes)
}

func TestMiddleware_NilLimiterPasses(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.GET("/x", Middleware(nil, nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}
