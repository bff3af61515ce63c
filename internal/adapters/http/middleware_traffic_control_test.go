package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler := newTestHandler(t, Config{RateLimitRPS: 1, RateLimitBurst: 1}, &sessionsFake{}, &ingestFake{}, &browserFake{})

	res1 := serve(handler, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res1.Code)

	res2 := serve(handler, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusTooManyRequests, res2.Code)
	assert.NotEmpty(t, res2.Header().Get("Retry-After"))
}

func TestRateLimitDisabledForNonPositiveRate(t *testing.T) {
	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := rateLimitMiddleware(base, 0, 0, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(handler, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	var rejected atomic.Int32
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond, func() { rejected.Add(1) })

	go func() {
		done <- serve(handler, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)).Code
	}()
	<-started

	res2 := serve(handler, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
	require.Equal(t, http.StatusServiceUnavailable, res2.Code)
	assert.Equal(t, "1", res2.Header().Get("Retry-After"))

	var resp map[string]string
	require.NoError(t, json.NewDecoder(res2.Body).Decode(&resp))
	assert.NotEmpty(t, resp["error"])
	assert.Equal(t, int32(1), rejected.Load())

	close(release)

	select {
	case code := <-done:
		assert.Equal(t, http.StatusNoContent, code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first request completion")
	}
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(10*time.Millisecond))
	assert.Equal(t, "2", retryAfterSeconds(1500*time.Millisecond))
}
