package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclipper/internal/retry"
)

func testConfig(retries int) *Config {
	cfg := DefaultConfig()
	cfg.Retry = retry.Config{
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
	cfg.RateLimiter = RateLimiterConfig{}
	return cfg
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, BrowserUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "https://www.youtube.com/", r.Header.Get("Referer"))
		w.Write([]byte("caption body"))
	}))
	defer srv.Close()

	c := New(testConfig(0))
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "caption body", string(resp.Body))
}

func TestClientDoHeadersOverrideDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "de-DE", r.Header.Get("Accept-Language"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(testConfig(0))
	resp, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, map[string]string{
		"User-Agent":      "custom-agent",
		"Accept-Language": "de-DE",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(testConfig(3))
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no captions", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(3))
	_, err := c.Get(context.Background(), srv.URL)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Body), "no captions")
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(testConfig(1))
	_, err := c.Get(context.Background(), srv.URL)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, http.StatusTooManyRequests, rlErr.StatusCode)
	assert.Equal(t, 2*time.Second, rlErr.RetryAfter)

	var re *retry.RetryableError
	assert.ErrorAs(t, err, &re)
}

func TestClientCircuitOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(0)
	cfg.CircuitBreaker.FailureThreshold = 2
	c := New(cfg)

	for n := 0; n < 2; n++ {
		_, err := c.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}
	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClientCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testConfig(3))
	_, err := c.Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Zero(t, parseRetryAfter(h))

	h.Set("Retry-After", "30")
	assert.Equal(t, 30*time.Second, parseRetryAfter(h))

	h.Set("Retry-After", "soon")
	assert.Zero(t, parseRetryAfter(h))
}
