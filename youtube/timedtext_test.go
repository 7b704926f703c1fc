package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "ytclipper/http"
	"ytclipper/internal/retry"
)

const sampleJSON3 = `{
  "wireMagic": "pb3",
  "events": [
    {"tStartMs": 0, "dDurationMs": 1500, "segs": [{"utf8": "Hello "}, {"utf8": "everyone"}]},
    {"tStartMs": 1500, "dDurationMs": 100, "aAppend": 1, "segs": [{"utf8": "\n"}]},
    {"tStartMs": 1600, "dDurationMs": 2000},
    {"tStartMs": "3600", "dDurationMs": "2400", "segs": [{"utf8": "welcome  back"}]}
  ]
}`

func newTestCaptionClient(t *testing.T, handler http.HandlerFunc) *CaptionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.Retry = retry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	cfg.RateLimiter = httpclient.RateLimiterConfig{}
	return NewCaptionClient(httpclient.New(cfg), srv.URL+"/api/timedtext")
}

func TestFetchCaptions(t *testing.T) {
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/timedtext", r.URL.Path)
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		assert.Equal(t, "de", r.URL.Query().Get("lang"))
		assert.Equal(t, "json3", r.URL.Query().Get("fmt"))
		w.Write([]byte(sampleJSON3))
	})

	segs, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "de")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, CaptionSegment{Text: "Hello everyone", OffsetMs: 0, DurationMs: 1500}, segs[0])
	assert.Equal(t, CaptionSegment{Text: "welcome back", OffsetMs: 3600, DurationMs: 2400}, segs[1])
}

func TestFetchCaptionsDefaultsToEnglish(t *testing.T) {
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		w.Write([]byte(sampleJSON3))
	})
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
}

func TestFetchCaptionsEmptyBody(t *testing.T) {
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestFetchCaptionsNoEvents(t *testing.T) {
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events": []}`))
	})
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestFetchCaptionsNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
	assert.EqualValues(t, 1, calls.Load(), "404 is not retried")
}

func TestFetchCaptionsServerError(t *testing.T) {
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCaptions)

	var httpErr *httpclient.HTTPError
	assert.ErrorAs(t, err, &httpErr)
}

func TestFetchCaptionsMalformed(t *testing.T) {
	c := newTestCaptionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>consent</html>"))
	})
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorContains(t, err, "parse timedtext response")
}

func TestFetchCaptionsEmptyID(t *testing.T) {
	c := NewCaptionClient(nil, "")
	_, err := c.FetchCaptions(context.Background(), "", "en")
	assert.ErrorIs(t, err, ErrInvalidReference)
}
