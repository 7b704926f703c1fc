package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "ytclipper/http"
	"ytclipper/internal/retry"
	"ytclipper/youtube/innertube"
)

// newTrackServer serves a player response listing one auto-generated
// English track at /track, and the sampleJSON3 body there.
func newTrackServer(t *testing.T, playerBody string) (*TrackCaptionClient, *httptest.Server) {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/player":
			body := playerBody
			if body == "" {
				body = `{"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
					{"baseUrl": "` + srv.URL + `/track?v=dQw4w9WgXcQ&kind=asr&fmt=srv3", "languageCode": "en", "kind": "asr"}
				]}}}`
			}
			w.Write([]byte(body))
		case "/track":
			assert.Equal(t, "json3", r.URL.Query().Get("fmt"))
			assert.Equal(t, "asr", r.URL.Query().Get("kind"))
			w.Write([]byte(sampleJSON3))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.Retry = retry.Config{MaxRetries: 0}
	cfg.RateLimiter = httpclient.RateLimiterConfig{}
	hc := httpclient.New(cfg)
	player := innertube.NewClient(hc, innertube.WithEndpoint(srv.URL+"/player"), innertube.WithRetryConfig(retry.Config{}))
	return NewTrackCaptionClient(player, NewCaptionClient(hc, srv.URL+"/api/timedtext")), srv
}

func TestTrackCaptionClient(t *testing.T) {
	c, _ := newTrackServer(t, "")

	segs, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "Hello everyone", segs[0].Text)
}

func TestTrackCaptionClientNoMatchingLanguage(t *testing.T) {
	c, _ := newTrackServer(t, "")
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "ja")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestTrackCaptionClientNoTracks(t *testing.T) {
	c, _ := newTrackServer(t, `{"playabilityStatus": {"status": "OK"}}`)
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
	assert.ErrorIs(t, err, innertube.ErrNoTracks)
}

func TestFetchTrackRejectsBadURL(t *testing.T) {
	c := NewCaptionClient(nil, "")
	_, err := c.FetchTrack(context.Background(), "not a url", "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

type captionFunc func(ctx context.Context, videoID, lang string) ([]CaptionSegment, error)

func (f captionFunc) FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionSegment, error) {
	return f(ctx, videoID, lang)
}

func TestCaptionChain(t *testing.T) {
	missing := captionFunc(func(context.Context, string, string) ([]CaptionSegment, error) {
		return nil, ErrNoCaptions
	})
	empty := captionFunc(func(context.Context, string, string) ([]CaptionSegment, error) {
		return nil, nil
	})
	found := captionFunc(func(context.Context, string, string) ([]CaptionSegment, error) {
		return []CaptionSegment{{Text: "hi"}}, nil
	})
	broken := captionFunc(func(context.Context, string, string) ([]CaptionSegment, error) {
		return nil, errors.New("boom")
	})

	segs, err := CaptionChain{missing, empty, found}.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	require.NoError(t, err)
	assert.Equal(t, "hi", segs[0].Text)

	_, err = CaptionChain{missing, broken}.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
	assert.ErrorContains(t, err, "boom")

	_, err = CaptionChain{empty}.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CaptionChain{missing, found}.FetchCaptions(ctx, "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrackCaptionClientNullPlayerResponse(t *testing.T) {
	c, _ := newTrackServer(t, `null`)
	_, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, ErrNoCaptions)
	assert.ErrorIs(t, err, innertube.ErrNoTracks)
}
