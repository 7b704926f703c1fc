package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	httpclient "ytclipper/http"
)

// DefaultTimedtextURL is the platform caption endpoint.
const DefaultTimedtextURL = "https://www.youtube.com/api/timedtext"

// CaptionSegment is one caption cue.
type CaptionSegment struct {
	Text       string `json:"text"`
	OffsetMs   int64  `json:"offset_ms"`
	DurationMs int64  `json:"duration_ms"`
}

// CaptionClient fetches native captions from the timedtext endpoint.
type CaptionClient struct {
	httpClient *httpclient.Client
	baseURL    string
}

// NewCaptionClient creates a caption client. An empty baseURL uses
// DefaultTimedtextURL; a nil client uses httpclient defaults.
func NewCaptionClient(client *httpclient.Client, baseURL string) *CaptionClient {
	if client == nil {
		client = httpclient.New(nil)
	}
	if baseURL == "" {
		baseURL = DefaultTimedtextURL
	}
	return &CaptionClient{httpClient: client, baseURL: baseURL}
}

// timedtextResponse is the json3 caption format.
type timedtextResponse struct {
	Events []timedtextEvent `json:"events"`
}

type timedtextEvent struct {
	TStartMs    json.Number `json:"tStartMs"`
	DDurationMs json.Number `json:"dDurationMs"`
	Segs        []struct {
		UTF8 string `json:"utf8"`
	} `json:"segs"`
}

// FetchCaptions returns the caption cues for videoID in lang, in
// chronological order. A missing track or an empty body yields ErrNoCaptions.
func (c *CaptionClient) FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionSegment, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: empty video id", ErrInvalidReference)
	}
	if lang == "" {
		lang = "en"
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")

	return c.fetch(ctx, c.baseURL+"?"+params.Encode(), videoID, lang)
}

// FetchTrack fetches a caption track by its full URL, as listed by the
// player API. The json3 format is forced.
func (c *CaptionClient) FetchTrack(ctx context.Context, trackURL, videoID, lang string) ([]CaptionSegment, error) {
	u, err := url.Parse(trackURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: caption track url %q", ErrInvalidReference, trackURL)
	}
	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()
	return c.fetch(ctx, u.String(), videoID, lang)
}

func (c *CaptionClient) fetch(ctx context.Context, target, videoID, lang string) ([]CaptionSegment, error) {
	resp, err := c.httpClient.Get(ctx, target)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s (%s)", ErrNoCaptions, videoID, lang)
		}
		return nil, fmt.Errorf("timedtext request: %w", err)
	}

	// The endpoint answers 200 with an empty body when no track exists.
	if len(strings.TrimSpace(string(resp.Body))) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoCaptions, videoID, lang)
	}

	segments, err := parseTimedtext(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoCaptions, videoID, lang)
	}
	return segments, nil
}

func parseTimedtext(data []byte) ([]CaptionSegment, error) {
	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse timedtext response: %w", err)
	}

	var segments []CaptionSegment
	for _, ev := range resp.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var text strings.Builder
		for _, seg := range ev.Segs {
			text.WriteString(seg.UTF8)
		}
		cleaned := strings.Join(strings.Fields(text.String()), " ")
		if cleaned == "" {
			continue
		}
		start, _ := ev.TStartMs.Int64()
		dur, _ := ev.DDurationMs.Int64()
		segments = append(segments, CaptionSegment{Text: cleaned, OffsetMs: start, DurationMs: dur})
	}
	return segments, nil
}
