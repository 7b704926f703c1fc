// Package innertube provides access to YouTube's internal Innertube player
// API, used to discover the caption tracks of a video.
package innertube

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	ythttp "ytclipper/http"
	"ytclipper/internal/retry"
)

const (
	// DefaultPlayerEndpoint is the Innertube API endpoint returning player
	// data for a video, including its caption track list.
	DefaultPlayerEndpoint = "https://www.youtube.com/youtubei/v1/player"

	// defaultClientName is the client identifier for web requests.
	defaultClientName = "WEB"
	// defaultClientVersion is the client version for web requests.
	defaultClientVersion = "2.20240101.00.00"
)

// ErrNoTracks indicates the player response lists no caption tracks.
var ErrNoTracks = stderrors.New("innertube: no caption tracks")

// Client handles Innertube API interactions with rate limiting and retry logic.
type Client struct {
	httpClient  *ythttp.Client
	endpoint    string
	retryConfig retry.Config
}

// ClientOption configures the Innertube client.
type ClientOption func(*Client)

// WithRetryConfig sets custom retry configuration.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retryConfig = cfg
	}
}

// WithEndpoint overrides the player endpoint.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) {
		c.endpoint = url
	}
}

// NewClient creates a new Innertube API client.
func NewClient(httpClient *ythttp.Client, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  httpClient,
		endpoint:    DefaultPlayerEndpoint,
		retryConfig: retry.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PlayerRequest represents a request to the player endpoint.
type PlayerRequest struct {
	Context ClientContext `json:"context"`
	VideoID string        `json:"videoId"`
}

// ClientContext contains client identification for the API request.
type ClientContext struct {
	Client InnertubeClient `json:"client"`
}

// InnertubeClient identifies the client making the request.
type InnertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
	GL            string `json:"gl"`
}

// PlayerResponse is the subset of the player response used here.
type PlayerResponse struct {
	PlayabilityStatus *PlayabilityStatus `json:"playabilityStatus,omitempty"`
	Captions          *Captions          `json:"captions,omitempty"`
}

// PlayabilityStatus reports whether the video can be played.
type PlayabilityStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Captions wraps the caption track list renderer.
type Captions struct {
	Renderer *CaptionTrackList `json:"playerCaptionsTracklistRenderer,omitempty"`
}

// CaptionTrackList lists available caption tracks.
type CaptionTrackList struct {
	CaptionTracks []CaptionTrack `json:"captionTracks,omitempty"`
}

// CaptionTrack is one caption track. Kind is "asr" for auto-generated
// tracks and empty for uploaded ones.
type CaptionTrack struct {
	BaseURL      string   `json:"baseUrl"`
	LanguageCode string   `json:"languageCode"`
	Kind         string   `json:"kind,omitempty"`
	Name         TextRuns `json:"name"`
}

// AutoGenerated reports whether the track is speech-recognized by the platform.
func (t CaptionTrack) AutoGenerated() bool { return t.Kind == "asr" }

// TextRuns represents text that may be split into multiple runs.
type TextRuns struct {
	SimpleText string `json:"simpleText,omitempty"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs,omitempty"`
}

// GetText returns the full text from either SimpleText or concatenated Runs.
func (t *TextRuns) GetText() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var parts []string
	for _, run := range t.Runs {
		parts = append(parts, run.Text)
	}
	return strings.Join(parts, "")
}

// Player fetches player data for videoID.
func (c *Client) Player(ctx context.Context, videoID string) (*PlayerResponse, error) {
	req := &PlayerRequest{
		Context: ClientContext{
			Client: InnertubeClient{
				ClientName:    defaultClientName,
				ClientVersion: defaultClientVersion,
				HL:            "en",
				GL:            "US",
			},
		},
		VideoID: videoID,
	}

	var resp *PlayerResponse
	err := retry.Do(ctx, c.retryConfig, innertubeErrorClassifier, func(ctx context.Context) error {
		body, err := json.Marshal(req)
		if err != nil {
			return retry.Permanent(fmt.Errorf("marshal request: %w", err))
		}

		headers := map[string]string{
			"Content-Type": "application/json",
			"Origin":       "https://www.youtube.com",
			"Referer":      "https://www.youtube.com/",
		}

		httpResp, err := c.httpClient.Do(ctx, http.MethodPost, c.endpoint, body, headers)
		if err != nil {
			return fmt.Errorf("player request: %w", err)
		}

		var decoded PlayerResponse
		if err := json.Unmarshal(httpResp.Body, &decoded); err != nil {
			return retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
		}
		resp = &decoded

		return nil
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// CaptionTracks returns the caption tracks listed for videoID.
func (c *Client) CaptionTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	resp, err := c.Player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if ps := resp.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
		return nil, fmt.Errorf("%w: %s is %s: %s", ErrNoTracks, videoID, ps.Status, ps.Reason)
	}
	if resp.Captions == nil || resp.Captions.Renderer == nil || len(resp.Captions.Renderer.CaptionTracks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTracks, videoID)
	}
	return resp.Captions.Renderer.CaptionTracks, nil
}

// SelectTrack picks the track for lang, preferring uploaded captions over
// auto-generated ones. It matches on the primary subtag, so "en" also
// matches "en-GB".
func SelectTrack(tracks []CaptionTrack, lang string) (CaptionTrack, bool) {
	var auto *CaptionTrack
	for i, t := range tracks {
		if !langMatches(t.LanguageCode, lang) {
			continue
		}
		if !t.AutoGenerated() {
			return t, true
		}
		if auto == nil {
			auto = &tracks[i]
		}
	}
	if auto != nil {
		return *auto, true
	}
	return CaptionTrack{}, false
}

func langMatches(code, lang string) bool {
	code, lang = strings.ToLower(code), strings.ToLower(lang)
	if code == lang {
		return true
	}
	primary, _, _ := strings.Cut(code, "-")
	return primary == lang
}

// innertubeErrorClassifier determines if an Innertube error is retryable.
func innertubeErrorClassifier(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}

	// The HTTP client already retried rate limits itself; a surfaced rate
	// limit means its budget is spent.
	var rateLimitErr *ythttp.RateLimitError
	if stderrors.As(err, &rateLimitErr) {
		return false
	}

	// Check for HTTP errors
	var httpErr *ythttp.HTTPError
	if stderrors.As(err, &httpErr) {
		// Retry on 5xx errors and 403 (bot detection)
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == 403
	}

	// Default to retryable for transient errors
	return true
}
