package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytclipper/internal/retry"
)

// DefaultCommentPageSize is the number of top-level comment threads fetched
// for analysis.
const DefaultCommentPageSize = 100

// DataClient reads video details and comments through the YouTube Data API v3.
type DataClient struct {
	service     *youtube.Service
	RetryConfig retry.Config
}

// NewDataClient creates a Data API client authenticated with apiKey. Extra
// options are appended after the key (tests use option.WithEndpoint).
func NewDataClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataClient, error) {
	if apiKey == "" {
		return nil, ErrDataAPIDisabled
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	rc := retry.DefaultConfig()
	rc.MaxRetries = 2
	return &DataClient{service: service, RetryConfig: rc}, nil
}

// VideoDetails fetches snippet, statistics and contentDetails for videoID.
func (c *DataClient) VideoDetails(ctx context.Context, videoID string) (*VideoDetails, error) {
	var details *VideoDetails
	err := retry.Do(ctx, c.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
			Id(videoID).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			return retry.Permanent(ErrVideoNotFound)
		}
		details = detailsFromVideo(resp.Items[0])
		return nil
	})
	if err != nil {
		return nil, &APIError{Call: "videos.list", VideoID: videoID, Err: err}
	}
	return details, nil
}

// Comments returns the text of up to max top-level comments ordered by
// relevance. Disabled comments surface as an error; callers decide whether
// that is fatal.
func (c *DataClient) Comments(ctx context.Context, videoID string, max int64) ([]string, error) {
	if max <= 0 {
		max = DefaultCommentPageSize
	}

	var comments []string
	err := retry.Do(ctx, c.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(max).
			Order("relevance").
			TextFormat("plainText").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		comments = comments[:0]
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			text := strings.TrimSpace(item.Snippet.TopLevelComment.Snippet.TextDisplay)
			if text != "" {
				comments = append(comments, text)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &APIError{Call: "commentThreads.list", VideoID: videoID, Err: err}
	}
	return comments, nil
}

func detailsFromVideo(v *youtube.Video) *VideoDetails {
	d := &VideoDetails{ID: v.Id, Source: "data-api"}
	if s := v.Snippet; s != nil {
		d.Title = s.Title
		d.Description = s.Description
		d.ChannelID = s.ChannelId
		d.ChannelTitle = s.ChannelTitle
		d.Tags = s.Tags
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			d.PublishedAt = t
		}
	}
	if st := v.Statistics; st != nil {
		d.ViewCount = int64(st.ViewCount)
		d.LikeCount = int64(st.LikeCount)
		d.CommentCount = int64(st.CommentCount)
	}
	if cd := v.ContentDetails; cd != nil {
		d.Duration = parseISODuration(cd.Duration)
	}
	return d
}

var isoDurationRegex = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseISODuration converts a Data API duration such as "PT1H2M3S" to
// seconds. Unparseable input yields 0.
func parseISODuration(s string) int {
	m := isoDurationRegex.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		total += n * unit
	}
	return total
}

// apiErrorClassifier retries quota/rate errors and server errors.
// Other 4xx responses (bad key, comments disabled, not found) are permanent.
func apiErrorClassifier(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return true
		}
		for _, e := range gerr.Errors {
			if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
				return true
			}
		}
		return false
	}
	return true
}
