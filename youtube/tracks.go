package youtube

import (
	"context"
	"errors"
	"fmt"

	"ytclipper/youtube/innertube"
)

// TrackCaptionClient discovers caption tracks through the player API and
// fetches the best match for the requested language. It finds tracks the
// plain timedtext query misses, auto-generated ones in particular.
type TrackCaptionClient struct {
	player   *innertube.Client
	captions *CaptionClient
}

// NewTrackCaptionClient combines a player client for discovery with a
// caption client for download.
func NewTrackCaptionClient(player *innertube.Client, captions *CaptionClient) *TrackCaptionClient {
	return &TrackCaptionClient{player: player, captions: captions}
}

// FetchCaptions implements the same contract as CaptionClient.FetchCaptions.
func (c *TrackCaptionClient) FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionSegment, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: empty video id", ErrInvalidReference)
	}
	if lang == "" {
		lang = "en"
	}

	tracks, err := c.player.CaptionTracks(ctx, videoID)
	if err != nil {
		if errors.Is(err, innertube.ErrNoTracks) {
			return nil, fmt.Errorf("%w: %w", ErrNoCaptions, err)
		}
		return nil, fmt.Errorf("list caption tracks: %w", err)
	}

	track, ok := innertube.SelectTrack(tracks, lang)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoCaptions, videoID, lang)
	}
	return c.captions.FetchTrack(ctx, track.BaseURL, videoID, track.LanguageCode)
}

// CaptionFetcher is satisfied by CaptionClient and TrackCaptionClient.
type CaptionFetcher interface {
	FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionSegment, error)
}

// CaptionChain tries each fetcher in order and returns the first non-empty
// result. Context errors abort the chain.
type CaptionChain []CaptionFetcher

// FetchCaptions implements CaptionFetcher.
func (chain CaptionChain) FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionSegment, error) {
	var errs []error
	for _, f := range chain {
		segments, err := f.FetchCaptions(ctx, videoID, lang)
		if err == nil && len(segments) > 0 {
			return segments, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoCaptions, videoID, lang)
	}
	return nil, errors.Join(errs...)
}
