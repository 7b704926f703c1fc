package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ytclipper/youtube"
)

// CaptionFetcher returns the platform caption track for a video in lang.
type CaptionFetcher interface {
	FetchCaptions(ctx context.Context, videoID, lang string) ([]youtube.CaptionSegment, error)
}

// Native fetches platform captions, trying each language in order.
type Native struct {
	Captions  CaptionFetcher
	Languages []string
	Logger    *slog.Logger
}

func (n *Native) Tier() Tier { return TierNative }

// Fetch returns the first non-empty caption track. Missing captions and
// request failures are reported as a *TierError; cancellation is not.
func (n *Native) Fetch(ctx context.Context, req Request) (*Transcript, error) {
	langs := n.Languages
	if len(langs) == 0 {
		langs = []string{"en"}
	}

	var errs []error
	for _, lang := range langs {
		caps, err := n.Captions.FetchCaptions(ctx, req.VideoID, lang)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			n.logger().Debug("captions unavailable",
				slog.String("video_id", req.VideoID),
				slog.String("lang", lang),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", lang, err))
			continue
		}
		if len(caps) == 0 {
			errs = append(errs, fmt.Errorf("%s: %w", lang, youtube.ErrNoCaptions))
			continue
		}

		segs := make([]Segment, len(caps))
		for i, c := range caps {
			segs[i] = Segment{Text: c.Text, OffsetMs: c.OffsetMs, DurationMs: c.DurationMs}
		}
		return &Transcript{Language: lang, Segments: segs}, nil
	}
	return nil, &TierError{Tier: TierNative, Err: errors.Join(errs...)}
}

func (n *Native) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}
