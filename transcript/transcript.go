// Package transcript obtains a transcript for a video through an ordered list
// of strategies: platform captions first, then speech-to-text over a
// downloaded audio track.
package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Tier names the strategy that produced a transcript.
type Tier string

const (
	TierNative Tier = "native"
	TierSpeech Tier = "speech-to-text"
)

// Segment is one timed piece of a transcript.
type Segment struct {
	Text       string `json:"text"`
	OffsetMs   int64  `json:"offset_ms"`
	DurationMs int64  `json:"duration_ms"`
}

// Transcript is the result of a successful acquisition. Native transcripts
// carry Segments; speech-to-text transcripts carry only Text.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Tier     Tier      `json:"tier"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Text     string    `json:"text,omitempty"`
}

// FullText returns the transcript as one string: segment texts joined by a
// space, or Text when there are no segments.
func (t *Transcript) FullText() string {
	if t == nil {
		return ""
	}
	if len(t.Segments) == 0 {
		return t.Text
	}
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Empty reports whether the transcript has no text at all.
func (t *Transcript) Empty() bool {
	return strings.TrimSpace(t.FullText()) == ""
}

// Request identifies the video to transcribe.
type Request struct {
	VideoID string
	URL     string
}

// Strategy is one transcript tier. Fetch returns a *TierError when the next
// tier should be tried; any other error aborts acquisition.
type Strategy interface {
	Tier() Tier
	Fetch(ctx context.Context, req Request) (*Transcript, error)
}

// Acquirer runs strategies strictly in order until one produces text.
type Acquirer struct {
	strategies []Strategy
	Logger     *slog.Logger
}

// NewAcquirer returns an Acquirer over strategies, tried in the given order.
func NewAcquirer(logger *slog.Logger, strategies ...Strategy) *Acquirer {
	return &Acquirer{strategies: strategies, Logger: logger}
}

// Acquire returns the first non-empty transcript. When every tier fails it
// returns a *NoTranscriptError.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (*Transcript, error) {
	log := a.logger().With(slog.String("video_id", req.VideoID))
	var attempts []error

	for _, s := range a.strategies {
		start := time.Now()
		t, err := s.Fetch(ctx, req)
		if err == nil && t.Empty() {
			err = &TierError{Tier: s.Tier(), Err: ErrEmptyTranscript}
		}
		if err != nil {
			if !errors.Is(err, ErrTierUnavailable) {
				return nil, err
			}
			log.Info("transcript tier unavailable",
				slog.String("tier", string(s.Tier())),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", err))
			attempts = append(attempts, err)
			continue
		}

		t.VideoID = req.VideoID
		t.Tier = s.Tier()
		log.Info("transcript acquired",
			slog.String("tier", string(t.Tier)),
			slog.Int("segments", len(t.Segments)),
			slog.Int("chars", len(t.FullText())),
			slog.Duration("elapsed", time.Since(start)))
		return t, nil
	}

	return nil, &NoTranscriptError{VideoID: req.VideoID, Attempts: attempts}
}

func (a *Acquirer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
