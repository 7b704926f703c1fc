// Package analysis runs transcript and metadata retrieval concurrently,
// sends a bounded prompt to a content analyzer and validates the moments it
// proposes.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ytclipper/transcript"
	"ytclipper/youtube"
)

var tracer = otel.Tracer("ytclipper/analysis")

// TranscriptSource acquires a transcript for a video.
type TranscriptSource interface {
	Acquire(ctx context.Context, req transcript.Request) (*transcript.Transcript, error)
}

// CommentSource returns top-level comment texts for a video.
type CommentSource interface {
	Comments(ctx context.Context, videoID string, max int64) ([]string, error)
}

// DetailsSource returns video metadata.
type DetailsSource interface {
	VideoDetails(ctx context.Context, videoID string) (*youtube.VideoDetails, error)
}

// DetailsFunc adapts a function to DetailsSource.
type DetailsFunc func(ctx context.Context, videoID string) (*youtube.VideoDetails, error)

func (f DetailsFunc) VideoDetails(ctx context.Context, videoID string) (*youtube.VideoDetails, error) {
	return f(ctx, videoID)
}

// Result is the outcome of one analysis.
type Result struct {
	VideoID string          `json:"video_id"`
	Tier    transcript.Tier `json:"transcript_tier"`
	// Moments are in the order the analyzer returned them; they are not
	// re-sorted by score.
	Moments []Moment              `json:"moments"`
	Details *youtube.VideoDetails `json:"details,omitempty"`
	// CommentCount is the number of comments included in the prompt input.
	CommentCount int `json:"comment_count"`
}

// Orchestrator composes transcript acquisition, metadata retrieval and the
// analyzer. Comments and Details may be nil.
type Orchestrator struct {
	Transcripts TranscriptSource
	Comments    CommentSource
	Details     DetailsSource
	Analyzer    Analyzer

	TranscriptBudget int
	CommentBudget    int
	// Timeout bounds the analyzer call.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewOrchestrator returns an Orchestrator with default budgets.
func NewOrchestrator(transcripts TranscriptSource, analyzer Analyzer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		Transcripts:      transcripts,
		Analyzer:         analyzer,
		TranscriptBudget: DefaultTranscriptBudget,
		CommentBudget:    DefaultCommentBudget,
		Timeout:          2 * time.Minute,
		Logger:           logger,
	}
}

// Analyze resolves reference, gathers inputs and returns the analyzer's
// moments. Errors match youtube.ErrInvalidReference,
// transcript.ErrNoTranscript, ErrAnalysisFailure or ErrResponseParse.
func (o *Orchestrator) Analyze(ctx context.Context, reference string) (*Result, error) {
	src, ok := youtube.Resolve(reference)
	if !ok {
		return nil, fmt.Errorf("%w: %q", youtube.ErrInvalidReference, reference)
	}
	return o.AnalyzeSource(ctx, src)
}

// AnalyzeSource runs the analysis for an already resolved video.
func (o *Orchestrator) AnalyzeSource(ctx context.Context, src youtube.VideoSource) (_ *Result, err error) {
	if o.Analyzer == nil {
		return nil, &AnalysisError{VideoID: src.ID, Err: ErrAnalyzerNotConfigured}
	}

	ctx, span := tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(attribute.String("video.id", src.ID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := o.logger().With(slog.String("video_id", src.ID))
	start := time.Now()

	var (
		tr       *transcript.Transcript
		comments []string
		details  *youtube.VideoDetails
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctx, span := tracer.Start(gctx, "analysis.transcript")
		defer span.End()
		var err error
		tr, err = o.Transcripts.Acquire(ctx, transcript.Request{VideoID: src.ID, URL: src.URL})
		if err != nil {
			span.RecordError(err)
		}
		return err
	})
	if o.Comments != nil {
		g.Go(func() error {
			ctx, span := tracer.Start(gctx, "analysis.comments")
			defer span.End()
			c, err := o.Comments.Comments(ctx, src.ID, youtube.DefaultCommentPageSize)
			if err != nil {
				span.RecordError(err)
				log.Warn("comments unavailable, continuing without them", slog.Any("error", err))
				return nil
			}
			comments = c
			return nil
		})
	}
	if o.Details != nil {
		g.Go(func() error {
			ctx, span := tracer.Start(gctx, "analysis.details")
			defer span.End()
			d, err := o.Details.VideoDetails(ctx, src.ID)
			if err != nil {
				span.RecordError(err)
				log.Warn("video details unavailable", slog.Any("error", err))
				return nil
			}
			details = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	text := tr.FullText()
	prompt := BuildPrompt(text, comments, o.TranscriptBudget, o.CommentBudget)
	span.SetAttributes(
		attribute.String("transcript.tier", string(tr.Tier)),
		attribute.Int("transcript.chars", len(text)),
		attribute.Int("comments.count", len(comments)),
		attribute.Int("prompt.chars", len(prompt)),
	)

	actx := ctx
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	resp, err := o.Analyzer.Complete(actx, prompt)
	if err != nil {
		log.Error("analyzer call failed", slog.Any("error", err))
		return nil, &AnalysisError{VideoID: src.ID, Err: err}
	}

	moments, err := ParseResponse(resp)
	if err != nil {
		log.Error("analyzer response rejected", slog.Any("error", err))
		return nil, err
	}

	log.Info("analysis complete",
		slog.String("tier", string(tr.Tier)),
		slog.Int("moments", len(moments)),
		slog.Duration("elapsed", time.Since(start)))
	return &Result{
		VideoID:      src.ID,
		Tier:         tr.Tier,
		Moments:      moments,
		Details:      details,
		CommentCount: len(comments),
	}, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
