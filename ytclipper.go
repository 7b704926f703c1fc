package ytclipper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"

	"ytclipper/analysis"
	"ytclipper/config"
	httpclient "ytclipper/http"
	"ytclipper/internal/retry"
	"ytclipper/media"
	"ytclipper/storage"
	"ytclipper/transcript"
	"ytclipper/youtube"
	"ytclipper/youtube/innertube"
)

// Pipeline wires the media cache, clip extractor, transcript acquirer and
// analysis orchestrator from one Config. It is safe for concurrent use.
type Pipeline struct {
	cfg    *config.Config
	layout storage.Layout
	logger *slog.Logger

	ytdlp       *youtube.Ytdlp
	httpClient  *httpclient.Client
	data        *youtube.DataClient
	cache       *media.Cache
	extractor   *media.Extractor
	transcripts *transcript.Acquirer
	analyzer    *analysis.Orchestrator
}

type options struct {
	logger         *slog.Logger
	analyzer       analysis.Analyzer
	httpClient     *httpclient.Client
	captionBaseURL string
	playerEndpoint string
	dataAPIOptions []option.ClientOption
}

// Option customizes a Pipeline.
type Option func(*options)

// WithLogger sets the logger used by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAnalyzer replaces the LLM analyzer built from the config.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// WithHTTPClient sets the client used for caption requests.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithCaptionBaseURL overrides the timedtext endpoint.
func WithCaptionBaseURL(u string) Option {
	return func(o *options) { o.captionBaseURL = u }
}

// WithPlayerEndpoint overrides the player API endpoint used to discover
// caption tracks.
func WithPlayerEndpoint(u string) Option {
	return func(o *options) { o.playerEndpoint = u }
}

// WithDataAPIOptions passes extra client options to the Data API service.
func WithDataAPIOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.dataAPIOptions = append(o.dataAPIOptions, opts...) }
}

// New builds a Pipeline. It creates the media root directories. The Data
// API client is only created when cfg.YouTubeAPIKey is set; without it
// comments are skipped and details come from yt-dlp.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	layout, err := storage.NewLayout(cfg.MediaRoot)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, layout: layout, logger: logger}

	rc := retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
		JitterFraction: retry.DefaultConfig().JitterFraction,
	}

	p.ytdlp = youtube.NewYtdlp(cfg.YtdlpPath, cfg.DownloadTimeout, logger)

	p.cache = media.NewCache(layout, p.ytdlp, logger)
	p.cache.MinViableBytes = cfg.MinViableBytes
	p.cache.RetryConfig = rc
	p.cache.FlightTimeout = time.Duration(cfg.MaxRetries+1)*cfg.DownloadTimeout + time.Duration(cfg.MaxRetries)*cfg.MaxBackoff

	p.extractor = media.NewExtractor(layout, cfg.FfmpegPath, cfg.TranscodeTimeout, logger)
	p.extractor.MinViableBytes = cfg.MinViableBytes

	p.httpClient = o.httpClient
	if p.httpClient == nil {
		hc := httpclient.DefaultConfig()
		hc.Timeout = cfg.HTTPTimeout
		hc.Retry = rc
		p.httpClient = httpclient.New(hc)
	}

	captions := youtube.NewCaptionClient(p.httpClient, o.captionBaseURL)
	playerOpts := []innertube.ClientOption{innertube.WithRetryConfig(rc)}
	if o.playerEndpoint != "" {
		playerOpts = append(playerOpts, innertube.WithEndpoint(o.playerEndpoint))
	}
	player := innertube.NewClient(p.httpClient, playerOpts...)
	native := &transcript.Native{
		Captions: youtube.CaptionChain{
			captions,
			youtube.NewTrackCaptionClient(player, captions),
		},
		Languages: cfg.CaptionLanguages,
		Logger:    logger,
	}
	speech := &transcript.Speech{
		Audio:      p.ytdlp,
		ScratchDir: layout.ScratchDir(),
		Command:    cfg.RecognizerCommand,
		Timeout:    cfg.RecognizerTimeout,
		Logger:     logger,
	}
	p.transcripts = transcript.NewAcquirer(logger, native, speech)

	if cfg.YouTubeAPIKey != "" {
		p.data, err = youtube.NewDataClient(ctx, cfg.YouTubeAPIKey, o.dataAPIOptions...)
		if err != nil {
			return nil, err
		}
		p.data.RetryConfig = rc
	}

	an := o.analyzer
	if an == nil && cfg.LLMAPIKey != "" {
		an = analysis.NewLLMAnalyzer(analysis.LLMConfig{
			BaseURL:      cfg.LLMBaseURL,
			APIKey:       cfg.LLMAPIKey,
			FallbackKeys: cfg.LLMAPIKeyFallbacks,
			Model:        cfg.LLMModel,
			Temperature:  cfg.LLMTemperature,
			MaxTokens:    cfg.LLMMaxTokens,
			Timeout:      cfg.AnalysisTimeout,
		})
	}

	p.analyzer = analysis.NewOrchestrator(p.transcripts, an, logger)
	p.analyzer.TranscriptBudget = cfg.TranscriptBudget
	p.analyzer.CommentBudget = cfg.CommentBudget
	p.analyzer.Timeout = cfg.AnalysisTimeout
	p.analyzer.Details = analysis.DetailsFunc(p.Details)
	if p.data != nil {
		p.analyzer.Comments = p.data
	}

	return p, nil
}

// Layout returns the media root layout.
func (p *Pipeline) Layout() storage.Layout { return p.layout }

// Resolve turns a video reference into its canonical identifier and URL.
func (p *Pipeline) Resolve(reference string) (youtube.VideoSource, error) {
	src, ok := youtube.Resolve(reference)
	if !ok {
		return youtube.VideoSource{}, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}
	return src, nil
}

// AcquireMedia returns the cached mp4 for id, downloading videoURL on a
// miss. An empty id is resolved from videoURL.
func (p *Pipeline) AcquireMedia(ctx context.Context, videoURL, id string) (*media.CachedMedia, error) {
	if id == "" {
		src, err := p.Resolve(videoURL)
		if err != nil {
			return nil, &media.DownloadError{VideoID: videoURL, Err: err}
		}
		id = src.ID
	}
	return p.cache.Acquire(ctx, videoURL, id)
}

// ExtractClip renders a sub-range of a local media file into extracted/.
func (p *Pipeline) ExtractClip(ctx context.Context, req media.ClipRequest) (*media.ClipArtifact, error) {
	return p.extractor.Extract(ctx, req)
}

// Clip resolves reference, makes sure its media is cached and renders
// [start, end) of it. Offsets are validated before anything is downloaded.
func (p *Pipeline) Clip(ctx context.Context, reference, start, end, name string) (*media.ClipArtifact, error) {
	if _, err := media.Duration(start, end); err != nil {
		return nil, err
	}
	src, err := p.Resolve(reference)
	if err != nil {
		return nil, err
	}
	m, err := p.cache.Acquire(ctx, src.URL, src.ID)
	if err != nil {
		return nil, err
	}
	return p.extractor.Extract(ctx, media.ClipRequest{
		SourcePath: m.Path,
		Start:      start,
		End:        end,
		OutputName: name,
	})
}

// AcquireTranscript returns a transcript for id, trying native captions
// before speech-to-text. An empty videoURL uses the canonical watch URL.
func (p *Pipeline) AcquireTranscript(ctx context.Context, id, videoURL string) (*transcript.Transcript, error) {
	if !youtube.IsValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, id)
	}
	if videoURL == "" {
		videoURL = youtube.CanonicalURL(id)
	}
	return p.transcripts.Acquire(ctx, transcript.Request{VideoID: id, URL: videoURL})
}

// Analyze proposes up to five clip-worthy moments for reference.
func (p *Pipeline) Analyze(ctx context.Context, reference string) (*analysis.Result, error) {
	return p.analyzer.Analyze(ctx, reference)
}

// Details returns video metadata from the Data API when a key is
// configured, otherwise from yt-dlp.
func (p *Pipeline) Details(ctx context.Context, id string) (*youtube.VideoDetails, error) {
	if p.data != nil {
		return p.data.VideoDetails(ctx, id)
	}
	return p.ytdlp.Metadata(ctx, youtube.CanonicalURL(id))
}

// Comments returns top-level comments for id. It fails with
// ErrDataAPIDisabled when no API key is configured.
func (p *Pipeline) Comments(ctx context.Context, id string) ([]string, error) {
	if p.data == nil {
		return nil, youtube.ErrDataAPIDisabled
	}
	return p.data.Comments(ctx, id, youtube.DefaultCommentPageSize)
}

// Close releases idle HTTP connections.
func (p *Pipeline) Close() error {
	return p.httpClient.Close()
}
