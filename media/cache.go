// Package media caches downloaded videos under a media root and renders
// clips from them with ffmpeg.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"ytclipper/internal/retry"
	"ytclipper/storage"
	"ytclipper/youtube"
)

const (
	// DefaultMinViableBytes is the size a media file must exceed to be valid.
	DefaultMinViableBytes = 1000
	// DefaultFlightTimeout bounds one shared acquisition, retries included.
	DefaultFlightTimeout = 90 * time.Minute
)

// Downloader materializes a video URL as a merged mp4 at outPath.
type Downloader interface {
	DownloadMedia(ctx context.Context, videoURL, outPath string) error
}

// CachedMedia is a validated file in the download cache.
type CachedMedia struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Validated bool   `json:"validated"`
	// Hit is true when no download was needed.
	Hit bool `json:"hit"`
}

// Cache stores full videos at <root>/downloaded/<id>.mp4. Concurrent
// acquisitions of one identifier share a single download in-process and
// serialize on a lock file across processes.
type Cache struct {
	layout     storage.Layout
	downloader Downloader
	group      singleflight.Group

	// MinViableBytes is the size a cached file must exceed.
	MinViableBytes int64
	// RetryConfig governs retries of transient download failures.
	RetryConfig retry.Config
	// FlightTimeout bounds a shared acquisition. The flight does not follow
	// the cancellation of the caller that started it, so other waiters
	// still get the result.
	FlightTimeout time.Duration
	Logger        *slog.Logger
}

// NewCache creates a cache over layout that fetches misses with downloader.
func NewCache(layout storage.Layout, downloader Downloader, logger *slog.Logger) *Cache {
	rc := retry.DefaultConfig()
	rc.MaxRetries = 2
	return &Cache{
		layout:         layout,
		downloader:     downloader,
		MinViableBytes: DefaultMinViableBytes,
		RetryConfig:    rc,
		FlightTimeout:  DefaultFlightTimeout,
		Logger:         logger,
	}
}

// Path returns the deterministic cache path for id.
func (c *Cache) Path(id string) string {
	return c.layout.MediaPath(id)
}

// Acquire returns the cached media for id, downloading videoURL on a miss.
// An existing file at or below MinViableBytes is treated as corrupt, deleted
// and re-downloaded. Failures are returned as *DownloadError.
func (c *Cache) Acquire(ctx context.Context, videoURL, id string) (*CachedMedia, error) {
	if !youtube.IsValidID(id) {
		return nil, &DownloadError{VideoID: id, Err: youtube.ErrInvalidReference}
	}
	if videoURL == "" {
		videoURL = youtube.CanonicalURL(id)
	}

	ch := c.group.DoChan(id, func() (any, error) {
		timeout := c.FlightTimeout
		if timeout <= 0 {
			timeout = DefaultFlightTimeout
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return c.acquire(flightCtx, videoURL, id)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		m := *res.Val.(*CachedMedia)
		return &m, nil
	case <-ctx.Done():
		return nil, &DownloadError{VideoID: id, Err: ctx.Err()}
	}
}

func (c *Cache) acquire(ctx context.Context, videoURL, id string) (*CachedMedia, error) {
	path := c.Path(id)
	log := c.logger().With(slog.String("video_id", id))

	lock := storage.NewFileLock(path)
	if err := lock.Lock(ctx); err != nil {
		return nil, &DownloadError{VideoID: id, Err: err}
	}
	defer lock.Unlock()

	size, ok, err := storage.ViableSize(path, c.MinViableBytes)
	if err != nil {
		return nil, &DownloadError{VideoID: id, Err: err}
	}
	if ok {
		log.Debug("media cache hit", slog.String("path", path), slog.Int64("bytes", size))
		return &CachedMedia{ID: id, Path: path, Size: size, Validated: true, Hit: true}, nil
	}
	if err := os.Remove(path); err == nil {
		log.Warn("deleted corrupt cache entry", slog.String("path", path), slog.Int64("bytes", size))
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &DownloadError{VideoID: id, Err: fmt.Errorf("remove corrupt entry: %w", err)}
	}

	log.Info("downloading media", slog.String("url", youtube.NormalizeURL(videoURL)))
	start := time.Now()

	err = retry.Do(ctx, c.RetryConfig, downloadErrorClassifier, func(ctx context.Context) error {
		var err error
		size, err = c.download(ctx, videoURL, id, path)
		if err != nil {
			log.Warn("download attempt failed", slog.Any("error", err))
		}
		return err
	})
	if err != nil {
		return nil, &DownloadError{VideoID: id, Err: err}
	}

	log.Info("media cached",
		slog.String("path", path),
		slog.Int64("bytes", size),
		slog.Duration("elapsed", time.Since(start)))
	return &CachedMedia{ID: id, Path: path, Size: size, Validated: true}, nil
}

// download fetches into a uuid-named temp file beside the cache path and
// renames it into place only once it passes size validation.
func (c *Cache) download(ctx context.Context, videoURL, id, path string) (int64, error) {
	prefix := filepath.Join(filepath.Dir(path), "."+id+"."+uuid.NewString())
	tmp := prefix + ".mp4"
	defer removeMatching(prefix + "*")

	if err := c.downloader.DownloadMedia(ctx, videoURL, tmp); err != nil {
		return 0, err
	}
	return storage.CommitValidated(tmp, path, c.MinViableBytes)
}

// downloadErrorClassifier does not retry unavailable videos or a missing
// yt-dlp binary.
func downloadErrorClassifier(err error) bool {
	if errors.Is(err, youtube.ErrVideoUnavailable) || errors.Is(err, youtube.ErrYtdlpNotInstalled) {
		return false
	}
	return retry.IsRetryable(err)
}

// removeMatching deletes every file matching pattern, ignoring errors.
func removeMatching(pattern string) {
	matches, _ := filepath.Glob(pattern)
	for _, m := range matches {
		os.Remove(m)
	}
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
