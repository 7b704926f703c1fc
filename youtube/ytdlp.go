package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	httpclient "ytclipper/http"
	"ytclipper/internal/procx"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 30 * time.Minute

	// MediaFormat prefers a merged mp4 up to 1080p and degrades to any single file.
	MediaFormat = "bestvideo[ext=mp4][height<=1080]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	// AudioFormat is the container used for speech-to-text audio.
	AudioFormat = "m4a"
)

// browserHeaders are sent with media downloads to look like a desktop browser.
var browserHeaders = []string{
	"Accept:text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language:en-us,en;q=0.5",
	"Sec-Fetch-Mode:navigate",
}

// Ytdlp runs yt-dlp as a subprocess. Every invocation is bounded by Timeout.
type Ytdlp struct {
	// Path is the path to the yt-dlp executable. Defaults to "yt-dlp".
	Path string
	// Timeout bounds each invocation. Defaults to 30 minutes.
	Timeout time.Duration
	// ExtraArgs are passed before the URL on every invocation.
	ExtraArgs []string

	Logger *slog.Logger
}

// NewYtdlp creates a runner for the given executable.
func NewYtdlp(path string, timeout time.Duration, logger *slog.Logger) *Ytdlp {
	return &Ytdlp{Path: path, Timeout: timeout, Logger: logger}
}

// MediaArgs returns the yt-dlp argv (without the executable) used to download
// videoURL into outPath.
func MediaArgs(videoURL, outPath string) []string {
	args := []string{
		"-f", MediaFormat,
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-check-certificates",
		"--no-warnings",
		"--no-part",
		"--user-agent", httpclient.BrowserUserAgent,
		"--referer", "https://www.youtube.com/",
	}
	for _, h := range browserHeaders {
		args = append(args, "--add-header", h)
	}
	return append(args, "-o", outPath, NormalizeURL(videoURL))
}

// AudioArgs returns the yt-dlp argv used to extract audio for videoURL into
// outTemplate. The template must end in ".%(ext)s".
func AudioArgs(videoURL, outTemplate string) []string {
	return []string{
		"-x",
		"--audio-format", AudioFormat,
		"--no-playlist",
		"--no-warnings",
		"--user-agent", httpclient.BrowserUserAgent,
		"-o", outTemplate,
		NormalizeURL(videoURL),
	}
}

// DownloadMedia downloads videoURL as a merged mp4 into outPath.
func (y *Ytdlp) DownloadMedia(ctx context.Context, videoURL, outPath string) error {
	_, err := y.run(ctx, "download", MediaArgs(videoURL, outPath))
	return err
}

// DownloadAudio extracts the audio track of videoURL into outTemplate.
func (y *Ytdlp) DownloadAudio(ctx context.Context, videoURL, outTemplate string) error {
	_, err := y.run(ctx, "audio", AudioArgs(videoURL, outTemplate))
	return err
}

func (y *Ytdlp) run(ctx context.Context, op string, args []string) ([]byte, error) {
	timeout := y.Timeout
	if timeout <= 0 {
		timeout = defaultYtdlpTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if len(y.ExtraArgs) > 0 {
		// keep the URL last
		last := len(args) - 1
		args = append(append(append([]string{}, args[:last]...), y.ExtraArgs...), args[last])
	}

	start := time.Now()
	cmd := procx.Command(cmdCtx, y.path(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	y.logger().Debug("yt-dlp start", slog.String("op", op), slog.String("url", args[len(args)-1]))

	if err := cmd.Run(); err != nil {
		var cause error
		switch {
		case errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			cause = fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		case ctx.Err() != nil:
			cause = ctx.Err()
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			cause = fmt.Errorf("%w: %w", ErrYtdlpNotInstalled, err)
		default:
			cause = err
		}
		yerr := &YtdlpError{Op: op, Stderr: strings.TrimSpace(stderr.String()), Err: cause}
		y.logger().Warn("yt-dlp failed",
			slog.String("op", op),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", yerr))
		return nil, yerr
	}

	y.logger().Debug("yt-dlp done", slog.String("op", op), slog.Duration("elapsed", time.Since(start)))
	return stdout.Bytes(), nil
}

func (y *Ytdlp) path() string {
	if y.Path != "" {
		return y.Path
	}
	return defaultYtdlpPath
}

func (y *Ytdlp) logger() *slog.Logger {
	if y.Logger != nil {
		return y.Logger
	}
	return slog.Default()
}
