package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytclipper/internal/procx"
	"ytclipper/storage"
)

const (
	defaultFfmpegPath       = "ffmpeg"
	defaultTranscodeTimeout = 10 * time.Minute
	// stderrTail bounds how much ffmpeg output is kept in a TranscodeError.
	stderrTail = 2048
)

// ClipRequest selects a range of a local media file to render.
type ClipRequest struct {
	SourcePath string `json:"source_path"`
	// Start and End are MM:SS or HH:MM:SS offsets.
	Start string `json:"start"`
	End   string `json:"end"`
	// OutputName is the clip file name under extracted/. Empty derives a
	// name from the source and offsets.
	OutputName string `json:"output_name,omitempty"`
}

// ClipArtifact is a rendered clip that passed size validation.
type ClipArtifact struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Start    int    `json:"start_seconds"`
	Duration int    `json:"duration_seconds"`
}

// Extractor renders clips with ffmpeg into the extracted/ directory.
type Extractor struct {
	layout storage.Layout

	FfmpegPath     string
	Timeout        time.Duration
	MinViableBytes int64
	Logger         *slog.Logger
}

// NewExtractor returns an Extractor writing under layout.
func NewExtractor(layout storage.Layout, ffmpegPath string, timeout time.Duration, logger *slog.Logger) *Extractor {
	return &Extractor{
		layout:         layout,
		FfmpegPath:     ffmpegPath,
		Timeout:        timeout,
		MinViableBytes: DefaultMinViableBytes,
		Logger:         logger,
	}
}

// Extract re-encodes [Start, End) of the source into a new mp4. Offsets are
// validated before ffmpeg runs. Output at or below MinViableBytes is removed
// and reported as a *TranscodeError.
func (e *Extractor) Extract(ctx context.Context, req ClipRequest) (*ClipArtifact, error) {
	start, err := ParseTimecode(req.Start)
	if err != nil {
		return nil, err
	}
	dur, err := Duration(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	name := ClipName(req)
	out := e.layout.ClipPath(name)
	if req.SourcePath == "" {
		return nil, &TranscodeError{Output: out, Err: fmt.Errorf("%w: empty source path", storage.ErrInvalidInput)}
	}
	tmp := filepath.Join(e.layout.ExtractedDir(), "."+strings.TrimSuffix(name, ".mp4")+"."+uuid.NewString()+".mp4")

	log := e.logger().With(slog.String("source", req.SourcePath), slog.String("output", out))
	log.Info("ffmpeg start",
		slog.String("start", req.Start),
		slog.String("end", req.End),
		slog.Int("duration", dur))
	began := time.Now()

	if err := e.run(ctx, FfmpegArgs(req.SourcePath, start, dur, tmp)); err != nil {
		removeMatching(tmp)
		log.Error("ffmpeg error", slog.Any("error", err))
		return nil, &TranscodeError{Output: out, Err: err}
	}

	size, err := storage.CommitValidated(tmp, out, e.MinViableBytes)
	if err != nil {
		log.Error("ffmpeg error", slog.Any("error", err))
		return nil, &TranscodeError{Output: out, Err: err}
	}

	log.Info("ffmpeg success", slog.Int64("bytes", size), slog.Duration("elapsed", time.Since(began)))
	return &ClipArtifact{Path: out, Size: size, Start: start, Duration: dur}, nil
}

// FfmpegArgs returns the argv that re-encodes dur seconds of src starting at
// start seconds into out as H.264/AAC.
func FfmpegArgs(src string, start, dur int, out string) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-ss", strconv.Itoa(start),
		"-i", src,
		"-t", strconv.Itoa(dur),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-crf", "23",
		"-movflags", "+faststart",
		out,
	}
}

// ClipName returns the sanitized output file name for req. Directory parts
// are dropped and ".mp4" is appended when missing; an empty name becomes
// <source>_<start>_to_<end>.mp4 with colons replaced by dashes.
func ClipName(req ClipRequest) string {
	name := strings.TrimSpace(req.OutputName)
	if name != "" {
		name = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	}
	if name == "" || name == "/" || name == "." {
		base := strings.TrimSuffix(filepath.Base(req.SourcePath), filepath.Ext(req.SourcePath))
		name = base + "_" + req.Start + "_to_" + req.End
		name = strings.ReplaceAll(name, ":", "-")
	}
	if !strings.EqualFold(filepath.Ext(name), ".mp4") {
		name += ".mp4"
	}
	return name
}

func (e *Extractor) run(ctx context.Context, args []string) error {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultTranscodeTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path := e.FfmpegPath
	if path == "" {
		path = defaultFfmpegPath
	}
	cmd := procx.Command(cmdCtx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return fmt.Errorf("ffmpeg timed out after %s: %w", timeout, context.DeadlineExceeded)
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("ffmpeg not installed: %w", err)
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		if msg == "" {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
