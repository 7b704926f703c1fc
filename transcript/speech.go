package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytclipper/internal/procx"
)

const defaultRecognizerTimeout = 30 * time.Minute

// AudioDownloader extracts the audio track of a video into outTemplate, a
// path ending in ".%(ext)s".
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, videoURL, outTemplate string) error
}

// Speech transcribes a video by downloading its audio into ScratchDir and
// running an external recognizer on it. The recognizer is invoked as
// Command followed by "--file_path <audio>" and must print a JSON object
// {"status": "success"|"error", "transcript": "...", "message": "..."}.
type Speech struct {
	Audio      AudioDownloader
	ScratchDir string
	Command    []string
	Timeout    time.Duration
	Logger     *slog.Logger
}

func (s *Speech) Tier() Tier { return TierSpeech }

// recognizerResult is the JSON printed by the recognizer.
type recognizerResult struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript"`
	Message    string `json:"message"`
}

// Fetch downloads audio, recognizes it and returns the flat transcript. Every
// scratch file created for the call is removed before it returns.
func (s *Speech) Fetch(ctx context.Context, req Request) (*Transcript, error) {
	if len(s.Command) == 0 {
		return nil, &TierError{Tier: TierSpeech, Err: &ProcessError{Stage: "recognize", Err: errors.New("no recognizer command configured")}}
	}

	prefix := filepath.Join(s.ScratchDir, "audio_"+uuid.NewString())
	defer removeAudio(prefix)

	log := s.logger().With(slog.String("video_id", req.VideoID))
	log.Info("downloading audio for transcription")

	if err := s.Audio.DownloadAudio(ctx, req.URL, prefix+".%(ext)s"); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, s.fail(&ProcessError{Stage: "download", Err: err})
	}

	audio, err := findAudio(prefix)
	if err != nil {
		return nil, s.fail(&ProcessError{Stage: "download", Err: err})
	}

	start := time.Now()
	out, err := s.recognize(ctx, audio)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, s.fail(err)
	}

	res, err := parseRecognizerOutput(out)
	if err != nil {
		return nil, s.fail(&ProcessError{Stage: "parse", Err: err})
	}
	if res.Status != "success" {
		return nil, s.fail(&ProcessError{Stage: "recognize", Status: res.Status, Message: res.Message})
	}
	text := strings.TrimSpace(res.Transcript)
	if text == "" {
		return nil, s.fail(&ProcessError{Stage: "recognize", Status: res.Status, Err: ErrEmptyTranscript})
	}

	log.Info("transcription finished",
		slog.Int("chars", len(text)),
		slog.Duration("elapsed", time.Since(start)))
	return &Transcript{Text: text}, nil
}

func (s *Speech) recognize(ctx context.Context, audio string) ([]byte, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultRecognizerTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, s.Command[1:]...), "--file_path", audio)
	cmd := procx.Command(cmdCtx, s.Command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		s.logger().Debug("recognizer stderr", slog.String("stderr", msg))
	}
	if err != nil {
		if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		// The recognizer may report its own failure as JSON before exiting
		// non-zero; prefer that message when it parses.
		if res, perr := parseRecognizerOutput(stdout.Bytes()); perr == nil && res.Status != "success" {
			return nil, &ProcessError{Stage: "recognize", Status: res.Status, Message: res.Message, Err: err}
		}
		return nil, &ProcessError{Stage: "recognize", Message: lastLine(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

func (s *Speech) fail(err error) error {
	s.logger().Warn("speech-to-text failed", slog.Any("error", err))
	return &TierError{Tier: TierSpeech, Err: err}
}

func (s *Speech) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// parseRecognizerOutput decodes the recognizer's JSON result. Progress lines
// printed before it are skipped: the whole output is tried first, then the
// last line that looks like an object.
func parseRecognizerOutput(out []byte) (*recognizerResult, error) {
	var res recognizerResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &res); err == nil && res.Status != "" {
		return &res, nil
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		res = recognizerResult{}
		if err := json.Unmarshal([]byte(line), &res); err == nil && res.Status != "" {
			return &res, nil
		}
	}
	return nil, fmt.Errorf("no recognizer result in output %q", lastLine(string(out)))
}

// findAudio returns the file yt-dlp produced for prefix.
func findAudio(prefix string) (string, error) {
	matches, err := filepath.Glob(prefix + ".*")
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Size() > 0 {
			return m, nil
		}
	}
	return "", errors.New("audio download produced no file")
}

// removeAudio deletes every scratch file sharing prefix, including yt-dlp
// intermediates.
func removeAudio(prefix string) {
	matches, _ := filepath.Glob(prefix + ".*")
	for _, m := range matches {
		os.Remove(m)
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	const maxLen = 500
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
