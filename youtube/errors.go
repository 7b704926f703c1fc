package youtube

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for YouTube operations.
var (
	ErrInvalidReference  = errors.New("youtube: invalid video reference")
	ErrVideoUnavailable  = errors.New("youtube: video unavailable")
	ErrVideoNotFound     = errors.New("youtube: video not found")
	ErrNoCaptions        = errors.New("youtube: no captions available")
	ErrYtdlpNotInstalled = errors.New("youtube: yt-dlp not installed")
	ErrDataAPIDisabled   = errors.New("youtube: data api key not configured")
)

// unavailableMarkers in yt-dlp stderr mean retrying cannot help.
var unavailableMarkers = []string{
	"Video unavailable",
	"Private video",
	"This video is private",
	"has been removed",
	"members-only",
	"Sign in to confirm your age",
	"Unsupported URL",
}

// YtdlpError reports a failed yt-dlp invocation.
type YtdlpError struct {
	// Op is the operation ("download", "audio", "metadata").
	Op string
	// Stderr is the trimmed stderr of the process.
	Stderr string
	Err    error
}

func (e *YtdlpError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("yt-dlp %s: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("yt-dlp %s: %v", e.Op, e.Err)
}

func (e *YtdlpError) Unwrap() error { return e.Err }

// Is matches ErrVideoUnavailable when stderr names a permanent condition.
func (e *YtdlpError) Is(target error) bool {
	return target == ErrVideoUnavailable && e.Unavailable()
}

// Unavailable reports whether the failure is permanent for this video.
func (e *YtdlpError) Unavailable() bool {
	for _, m := range unavailableMarkers {
		if strings.Contains(e.Stderr, m) {
			return true
		}
	}
	return false
}

// APIError wraps a Data API failure with the call that produced it.
type APIError struct {
	Call    string
	VideoID string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api %s %s: %v", e.Call, e.VideoID, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
