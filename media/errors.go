package media

import (
	"errors"
	"fmt"
)

// Sentinel errors for media operations. Typed errors below match them via Is.
var (
	ErrDownloadFailure  = errors.New("media: download failed")
	ErrTranscodeFailure = errors.New("media: transcode failed")
	ErrInvalidTimecode  = errors.New("media: invalid timecode")
	ErrInvalidDuration  = errors.New("media: clip duration must be positive")
)

// DownloadError reports that media for VideoID could not be cached.
type DownloadError struct {
	VideoID string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("media: download %s: %v", e.VideoID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrDownloadFailure }

// TranscodeError reports that a clip could not be rendered to Output.
type TranscodeError struct {
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("media: transcode %s: %v", e.Output, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

func (e *TranscodeError) Is(target error) bool { return target == ErrTranscodeFailure }
