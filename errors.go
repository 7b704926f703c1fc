package ytclipper

import (
	"ytclipper/analysis"
	"ytclipper/internal/retry"
	"ytclipper/media"
	"ytclipper/storage"
	"ytclipper/transcript"
	"ytclipper/youtube"
)

// Error handling types exported for library users.
//
// Every Pipeline operation returns either a result or one error that
// matches exactly one taxonomy sentinel below via errors.Is, with the
// originating cause still reachable:
//
//	if errors.Is(err, ytclipper.ErrNoTranscript) {
//		fmt.Println("no captions and speech-to-text failed")
//	}
//
//	var de *ytclipper.DownloadError
//	if errors.As(err, &de) {
//		fmt.Printf("download of %s failed: %v\n", de.VideoID, de.Err)
//	}

// Type aliases for convenient error handling.
type (
	// DownloadError reports a media cache failure.
	DownloadError = media.DownloadError
	// TranscodeError reports a clip extraction failure.
	TranscodeError = media.TranscodeError
	// ProcessError reports a speech-to-text failure.
	ProcessError = transcript.ProcessError
	// NoTranscriptError lists the failure of every transcript tier.
	NoTranscriptError = transcript.NoTranscriptError
	// AnalysisError reports an analyzer invocation failure.
	AnalysisError = analysis.AnalysisError
	// ParseError reports a malformed analyzer response.
	ParseError = analysis.ParseError
	// YtdlpError reports a failed yt-dlp invocation.
	YtdlpError = youtube.YtdlpError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrInvalidReference indicates a reference that names no video.
	ErrInvalidReference = youtube.ErrInvalidReference
	// ErrDownloadFailure indicates media could not be downloaded and validated.
	ErrDownloadFailure = media.ErrDownloadFailure
	// ErrTranscodeFailure indicates ffmpeg failed or produced an undersized clip.
	ErrTranscodeFailure = media.ErrTranscodeFailure
	// ErrInvalidTimecode indicates an offset that is not MM:SS or HH:MM:SS.
	ErrInvalidTimecode = media.ErrInvalidTimecode
	// ErrInvalidDuration indicates a clip whose end is not after its start.
	ErrInvalidDuration = media.ErrInvalidDuration
	// ErrTranscriptionProcess indicates the speech-to-text tier failed.
	ErrTranscriptionProcess = transcript.ErrTranscriptionProcess
	// ErrNoTranscript indicates every transcript tier failed.
	ErrNoTranscript = transcript.ErrNoTranscript
	// ErrAnalysisFailure indicates the analyzer could not be invoked.
	ErrAnalysisFailure = analysis.ErrAnalysisFailure
	// ErrResponseParse indicates the analyzer response had the wrong shape.
	ErrResponseParse = analysis.ErrResponseParse

	// ErrVideoUnavailable indicates a private, removed or restricted video.
	ErrVideoUnavailable = youtube.ErrVideoUnavailable
	// ErrYtdlpNotInstalled indicates yt-dlp binary was not found.
	ErrYtdlpNotInstalled = youtube.ErrYtdlpNotInstalled
	// ErrUndersized indicates a file at or below the minimum viable size.
	ErrUndersized = storage.ErrUndersized
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
	// ErrDataAPIDisabled indicates no Data API key is configured.
	ErrDataAPIDisabled = youtube.ErrDataAPIDisabled
	// ErrAnalyzerNotConfigured indicates Analyze was called without an analyzer.
	ErrAnalyzerNotConfigured = analysis.ErrAnalyzerNotConfigured
)

// IsRetryable determines if an error should be retried.
// It returns false for cancellation and permanent errors.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
