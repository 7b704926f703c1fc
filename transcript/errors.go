package transcript

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for transcript acquisition.
var (
	// ErrTierUnavailable marks a strategy failure that lets the next tier run.
	ErrTierUnavailable = errors.New("transcript: tier unavailable")
	// ErrTranscriptionProcess is a speech-to-text failure: audio download,
	// recognizer exit, unparseable output or a non-success status.
	ErrTranscriptionProcess = errors.New("transcript: transcription process failed")
	// ErrNoTranscript means every tier was tried and none produced text.
	ErrNoTranscript = errors.New("transcript: no transcript available")
	// ErrEmptyTranscript is returned by a tier that succeeded with no text.
	ErrEmptyTranscript = errors.New("transcript: empty transcript")
)

// TierError is the typed outcome a Strategy returns when the acquirer should
// move on to the next tier.
type TierError struct {
	Tier Tier
	Err  error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("transcript %s: %v", e.Tier, e.Err)
}

func (e *TierError) Unwrap() error { return e.Err }

func (e *TierError) Is(target error) bool { return target == ErrTierUnavailable }

// ProcessError reports a failed speech-to-text run.
type ProcessError struct {
	// Stage is "download", "recognize" or "parse".
	Stage string
	// Status and Message come from the recognizer's JSON result when present.
	Status  string
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	b.WriteString("transcription ")
	b.WriteString(e.Stage)
	if e.Status != "" {
		fmt.Fprintf(&b, ": status %q", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

func (e *ProcessError) Is(target error) bool { return target == ErrTranscriptionProcess }

// NoTranscriptError reports that all tiers failed for VideoID. Attempts holds
// each tier's failure in order and is reachable through errors.Is/As.
type NoTranscriptError struct {
	VideoID  string
	Attempts []error
}

func (e *NoTranscriptError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no transcript for %s: no strategies configured", e.VideoID)
	}
	parts := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("no transcript for %s: %s", e.VideoID, strings.Join(parts, "; "))
}

func (e *NoTranscriptError) Unwrap() []error { return e.Attempts }

func (e *NoTranscriptError) Is(target error) bool { return target == ErrNoTranscript }
