package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for analysis.
var (
	ErrAnalysisFailure = errors.New("analysis: content analysis failed")
	ErrResponseParse   = errors.New("analysis: malformed analysis response")
	// ErrAnalyzerNotConfigured is wrapped in an AnalysisError when no
	// analyzer (or API key) was supplied.
	ErrAnalyzerNotConfigured = errors.New("analysis: no analyzer configured")
)

// AnalysisError reports that the analyzer could not be invoked.
type AnalysisError struct {
	VideoID string
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.VideoID, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysisFailure }

// ParseError reports an analyzer response that does not have the expected
// shape. Raw holds the (possibly truncated) response text.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse analysis response: %s: %v", e.Reason, e.Err)
	}
	return "parse analysis response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrResponseParse }
