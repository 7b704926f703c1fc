package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptTruncatesIndependently(t *testing.T) {
	transcript := strings.Repeat("t", 100) + "TRANSCRIPT_OVERFLOW"
	comments := []string{strings.Repeat("c", 30), strings.Repeat("d", 19) + "COMMENT_OVERFLOW"}

	prompt := BuildPrompt(transcript, comments, 100, 50)

	assert.Contains(t, prompt, strings.Repeat("t", 100))
	assert.NotContains(t, prompt, "TRANSCRIPT_OVERFLOW")
	assert.Contains(t, prompt, strings.Repeat("c", 30)+"\n"+strings.Repeat("d", 19))
	assert.NotContains(t, prompt, "COMMENT_OVERFLOW")
}

func TestBuildPromptKeepsShortInputs(t *testing.T) {
	prompt := BuildPrompt("hello world", []string{"first", "second"}, DefaultTranscriptBudget, DefaultCommentBudget)
	assert.Contains(t, prompt, "hello world")
	assert.Contains(t, prompt, "first\nsecond")
	assert.Contains(t, prompt, `"viralMoments"`)
	assert.Contains(t, prompt, `"Emotional Peak", "Plot Twist", "Hot Take", "Value Bomb", "Transformation", "Humor"`)
	assert.NotContains(t, prompt, "{transcript}")
}

func TestTruncateIsRuneSafe(t *testing.T) {
	s := strings.Repeat("é", 10)
	got := Truncate(s, 4)
	assert.Equal(t, "éééé", got)
	assert.Equal(t, s, Truncate(s, 0))
	assert.Equal(t, s, Truncate(s, 100))
}
