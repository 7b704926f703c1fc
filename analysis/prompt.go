package analysis

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// Default input budgets, in characters.
const (
	DefaultTranscriptBudget = 100000
	DefaultCommentBudget    = 50000
)

const promptTemplate = `You are an expert YouTube content strategist specializing in identifying viral moments for YouTube Shorts.
Analyze the video's transcript and comments and find the {count} most promising clips that could go viral.

Transcript:
---
{transcript}
---
Comments:
---
{comments}
---

For each moment provide:
1. "startTime": the start of the moment in "M:SS" format.
2. "endTime": the end of the moment in "M:SS" format.
3. "viralScore": an integer from 0 to 100 rating its viral potential.
4. "hook": the single most impactful sentence or phrase from the moment.
5. "reason": a brief explanation of why the moment is likely to go viral.
6. "category": one of {categories}.
7. "suggestedTitle": a catchy Shorts title of at most 60 characters.
8. "suggestedDescription": a short description with 2-3 relevant hashtags.

Weigh emotional impact, engagement signals, format match and shareability equally.

Return only a JSON object with a single key "viralMoments" holding an array of the moments.
Do not include any other text outside of the JSON object.`

// Truncate cuts s to at most limit runes. A non-positive limit leaves s
// unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	return strutil.TruncateWith(s, limit, "")
}

// BuildPrompt fills the analysis template with already-bounded inputs.
func BuildPrompt(transcript string, comments []string, transcriptBudget, commentBudget int) string {
	cats := make([]string, len(Categories))
	for i, c := range Categories {
		cats[i] = `"` + string(c) + `"`
	}
	r := strings.NewReplacer(
		"{count}", "5",
		"{categories}", strings.Join(cats, ", "),
		"{transcript}", Truncate(transcript, transcriptBudget),
		"{comments}", Truncate(strings.Join(comments, "\n"), commentBudget),
	)
	return r.Replace(promptTemplate)
}
