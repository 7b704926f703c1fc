package analysis

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Category is the kind of appeal a moment has.
type Category string

const (
	CategoryEmotionalPeak  Category = "Emotional Peak"
	CategoryPlotTwist      Category = "Plot Twist"
	CategoryHotTake        Category = "Hot Take"
	CategoryValueBomb      Category = "Value Bomb"
	CategoryTransformation Category = "Transformation"
	CategoryHumor          Category = "Humor"
)

// Categories lists every valid Category.
var Categories = []Category{
	CategoryEmotionalPeak,
	CategoryPlotTwist,
	CategoryHotTake,
	CategoryValueBomb,
	CategoryTransformation,
	CategoryHumor,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// ParseCategory returns the canonical Category matching s case-insensitively.
// Unknown values are returned trimmed and fail Valid.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return Category(s)
}

// Moment is a candidate excerpt proposed by the analyzer.
type Moment struct {
	Start                string   `json:"start"`
	End                  string   `json:"end,omitempty"`
	Score                int      `json:"score"`
	Hook                 string   `json:"hook"`
	Reason               string   `json:"reason"`
	Category             Category `json:"category"`
	SuggestedTitle       string   `json:"suggestedTitle"`
	SuggestedDescription string   `json:"suggestedDescription"`
}

// rawMoment accepts the field spellings analyzers are seen to produce.
type rawMoment struct {
	Start                string          `json:"start"`
	StartTime            string          `json:"startTime"`
	Timestamp            string          `json:"timestamp"`
	End                  string          `json:"end"`
	EndTime              string          `json:"endTime"`
	Score                json.RawMessage `json:"score"`
	ViralScore           json.RawMessage `json:"viralScore"`
	Hook                 string          `json:"hook"`
	Reason               string          `json:"reason"`
	Category             string          `json:"category"`
	SuggestedTitle       string          `json:"suggestedTitle"`
	SuggestedDescription string          `json:"suggestedDescription"`
}

// UnmarshalJSON decodes a moment, accepting "timestamp"/"startTime" for
// Start, "endTime" for End and "viralScore" for Score. Scores may be numbers
// or numeric strings.
func (m *Moment) UnmarshalJSON(data []byte) error {
	var r rawMoment
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	score, err := parseScore(firstRaw(r.Score, r.ViralScore))
	if err != nil {
		return err
	}
	*m = Moment{
		Start:                strings.TrimSpace(firstNonEmpty(r.Start, r.StartTime, r.Timestamp)),
		End:                  strings.TrimSpace(firstNonEmpty(r.End, r.EndTime)),
		Score:                score,
		Hook:                 r.Hook,
		Reason:               r.Reason,
		Category:             ParseCategory(r.Category),
		SuggestedTitle:       r.SuggestedTitle,
		SuggestedDescription: r.SuggestedDescription,
	}
	return nil
}

// Validate checks the fields the pipeline relies on.
func (m Moment) Validate() error {
	if m.Start == "" {
		return fmt.Errorf("missing start")
	}
	if m.Score < 0 || m.Score > 100 {
		return fmt.Errorf("score %d out of range 0-100", m.Score)
	}
	if !m.Category.Valid() {
		return fmt.Errorf("unknown category %q", m.Category)
	}
	return nil
}

func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing score")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f + 0.5), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", s)
	}
	return int(f + 0.5), nil
}

func firstRaw(vals ...json.RawMessage) json.RawMessage {
	for _, v := range vals {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
