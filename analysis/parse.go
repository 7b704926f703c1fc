package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// MaxMoments bounds the moments returned from one analysis.
const MaxMoments = 5

// stripFences removes markdown code fences from analyzer output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse extracts moments from analyzer output. The text must be a
// JSON object (optionally fenced) with a "viralMoments" or "moments" array
// whose elements are valid moments. Order is preserved and at most
// MaxMoments are returned.
func ParseResponse(text string) ([]Moment, error) {
	body := stripFences(text)
	raw := strutil.TruncateWith(body, 500, "...")

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, &ParseError{Reason: "response is not a JSON object", Raw: raw, Err: err}
	}

	field, ok := obj["viralMoments"]
	if !ok {
		field, ok = obj["moments"]
	}
	if !ok {
		return nil, &ParseError{Reason: `missing "viralMoments" field`, Raw: raw}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(field, &elems); err != nil || elems == nil {
		return nil, &ParseError{Reason: `"viralMoments" is not an array`, Raw: raw, Err: err}
	}

	if len(elems) > MaxMoments {
		elems = elems[:MaxMoments]
	}
	moments := make([]Moment, 0, len(elems))
	for i, e := range elems {
		var m Moment
		if err := json.Unmarshal(e, &m); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("moment %d", i), Raw: raw, Err: err}
		}
		if err := m.Validate(); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("moment %d", i), Raw: raw, Err: err}
		}
		moments = append(moments, m)
	}
	return moments, nil
}
