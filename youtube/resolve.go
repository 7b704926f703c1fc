package youtube

import (
	"regexp"
	"strings"
)

// VideoSource is a resolved video reference.
type VideoSource struct {
	// RawReference is the string the caller passed in.
	RawReference string `json:"raw_reference"`
	// ID is the 11-character video identifier.
	ID string `json:"id"`
	// URL is the canonical watch URL for ID.
	URL string `json:"url"`
}

var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// referencePatterns are tried in order; the first submatch wins. The trailing
// group rejects identifiers that run on past 11 characters.
var referencePatterns = []*regexp.Regexp{
	// long watch link: .../watch?v=ID or .../watch?feature=x&v=ID
	regexp.MustCompile(`watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	// path variants: /embed/ID, /v/ID, /live/ID, /shorts/ID
	regexp.MustCompile(`/(?:embed|v|live|shorts)/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	// short link
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	// bare identifier
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

var liveURLRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.com/live/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)

// Resolve extracts the video identifier from reference. It accepts watch
// links, short links, embed, v, live and shorts paths and bare identifiers,
// with or without scheme and www./m. prefixes. It never panics; an
// unrecognized reference returns false.
func Resolve(reference string) (VideoSource, bool) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return VideoSource{}, false
	}
	for _, re := range referencePatterns {
		if m := re.FindStringSubmatch(ref); m != nil {
			return VideoSource{
				RawReference: reference,
				ID:           m[1],
				URL:          CanonicalURL(m[1]),
			}, true
		}
	}
	return VideoSource{}, false
}

// IsValidID reports whether id has the shape of a video identifier.
func IsValidID(id string) bool {
	return videoIDRegex.MatchString(id)
}

// CanonicalURL returns the standard watch URL for id.
func CanonicalURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// NormalizeURL rewrites a /live/<id> URL to the watch form. Other URLs are
// returned unchanged.
func NormalizeURL(rawURL string) string {
	if m := liveURLRegex.FindStringSubmatch(strings.TrimSpace(rawURL)); m != nil {
		return CanonicalURL(m[1])
	}
	return rawURL
}
