package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimecode converts "MM:SS" or "HH:MM:SS" to seconds. Every component
// must be a non-negative decimal integer; any other shape is rejected.
func ParseTimecode(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q (want MM:SS or HH:MM:SS)", ErrInvalidTimecode, s)
	}

	total := 0
	for _, p := range parts {
		n, err := parseComponent(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, s)
		}
		total = total*60 + n
	}
	return total, nil
}

func parseComponent(p string) (int, error) {
	if p == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(p)
}

// Duration returns end minus start in seconds. It fails unless the result is
// strictly positive.
func Duration(start, end string) (int, error) {
	s, err := ParseTimecode(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseTimecode(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("%w: %s to %s", ErrInvalidDuration, start, end)
	}
	return e - s, nil
}

// FormatTimecode renders seconds as HH:MM:SS.
func FormatTimecode(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
