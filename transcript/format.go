package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format is an output rendering for a transcript.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatVTT  Format = "vtt"
	FormatSRT  Format = "srt"
	FormatTTML Format = "ttml"
)

// ErrUntimed is returned when a timed format is requested for a transcript
// that has no segments.
var ErrUntimed = errors.New("transcript: format requires timed segments")

// Render writes t in format f. Timed formats (vtt, srt, ttml) need segments,
// which only the native tier provides.
func Render(t *Transcript, f Format) (string, error) {
	switch f {
	case FormatText, "":
		return renderText(t), nil
	case FormatJSON:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case FormatVTT, FormatSRT, FormatTTML:
		if len(t.Segments) == 0 {
			return "", fmt.Errorf("%w: %s transcript has none", ErrUntimed, t.Tier)
		}
	default:
		return "", fmt.Errorf("unknown transcript format: %s", f)
	}

	switch f {
	case FormatVTT:
		return renderVTT(t.Segments), nil
	case FormatSRT:
		return renderSRT(t.Segments), nil
	default:
		return renderTTML(t.Segments, t.Language), nil
	}
}

// renderText writes one segment per line, or the flat text.
func renderText(t *Transcript) string {
	if len(t.Segments) == 0 {
		return t.Text + "\n"
	}
	var sb strings.Builder
	for _, s := range t.Segments {
		sb.WriteString(s.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderVTT(segs []Segment) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, s := range segs {
		fmt.Fprintf(&sb, "%s --> %s\n%s\n\n",
			clockTime(s.OffsetMs, '.'), clockTime(s.OffsetMs+s.DurationMs, '.'), s.Text)
	}
	return sb.String()
}

func renderSRT(segs []Segment) string {
	var sb strings.Builder
	for i, s := range segs {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1,
			clockTime(s.OffsetMs, ','), clockTime(s.OffsetMs+s.DurationMs, ','), s.Text)
	}
	return sb.String()
}

func renderTTML(segs []Segment, lang string) string {
	if lang == "" {
		lang = "en"
	}
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&sb, `<tt xmlns="http://www.w3.org/ns/ttml" xml:lang="%s">`+"\n", escapeXML(lang))
	sb.WriteString("  <body>\n    <div>\n")
	for _, s := range segs {
		fmt.Fprintf(&sb, `      <p begin="%s" end="%s">%s</p>`+"\n",
			clockTime(s.OffsetMs, '.'), clockTime(s.OffsetMs+s.DurationMs, '.'), escapeXML(s.Text))
	}
	sb.WriteString("    </div>\n  </body>\n</tt>\n")
	return sb.String()
}

// clockTime formats milliseconds as HH:MM:SS<sep>mmm.
func clockTime(ms int64, sep byte) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", ms/3600000, ms/60000%60, ms/1000%60, sep, ms%1000)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
