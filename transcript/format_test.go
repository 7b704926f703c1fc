package transcript

import (
	"errors"
	"strings"
	"testing"
)

func timedTranscript() *Transcript {
	return &Transcript{
		Tier:     TierNative,
		Language: "en",
		Segments: []Segment{
			{Text: "Hello", OffsetMs: 0, DurationMs: 2000},
			{Text: "Tom & Jerry", OffsetMs: 3723500, DurationMs: 1250},
		},
	}
}

func TestRenderText(t *testing.T) {
	out, err := Render(timedTranscript(), FormatText)
	if err != nil {
		t.Fatalf("Render(txt) failed: %v", err)
	}
	if out != "Hello\nTom & Jerry\n" {
		t.Errorf("unexpected text output: %q", out)
	}

	out, err = Render(&Transcript{Tier: TierSpeech, Text: "flat"}, FormatText)
	if err != nil || out != "flat\n" {
		t.Errorf("Render(flat) = %q, %v", out, err)
	}
}

func TestRenderVTT(t *testing.T) {
	out, err := Render(timedTranscript(), FormatVTT)
	if err != nil {
		t.Fatalf("Render(vtt) failed: %v", err)
	}
	if !strings.HasPrefix(out, "WEBVTT\n\n") {
		t.Error("VTT output missing header")
	}
	if !strings.Contains(out, "01:02:03.500 --> 01:02:04.750\nTom & Jerry") {
		t.Errorf("VTT output missing cue:\n%s", out)
	}
}

func TestRenderSRT(t *testing.T) {
	out, err := Render(timedTranscript(), FormatSRT)
	if err != nil {
		t.Fatalf("Render(srt) failed: %v", err)
	}
	if !strings.HasPrefix(out, "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n") {
		t.Errorf("unexpected SRT output:\n%s", out)
	}
}

func TestRenderTTMLEscapes(t *testing.T) {
	out, err := Render(timedTranscript(), FormatTTML)
	if err != nil {
		t.Fatalf("Render(ttml) failed: %v", err)
	}
	if !strings.Contains(out, "Tom &amp; Jerry") {
		t.Error("TTML output not escaped")
	}
	if !strings.Contains(out, `xml:lang="en"`) {
		t.Error("TTML output missing language")
	}
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(timedTranscript(), FormatJSON)
	if err != nil {
		t.Fatalf("Render(json) failed: %v", err)
	}
	if !strings.Contains(out, `"tier": "native"`) || !strings.Contains(out, `"offset_ms": 3723500`) {
		t.Errorf("unexpected JSON output:\n%s", out)
	}
}

func TestRenderTimedFormatNeedsSegments(t *testing.T) {
	_, err := Render(&Transcript{Tier: TierSpeech, Text: "flat"}, FormatSRT)
	if !errors.Is(err, ErrUntimed) {
		t.Errorf("expected ErrUntimed, got %v", err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(timedTranscript(), Format("docx")); err == nil {
		t.Error("expected error for unknown format")
	}
}
