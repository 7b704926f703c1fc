package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytclipper/storage"
)

// writeMockFfmpeg writes a script standing in for ffmpeg that records its
// argv in args.txt and writes size zero bytes to its last argument.
func writeMockFfmpeg(t *testing.T, size int, exit int) (path, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("mock scripts require a POSIX shell")
	}
	dir := t.TempDir()
	path = filepath.Join(dir, "ffmpeg")
	argsFile = filepath.Join(dir, "args.txt")
	script := "#!/bin/sh\n" +
		"for a in \"$@\"; do echo \"$a\" >> " + argsFile + "; last=\"$a\"; done\n" +
		"head -c " + strconv.Itoa(size) + " /dev/zero > \"$last\"\n" +
		"echo 'Conversion failed!' >&2\n" +
		"exit " + strconv.Itoa(exit) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path, argsFile
}

func newTestExtractor(t *testing.T, ffmpeg string) (*Extractor, storage.Layout, string) {
	t.Helper()
	layout, err := storage.NewLayout(t.TempDir())
	require.NoError(t, err)
	src := layout.MediaPath(testID)
	require.NoError(t, os.WriteFile(src, make([]byte, 4096), 0o644))
	return NewExtractor(layout, ffmpeg, 0, nil), layout, src
}

func extractedEntries(t *testing.T, layout storage.Layout) []string {
	t.Helper()
	entries, err := os.ReadDir(layout.ExtractedDir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExtract(t *testing.T) {
	ffmpeg, argsFile := writeMockFfmpeg(t, 5000, 0)
	x, layout, src := newTestExtractor(t, ffmpeg)

	clip, err := x.Extract(context.Background(), ClipRequest{SourcePath: src, Start: "0:10", End: "1:00", OutputName: "intro"})
	require.NoError(t, err)
	assert.Equal(t, layout.ClipPath("intro.mp4"), clip.Path)
	assert.EqualValues(t, 5000, clip.Size)
	assert.Equal(t, 10, clip.Start)
	assert.Equal(t, 50, clip.Duration)
	assert.Equal(t, []string{"intro.mp4"}, extractedEntries(t, layout))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(data)), "\n")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-ss 10 -i "+src+" -t 50")
	assert.Contains(t, joined, "-c:v libx264 -c:a aac -preset fast -crf 23")
	assert.True(t, strings.HasSuffix(args[len(args)-1], ".mp4"))
	assert.NotEqual(t, clip.Path, args[len(args)-1], "ffmpeg writes a temp file")
}

func TestExtractRejectsBadRangeBeforeTranscoding(t *testing.T) {
	ffmpeg, argsFile := writeMockFfmpeg(t, 5000, 0)
	x, _, src := newTestExtractor(t, ffmpeg)

	_, err := x.Extract(context.Background(), ClipRequest{SourcePath: src, Start: "0:10", End: "0:05"})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = x.Extract(context.Background(), ClipRequest{SourcePath: src, Start: "abc", End: "0:05"})
	assert.ErrorIs(t, err, ErrInvalidTimecode)

	assert.NoFileExists(t, argsFile, "ffmpeg must not run")
}

func TestExtractUndersizedOutputFails(t *testing.T) {
	ffmpeg, _ := writeMockFfmpeg(t, 100, 0)
	x, layout, src := newTestExtractor(t, ffmpeg)

	clip, err := x.Extract(context.Background(), ClipRequest{SourcePath: src, Start: "0:00", End: "0:05", OutputName: "tiny.mp4"})
	assert.Nil(t, clip)
	assert.ErrorIs(t, err, ErrTranscodeFailure)
	assert.ErrorIs(t, err, storage.ErrUndersized)
	assert.Empty(t, extractedEntries(t, layout))
}

func TestExtractFfmpegFailure(t *testing.T) {
	ffmpeg, _ := writeMockFfmpeg(t, 5000, 1)
	x, layout, src := newTestExtractor(t, ffmpeg)

	_, err := x.Extract(context.Background(), ClipRequest{SourcePath: src, Start: "0:00", End: "0:05"})
	assert.ErrorIs(t, err, ErrTranscodeFailure)
	assert.ErrorContains(t, err, "Conversion failed!")

	var te *TranscodeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, layout.ClipPath(testID+"_0-00_to_0-05.mp4"), te.Output)
	assert.Empty(t, extractedEntries(t, layout))
}

func TestExtractMissingFfmpeg(t *testing.T) {
	x, _, src := newTestExtractor(t, filepath.Join(t.TempDir(), "no-ffmpeg"))

	_, err := x.Extract(context.Background(), ClipRequest{SourcePath: src, Start: "0:00", End: "0:05"})
	assert.ErrorIs(t, err, ErrTranscodeFailure)
	assert.ErrorContains(t, err, "not installed")
}

func TestClipName(t *testing.T) {
	tests := []struct {
		req  ClipRequest
		want string
	}{
		{ClipRequest{OutputName: "clip"}, "clip.mp4"},
		{ClipRequest{OutputName: "clip.mp4"}, "clip.mp4"},
		{ClipRequest{OutputName: "clip.MP4"}, "clip.MP4"},
		{ClipRequest{OutputName: "../../etc/passwd"}, "passwd.mp4"},
		{ClipRequest{OutputName: `..\..\evil`}, "evil.mp4"},
		{ClipRequest{OutputName: "..", SourcePath: "/m/downloaded/abc.mp4", Start: "1:00", End: "1:30"}, "abc_1-00_to_1-30.mp4"},
		{ClipRequest{SourcePath: "/m/downloaded/dQw4w9WgXcQ.mp4", Start: "0:10", End: "1:02:03"}, "dQw4w9WgXcQ_0-10_to_1-02-03.mp4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClipName(tt.req), "%+v", tt.req)
	}
}
