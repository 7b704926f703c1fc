package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/anatolykoptev/go-kit/strutil"

	"ytclipper"
	"ytclipper/config"
	"ytclipper/media"
	"ytclipper/transcript"
	"ytclipper/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "resolve":
		err = cmdResolve(args)
	case "download":
		err = cmdDownload(args)
	case "clip":
		err = cmdClip(args)
	case "transcript":
		err = cmdTranscript(args)
	case "analyze":
		err = cmdAnalyze(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
	// Commands return instead of exiting so their deferred cleanup runs.
	if err != nil {
		report(err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytclipper - YouTube clip extraction and moment analysis

Usage:
  ytclipper resolve <reference>                       Print the canonical video ID and URL
  ytclipper download [flags] <reference>              Download a video into the media cache
  ytclipper clip [flags] <reference> <start> <end>    Render a clip (MM:SS or HH:MM:SS offsets)
  ytclipper transcript [flags] <reference>            Fetch captions, falling back to speech-to-text
  ytclipper analyze [flags] <reference>               Find clip-worthy moments with an LLM
  ytclipper help                                      Show this help message

Examples:
  ytclipper resolve https://youtu.be/dQw4w9WgXcQ
  ytclipper download dQw4w9WgXcQ
  ytclipper clip --name chorus dQw4w9WgXcQ 0:42 1:10
  ytclipper transcript --format srt dQw4w9WgXcQ
  ytclipper analyze --json https://www.youtube.com/watch?v=dQw4w9WgXcQ

Every command accepts --json (machine-readable output), --json-logs and -v.
For help on specific command: ytclipper <command> -h
`)
}

// common holds flags shared by every subcommand.
type common struct {
	jsonOut  *bool
	jsonLogs *bool
	verbose  *bool
}

func newFlagSet(name, usage string) (*flag.FlagSet, *common) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := &common{
		jsonOut:  fs.Bool("json", false, "Print the result as JSON"),
		jsonLogs: fs.Bool("json-logs", false, "Emit logs as JSON"),
		verbose:  fs.Bool("v", false, "Enable debug logging"),
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytclipper %s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	return fs, c
}

func (c *common) logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if *c.verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if *c.jsonLogs {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// requireArgs exits with usage unless fs has exactly n positional args.
func requireArgs(fs *flag.FlagSet, n int, what string) []string {
	argv := fs.Args()
	if len(argv) != n {
		fmt.Fprintf(os.Stderr, "Error: expected %s\n", what)
		fs.Usage()
		os.Exit(1)
	}
	return argv
}

// setup loads config, applies overrides and builds the pipeline. The
// returned context is cancelled on SIGINT/SIGTERM.
func setup(c *common, mediaRoot string, override ...func(*config.Config)) (context.Context, *ytclipper.Pipeline, func(), error) {
	logger := c.logger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if mediaRoot != "" {
		cfg.MediaRoot = mediaRoot
	}
	for _, fn := range override {
		fn(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	p, err := ytclipper.New(ctx, cfg, ytclipper.WithLogger(logger))
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, p, func() {
		if err := p.Close(); err != nil {
			slog.Warn("close pipeline", slog.Any("error", err))
		}
		stop()
	}, nil
}

func cmdResolve(args []string) error {
	fs, c := newFlagSet("resolve", "resolve [flags] <reference>")
	fs.Parse(args)
	ref := requireArgs(fs, 1, "one video reference")[0]

	v, ok := youtube.Resolve(ref)
	if !ok {
		return fmt.Errorf("%w: %q", ytclipper.ErrInvalidReference, ref)
	}
	if *c.jsonOut {
		return printJSON(v)
	}
	fmt.Printf("ID:  %s\nURL: %s\n", v.ID, v.URL)
	return nil
}

func cmdDownload(args []string) error {
	fs, c := newFlagSet("download", "download [flags] <reference>")
	root := fs.String("root", "", "Media root (overrides config)")
	fs.Parse(args)
	ref := requireArgs(fs, 1, "one video reference")[0]

	ctx, p, done, err := setup(c, *root)
	if err != nil {
		return err
	}
	defer done()

	src, err := p.Resolve(ref)
	if err != nil {
		return err
	}
	m, err := p.AcquireMedia(ctx, src.URL, src.ID)
	if err != nil {
		return err
	}
	if *c.jsonOut {
		return printJSON(m)
	}
	state := "downloaded"
	if m.Hit {
		state = "cached"
	}
	fmt.Printf("%s (%s, %d bytes)\n", m.Path, state, m.Size)
	return nil
}

func cmdClip(args []string) error {
	fs, c := newFlagSet("clip", "clip [flags] <reference> <start> <end>")
	name := fs.String("name", "", "Output file name under extracted/ (default <id>_<start>_to_<end>.mp4)")
	root := fs.String("root", "", "Media root (overrides config)")
	fs.Parse(args)
	argv := requireArgs(fs, 3, "<reference> <start> <end>")

	ctx, p, done, err := setup(c, *root)
	if err != nil {
		return err
	}
	defer done()

	clip, err := p.Clip(ctx, argv[0], argv[1], argv[2], *name)
	if err != nil {
		return err
	}
	if *c.jsonOut {
		return printJSON(clip)
	}
	fmt.Printf("%s (%s, %ds, %d bytes)\n", clip.Path, media.FormatTimecode(clip.Start), clip.Duration, clip.Size)
	return nil
}

func cmdTranscript(args []string) error {
	fs, c := newFlagSet("transcript", "transcript [flags] <reference>")
	format := fs.String("format", "txt", "Output format: txt, json, vtt, srt or ttml")
	langStr := fs.String("lang", "", "Comma-separated caption languages, tried in order (overrides config)")
	root := fs.String("root", "", "Media root (overrides config)")
	fs.Parse(args)
	ref := requireArgs(fs, 1, "one video reference")[0]

	ctx, p, done, err := setup(c, *root, func(cfg *config.Config) {
		var langs []string
		for _, l := range strings.Split(*langStr, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		if len(langs) > 0 {
			cfg.CaptionLanguages = langs
		}
	})
	if err != nil {
		return err
	}
	defer done()

	src, err := p.Resolve(ref)
	if err != nil {
		return err
	}
	tr, err := p.AcquireTranscript(ctx, src.ID, src.URL)
	if err != nil {
		return err
	}

	f := transcript.Format(*format)
	if *c.jsonOut {
		f = transcript.FormatJSON
	}
	out, err := transcript.Render(tr, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Transcript for %s via %s\n", tr.VideoID, tr.Tier)
	fmt.Print(out)
	return nil
}

func cmdAnalyze(args []string) error {
	fs, c := newFlagSet("analyze", "analyze [flags] <reference>")
	root := fs.String("root", "", "Media root (overrides config)")
	fs.Parse(args)
	ref := requireArgs(fs, 1, "one video reference")[0]

	ctx, p, done, err := setup(c, *root)
	if err != nil {
		return err
	}
	defer done()

	res, err := p.Analyze(ctx, ref)
	if err != nil {
		return err
	}
	if *c.jsonOut {
		return printJSON(res)
	}

	if res.Details != nil {
		fmt.Printf("Title:      %s\n", res.Details.Title)
		fmt.Printf("Channel:    %s\n", res.Details.ChannelTitle)
	}
	fmt.Printf("Transcript: %s\n", res.Tier)
	fmt.Printf("Comments:   %d\n\n", res.CommentCount)

	if len(res.Moments) == 0 {
		fmt.Println("No moments found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tSCORE\tCATEGORY\tTITLE")
	for _, m := range res.Moments {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", m.Start, m.End, m.Score, m.Category, strutil.TruncateWith(m.SuggestedTitle, 60, "..."))
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// report prints err with a hint for common setup problems.
func report(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	switch {
	case errors.Is(err, ytclipper.ErrYtdlpNotInstalled):
		fmt.Fprintf(os.Stderr, "Install yt-dlp or set YTCLIPPER_YTDLP_PATH.\n")
	case errors.Is(err, ytclipper.ErrInvalidDuration), errors.Is(err, ytclipper.ErrInvalidTimecode):
		fmt.Fprintf(os.Stderr, "Offsets are MM:SS or HH:MM:SS and the end must be after the start.\n")
	case errors.Is(err, ytclipper.ErrNoTranscript):
		fmt.Fprintf(os.Stderr, "The video has no captions and speech-to-text failed; check YTCLIPPER_RECOGNIZER_COMMAND.\n")
	case errors.Is(err, ytclipper.ErrVideoUnavailable):
		fmt.Fprintf(os.Stderr, "The video is private, removed or restricted.\n")
	case errors.Is(err, ytclipper.ErrAnalyzerNotConfigured):
		fmt.Fprintf(os.Stderr, "Set LLM_API_KEY (or GEMINI_API_KEY) to enable analysis.\n")
	}
}
