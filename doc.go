// Package ytclipper turns YouTube video references into cached media,
// rendered clips, transcripts and a list of clip-worthy moments.
//
// Overview
//
// A Pipeline is built from a config.Config and exposes:
//
//   - Resolve: normalize a watch link, short link, embed/shorts/live path or
//     bare identifier into a canonical identifier and URL
//   - AcquireMedia: download a video into <root>/downloaded/<id>.mp4 once,
//     validating its size and sharing concurrent requests
//   - ExtractClip: re-encode a time range into <root>/extracted/<name>.mp4
//   - AcquireTranscript: native captions (timedtext, then player caption
//     tracks) first, speech-to-text second
//   - Analyze: transcript, comments and details fetched concurrently, then a
//     bounded prompt to an LLM and strict parsing of its moments
//
// Quick Start
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	p, err := ytclipper.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	res, err := p.Analyze(ctx, "https://youtu.be/dQw4w9WgXcQ")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, m := range res.Moments {
//		fmt.Printf("%s %d %s\n", m.Start, m.Score, m.Hook)
//	}
//
//	clip, err := p.Clip(ctx, "dQw4w9WgXcQ", "0:42", "1:10", "chorus")
//
// Configuration
//
// config.Load reads, in increasing priority: defaults, ytclipper.json (or
// ~/.config/ytclipper/ytclipper.json), .env.local and .env, then the
// environment:
//
//   - YTCLIPPER_MEDIA_ROOT: directory holding downloaded/, extracted/ and scratch/
//   - YTCLIPPER_YTDLP_PATH, YTCLIPPER_FFMPEG_PATH: external tools
//   - YTCLIPPER_RECOGNIZER_COMMAND: speech-to-text argv; --file_path <audio> is appended
//   - YTCLIPPER_*_TIMEOUT: download, transcode, recognizer, analysis and http bounds
//   - YTCLIPPER_MIN_VIABLE_BYTES: size a media file must exceed
//   - YTCLIPPER_TRANSCRIPT_BUDGET, YTCLIPPER_COMMENT_BUDGET: prompt input caps
//   - YTCLIPPER_CAPTION_LANGUAGES: caption languages tried in order
//   - YOUTUBE_API_KEY: enables Data API details and comments
//   - LLM_API_KEY (or GEMINI_API_KEY), LLM_API_BASE, LLM_MODEL: analyzer endpoint
//
// Errors
//
// See errors.go for the error taxonomy. Every error matches one of
// ErrInvalidReference, ErrDownloadFailure, ErrTranscodeFailure,
// ErrInvalidTimecode, ErrInvalidDuration, ErrTranscriptionProcess,
// ErrNoTranscript, ErrAnalysisFailure or ErrResponseParse. Comments without
// a Data API key returns ErrDataAPIDisabled.
package ytclipper
