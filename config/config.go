// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Config holds all configuration for media acquisition, transcripts and analysis.
type Config struct {
	// MediaRoot holds downloaded/, extracted/ and scratch/ (default: "videos")
	MediaRoot string `json:"media_root"`

	// YtdlpPath is the path to the yt-dlp executable (default: "yt-dlp")
	YtdlpPath string `json:"ytdlp_path"`
	// FfmpegPath is the path to the ffmpeg executable (default: "ffmpeg")
	FfmpegPath string `json:"ffmpeg_path"`
	// RecognizerCommand is the speech-to-text argv; "--file_path <audio>" is appended.
	RecognizerCommand []string `json:"recognizer_command"`

	DownloadTimeout   time.Duration `json:"download_timeout"`
	TranscodeTimeout  time.Duration `json:"transcode_timeout"`
	RecognizerTimeout time.Duration `json:"recognizer_timeout"`
	AnalysisTimeout   time.Duration `json:"analysis_timeout"`
	// HTTPTimeout bounds a single caption request.
	HTTPTimeout time.Duration `json:"http_timeout"`

	// MinViableBytes is the size a media file must exceed to count as valid.
	MinViableBytes int64 `json:"min_viable_bytes"`
	// TranscriptBudget and CommentBudget cap prompt inputs, in characters.
	TranscriptBudget int `json:"transcript_budget"`
	CommentBudget    int `json:"comment_budget"`
	// CaptionLanguages are tried in order by the native caption tier.
	CaptionLanguages []string `json:"caption_languages"`

	// MaxRetries is the number of retries for transient download failures.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1)
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// YouTubeAPIKey enables Data API metadata and comments. Empty disables both.
	YouTubeAPIKey string `json:"youtube_api_key"`

	LLMAPIKey          string   `json:"llm_api_key"`
	LLMAPIKeyFallbacks []string `json:"llm_api_key_fallbacks"`
	LLMBaseURL         string   `json:"llm_base_url"`
	LLMModel           string   `json:"llm_model"`
	LLMTemperature     float64  `json:"llm_temperature"`
	LLMMaxTokens       int      `json:"llm_max_tokens"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		MediaRoot:         "videos",
		YtdlpPath:         "yt-dlp",
		FfmpegPath:        "ffmpeg",
		RecognizerCommand: []string{"python3", "whisper_transcribe.py"},
		DownloadTimeout:   30 * time.Minute,
		TranscodeTimeout:  10 * time.Minute,
		RecognizerTimeout: 30 * time.Minute,
		AnalysisTimeout:   2 * time.Minute,
		HTTPTimeout:       30 * time.Second,
		MinViableBytes:    1000,
		TranscriptBudget:  100000,
		CommentBudget:     50000,
		CaptionLanguages:  []string{"en"},
		MaxRetries:        2,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		LLMBaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai",
		LLMModel:          "gemini-2.5-flash",
		LLMTemperature:    0.7,
		LLMMaxTokens:      8192,
	}
}

// duration decodes either a Go duration string ("30m", "1h30m") or an
// integer number of nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\" or integer nanoseconds: %s", data)
	}
	*d = duration(n)
	return nil
}

// UnmarshalJSON decodes a config file. Duration fields accept strings such
// as "30m" as well as integer nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		DownloadTimeout   duration `json:"download_timeout"`
		TranscodeTimeout  duration `json:"transcode_timeout"`
		RecognizerTimeout duration `json:"recognizer_timeout"`
		AnalysisTimeout   duration `json:"analysis_timeout"`
		HTTPTimeout       duration `json:"http_timeout"`
		InitialBackoff    duration `json:"initial_backoff"`
		MaxBackoff        duration `json:"max_backoff"`
	}{
		plain:             (*plain)(c),
		DownloadTimeout:   duration(c.DownloadTimeout),
		TranscodeTimeout:  duration(c.TranscodeTimeout),
		RecognizerTimeout: duration(c.RecognizerTimeout),
		AnalysisTimeout:   duration(c.AnalysisTimeout),
		HTTPTimeout:       duration(c.HTTPTimeout),
		InitialBackoff:    duration(c.InitialBackoff),
		MaxBackoff:        duration(c.MaxBackoff),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.DownloadTimeout = time.Duration(aux.DownloadTimeout)
	c.TranscodeTimeout = time.Duration(aux.TranscodeTimeout)
	c.RecognizerTimeout = time.Duration(aux.RecognizerTimeout)
	c.AnalysisTimeout = time.Duration(aux.AnalysisTimeout)
	c.HTTPTimeout = time.Duration(aux.HTTPTimeout)
	c.InitialBackoff = time.Duration(aux.InitialBackoff)
	c.MaxBackoff = time.Duration(aux.MaxBackoff)
	return nil
}

// EnvFiles are loaded, when present, before environment overrides are read.
// Variables already set in the process environment win.
var EnvFiles = []string{".env.local", ".env"}

// Load loads configuration from defaults, config file, .env files and the
// environment, then validates it.
// Priority: env vars > .env files > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnvFiles()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile attempts to load config from ytclipper.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{"ytclipper.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ytclipper", "ytclipper.json"))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	return os.ErrNotExist
}

func loadEnvFiles() {
	var files []string
	for _, name := range EnvFiles {
		if _, err := os.Stat(name); err == nil {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// loadFromEnv overrides config with environment variables. Unset variables
// keep the current value.
func (c *Config) loadFromEnv() {
	c.MediaRoot = env.Str("YTCLIPPER_MEDIA_ROOT", c.MediaRoot)
	c.YtdlpPath = env.Str("YTCLIPPER_YTDLP_PATH", c.YtdlpPath)
	c.FfmpegPath = env.Str("YTCLIPPER_FFMPEG_PATH", c.FfmpegPath)
	if v := env.Str("YTCLIPPER_RECOGNIZER_COMMAND", ""); v != "" {
		c.RecognizerCommand = strings.Fields(v)
	}

	c.DownloadTimeout = env.Duration("YTCLIPPER_DOWNLOAD_TIMEOUT", c.DownloadTimeout)
	c.TranscodeTimeout = env.Duration("YTCLIPPER_TRANSCODE_TIMEOUT", c.TranscodeTimeout)
	c.RecognizerTimeout = env.Duration("YTCLIPPER_RECOGNIZER_TIMEOUT", c.RecognizerTimeout)
	c.AnalysisTimeout = env.Duration("YTCLIPPER_ANALYSIS_TIMEOUT", c.AnalysisTimeout)
	c.HTTPTimeout = env.Duration("YTCLIPPER_HTTP_TIMEOUT", c.HTTPTimeout)

	c.MinViableBytes = int64(env.Int("YTCLIPPER_MIN_VIABLE_BYTES", int(c.MinViableBytes)))
	c.TranscriptBudget = env.Int("YTCLIPPER_TRANSCRIPT_BUDGET", c.TranscriptBudget)
	c.CommentBudget = env.Int("YTCLIPPER_COMMENT_BUDGET", c.CommentBudget)
	c.CaptionLanguages = compact(env.List("YTCLIPPER_CAPTION_LANGUAGES", strings.Join(c.CaptionLanguages, ",")))

	c.MaxRetries = env.Int("YTCLIPPER_MAX_RETRIES", c.MaxRetries)
	c.InitialBackoff = env.Duration("YTCLIPPER_INITIAL_BACKOFF", c.InitialBackoff)
	c.MaxBackoff = env.Duration("YTCLIPPER_MAX_BACKOFF", c.MaxBackoff)

	c.YouTubeAPIKey = env.Str("YOUTUBE_API_KEY", c.YouTubeAPIKey)

	// GEMINI_API_KEY is the historical name; LLM_API_KEY wins when both are set.
	c.LLMAPIKey = env.Str("GEMINI_API_KEY", c.LLMAPIKey)
	c.LLMAPIKey = env.Str("LLM_API_KEY", c.LLMAPIKey)
	c.LLMAPIKeyFallbacks = compact(env.List("LLM_API_KEY_FALLBACKS", strings.Join(c.LLMAPIKeyFallbacks, ",")))
	c.LLMBaseURL = env.Str("LLM_API_BASE", c.LLMBaseURL)
	c.LLMModel = env.Str("LLM_MODEL", c.LLMModel)
	c.LLMTemperature = env.Float("LLM_TEMPERATURE", c.LLMTemperature)
	c.LLMMaxTokens = env.Int("LLM_MAX_TOKENS", c.LLMMaxTokens)
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.MediaRoot == "" {
		return fmt.Errorf("media_root must be set")
	}
	if c.YtdlpPath == "" {
		return fmt.Errorf("ytdlp_path must be set")
	}
	if c.FfmpegPath == "" {
		return fmt.Errorf("ffmpeg_path must be set")
	}
	if len(c.RecognizerCommand) == 0 {
		return fmt.Errorf("recognizer_command must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"download_timeout":   c.DownloadTimeout,
		"transcode_timeout":  c.TranscodeTimeout,
		"recognizer_timeout": c.RecognizerTimeout,
		"analysis_timeout":   c.AnalysisTimeout,
		"http_timeout":       c.HTTPTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.MinViableBytes < 0 {
		return fmt.Errorf("min_viable_bytes must be non-negative")
	}
	if c.TranscriptBudget <= 0 || c.CommentBudget <= 0 {
		return fmt.Errorf("transcript_budget and comment_budget must be positive")
	}
	if len(c.CaptionLanguages) == 0 {
		return fmt.Errorf("caption_languages must not be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("llm_temperature must be between 0 and 2")
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("llm_max_tokens must be positive")
	}
	return nil
}
