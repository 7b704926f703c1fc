package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty working directory and home so that no
// stray ytclipper.json or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.EqualValues(t, 1000, cfg.MinViableBytes)
	assert.Equal(t, 100000, cfg.TranscriptBudget)
	assert.Equal(t, 50000, cfg.CommentBudget)
	assert.Equal(t, []string{"en"}, cfg.CaptionLanguages)
	assert.Equal(t, 30*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MediaRoot, cfg.MediaRoot)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	body := `{"media_root": "/data/media", "ffmpeg_path": "/opt/ffmpeg", "comment_budget": 123}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ytclipper.json"), []byte(body), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/media", cfg.MediaRoot)
	assert.Equal(t, "/opt/ffmpeg", cfg.FfmpegPath)
	assert.Equal(t, 123, cfg.CommentBudget)
	assert.Equal(t, "yt-dlp", cfg.YtdlpPath)
}

func TestLoadFromFileDurations(t *testing.T) {
	dir := isolate(t)
	body := `{"download_timeout": "45m", "http_timeout": "1m30s", "initial_backoff": 1000000000, "max_backoff": "20s"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ytclipper.json"), []byte(body), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, 90*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Second, cfg.InitialBackoff)
	assert.Equal(t, 20*time.Second, cfg.MaxBackoff)
	assert.Equal(t, DefaultConfig().TranscodeTimeout, cfg.TranscodeTimeout, "unset durations keep defaults")
	assert.Equal(t, "videos", cfg.MediaRoot)
}

func TestLoadFromFileBadDuration(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ytclipper.json"), []byte(`{"download_timeout": "soon"}`), 0o644))

	_, err := Load()
	assert.ErrorContains(t, err, "parse ytclipper.json")
}

func TestLoadFromHomeConfig(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, ".config", "ytclipper")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "ytclipper.json"), []byte(`{"llm_model": "other"}`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "other", cfg.LLMModel)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ytclipper.json"), []byte("{"), 0o644))

	_, err := Load()
	assert.ErrorContains(t, err, "parse ytclipper.json")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ytclipper.json"), []byte(`{"media_root": "from-file"}`), 0o644))

	t.Setenv("YTCLIPPER_MEDIA_ROOT", "from-env")
	t.Setenv("YTCLIPPER_DOWNLOAD_TIMEOUT", "45s")
	t.Setenv("YTCLIPPER_CAPTION_LANGUAGES", "en, de")
	t.Setenv("YTCLIPPER_RECOGNIZER_COMMAND", "/venv/bin/python3 /srv/whisper.py")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MediaRoot)
	assert.Equal(t, 45*time.Second, cfg.DownloadTimeout)
	assert.Equal(t, []string{"en", "de"}, cfg.CaptionLanguages)
	assert.Equal(t, []string{"/venv/bin/python3", "/srv/whisper.py"}, cfg.RecognizerCommand)
	assert.Equal(t, "gemini-key", cfg.LLMAPIKey)
	assert.Equal(t, "yt-key", cfg.YouTubeAPIKey)
}

func TestLLMAPIKeyWinsOverGemini(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("LLM_API_KEY", "llm-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llm-key", cfg.LLMAPIKey)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("YTCLIPPER_FFMPEG_PATH=/from/dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("YTCLIPPER_FFMPEG_PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.FfmpegPath)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	isolate(t)
	t.Setenv("YTCLIPPER_TRANSCRIPT_BUDGET", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty media root", func(c *Config) { c.MediaRoot = "" }, "media_root"},
		{"empty ytdlp", func(c *Config) { c.YtdlpPath = "" }, "ytdlp_path"},
		{"empty ffmpeg", func(c *Config) { c.FfmpegPath = "" }, "ffmpeg_path"},
		{"no recognizer", func(c *Config) { c.RecognizerCommand = nil }, "recognizer_command"},
		{"zero download timeout", func(c *Config) { c.DownloadTimeout = 0 }, "download_timeout"},
		{"negative analysis timeout", func(c *Config) { c.AnalysisTimeout = -time.Second }, "analysis_timeout"},
		{"negative threshold", func(c *Config) { c.MinViableBytes = -1 }, "min_viable_bytes"},
		{"zero budget", func(c *Config) { c.CommentBudget = 0 }, "budget"},
		{"no languages", func(c *Config) { c.CaptionLanguages = nil }, "caption_languages"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"backoff order", func(c *Config) { c.MaxBackoff = time.Millisecond }, "max_backoff"},
		{"multiplier", func(c *Config) { c.BackoffMultiplier = 1 }, "backoff_multiplier"},
		{"temperature", func(c *Config) { c.LLMTemperature = 3 }, "llm_temperature"},
		{"max tokens", func(c *Config) { c.LLMMaxTokens = 0 }, "llm_max_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
