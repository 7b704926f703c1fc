package analysis

import (
	"context"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Analyzer is the content-analysis capability: prompt in, free text out.
type Analyzer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, prompt string) (string, error)

func (f AnalyzerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// LLMConfig configures an OpenAI-compatible analyzer endpoint.
type LLMConfig struct {
	BaseURL      string
	APIKey       string
	FallbackKeys []string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// LLMAnalyzer sends prompts to an OpenAI-compatible chat endpoint.
type LLMAnalyzer struct {
	client *llm.Client
}

// NewLLMAnalyzer creates an analyzer backed by go-kit's llm client.
func NewLLMAnalyzer(cfg LLMConfig) *LLMAnalyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := llm.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model,
		llm.WithFallbackKeys(cfg.FallbackKeys),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTemperature(cfg.Temperature),
		llm.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &LLMAnalyzer{client: client}
}

func (a *LLMAnalyzer) Complete(ctx context.Context, prompt string) (string, error) {
	return a.client.Complete(ctx, "", prompt)
}
