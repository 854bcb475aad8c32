// Package llm sends single-shot completions to hosted model providers.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderDeepSeek  = "deepseek"
	ProviderOpenCode  = "opencode"
)

// OpenAI-compatible endpoints for providers without a dedicated client
var compatibleBaseURLs = map[string]string{
	ProviderGoogle:   "https://generativelanguage.googleapis.com/v1beta/openai/",
	ProviderDeepSeek: "https://api.deepseek.com/v1/",
	ProviderOpenCode: "https://opencode.ai/zen/v1/",
}

// Provider is a model API
type Provider interface {
	// Complete sends one request and returns the reply text
	Complete(ctx context.Context, request Request) (*Response, error)

	// Name returns the provider name
	Name() string
}

// Request is a single user turn
type Request struct {
	Model        string
	Prompt       string
	SystemPrompt string
	MaxTokens    int
}

// Response is the model reply
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage holds token counts
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ProviderConfig configures a provider client
type ProviderConfig struct {
	Name       string
	APIKey     string
	BaseURL    string // overrides the default endpoint
	MaxRetries int    // SDK retries; negative uses the SDK default
}

// NewProvider creates a provider client
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Name)
	}

	switch cfg.Name {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case ProviderGoogle, ProviderDeepSeek, ProviderOpenCode:
		if cfg.BaseURL == "" {
			cfg.BaseURL = compatibleBaseURLs[cfg.Name]
		}
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}
}
