package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/cadence/internal/profile"
)

// LLMConfig holds the language model provider configuration.
//
// Any OpenAI-compatible endpoint works: OpenAI itself, DeepSeek, or a
// Gemini-compatible proxy, selected via BaseURL.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	MaxRetries  int
	Timeout     time.Duration
}

// DefaultLLMConfig returns the default configuration.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		MaxTokens:   1000,
		Temperature: 0.7,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}

// NewLLMConfigFromProfile builds the LLM config from the server profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := DefaultLLMConfig()
	if p.AIBaseURL != "" {
		cfg.BaseURL = p.AIBaseURL
	}
	cfg.APIKey = p.AIAPIKey
	if p.AIModel != "" {
		cfg.Model = p.AIModel
	}
	if p.AIMaxTokens > 0 {
		cfg.MaxTokens = p.AIMaxTokens
	}
	if p.AITemperature > 0 {
		cfg.Temperature = p.AITemperature
	}
	return cfg
}

// Validate checks the configuration for required fields.
func (c *LLMConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("API key is required, set CADENCE_AI_API_KEY")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	return nil
}
