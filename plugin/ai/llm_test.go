package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cadence/internal/profile"
)

func TestNewLLMConfigFromProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile profile.Profile
		check   func(t *testing.T, cfg *LLMConfig)
	}{
		{
			name:    "defaults fill unset fields",
			profile: profile.Profile{AIAPIKey: "key"},
			check: func(t *testing.T, cfg *LLMConfig) {
				assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
				assert.Equal(t, "gpt-4o-mini", cfg.Model)
				assert.Equal(t, 1000, cfg.MaxTokens)
			},
		},
		{
			name: "profile overrides",
			profile: profile.Profile{
				AIAPIKey:      "key",
				AIBaseURL:     "https://api.deepseek.com/v1",
				AIModel:       "deepseek-chat",
				AIMaxTokens:   512,
				AITemperature: 0.2,
			},
			check: func(t *testing.T, cfg *LLMConfig) {
				assert.Equal(t, "https://api.deepseek.com/v1", cfg.BaseURL)
				assert.Equal(t, "deepseek-chat", cfg.Model)
				assert.Equal(t, 512, cfg.MaxTokens)
				assert.InDelta(t, 0.2, cfg.Temperature, 0.001)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewLLMConfigFromProfile(&tt.profile)
			tt.check(t, cfg)
		})
	}
}

func TestLLMConfigValidate(t *testing.T) {
	cfg := DefaultLLMConfig()
	require.Error(t, cfg.Validate(), "missing API key must fail validation")

	cfg.APIKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.Model = ""
	require.Error(t, cfg.Validate())
}

func TestFormatMessages(t *testing.T) {
	history := []Message{
		UserMessage("hello"),
		AssistantMessage("hi there"),
	}
	messages := FormatMessages("system prompt", "what's next?", history)

	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "what's next?", messages[3].Content)
}

func TestFormatMessagesWithoutSystemPrompt(t *testing.T) {
	messages := FormatMessages("", "only message", nil)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
}
