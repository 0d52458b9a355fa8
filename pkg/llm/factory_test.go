package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
)

func TestNewTextGenerator(t *testing.T) {
	t.Run("openai with key", func(t *testing.T) {
		gen, err := NewTextGenerator(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", OpenAIAPIKey: "sk-x"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &Client{}, gen)
		assert.Equal(t, DefaultOpenAIEndpoint, gen.GetEndpoint())
	})

	t.Run("local openai-compatible endpoint without key", func(t *testing.T) {
		gen, err := NewTextGenerator(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "llama3", BaseURL: "http://localhost:11434/v1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434/v1", gen.GetEndpoint())
	})

	t.Run("default openai endpoint without key", func(t *testing.T) {
		_, err := NewTextGenerator(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"}, nil)
		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "llm.api_key", cfgErr.Setting)
	})

	t.Run("anthropic uses its own key", func(t *testing.T) {
		_, err := NewTextGenerator(config.LLMConfig{Provider: config.ProviderAnthropic, Model: "claude-sonnet-4-5", OpenAIAPIKey: "sk-x"}, nil)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)

		gen, err := NewTextGenerator(config.LLMConfig{Provider: config.ProviderAnthropic, Model: "claude-sonnet-4-5", AnthropicAPIKey: "k"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &AnthropicClient{}, gen)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewTextGenerator(config.LLMConfig{Provider: "cohere", Model: "m"}, nil)
		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "llm.provider", cfgErr.Setting)
	})
}
