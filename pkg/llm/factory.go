package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
)

// NewTextGenerator creates the client for the configured provider.
// A missing API key is a configuration error, except for OpenAI-compatible
// endpoints with a custom base URL (local servers often need none).
func NewTextGenerator(cfg config.LLMConfig, logger *zap.Logger) (TextGenerator, error) {
	clientCfg := &Config{
		Endpoint: cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey(),
		Timeout:  cfg.Timeout,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		if clientCfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, apperrors.NewConfigurationError("llm.api_key", "OPENAI_API_KEY is required for the default OpenAI endpoint", nil)
		}
		client, err := NewClient(clientCfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderAnthropic:
		if clientCfg.APIKey == "" {
			return nil, apperrors.NewConfigurationError("llm.api_key", "ANTHROPIC_API_KEY is required", nil)
		}
		client, err := NewAnthropicClient(clientCfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, apperrors.NewConfigurationError("llm.provider", fmt.Sprintf("unsupported provider %q", cfg.Provider), nil)
	}
}
