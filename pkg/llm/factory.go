package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/config"
)

// NewClientFromConfig creates the chat client selected by
// email_generation.provider. The remote provider has no chat client and is
// rejected here.
func NewClientFromConfig(cfg *config.EmailGenerationConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case config.EmailProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			Endpoint: config.ResolveURLForDocker(cfg.LLMBaseURL),
			Model:    cfg.LLMModel,
			APIKey:   cfg.LLMAPIKey,
		}, logger)
	case config.EmailProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			Model:  cfg.AnthropicModel,
			APIKey: cfg.AnthropicAPIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("provider %q has no chat client", cfg.Provider)
	}
}
