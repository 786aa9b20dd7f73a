package llm

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	openrouterx "github.com/tanpawarit/insurance-media-router/pkg/openrouter"
)

// NewGenerator builds the configured backend for one purpose and wraps it
// with rate-limit backoff. bedrock may be nil unless the provider is bedrock.
func NewGenerator(ctx context.Context, cfg Config, purpose Purpose, bedrock BedrockAPI, opts ...RetryOption) (contractx.TextGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base contractx.TextGenerator
		err  error
	)
	switch cfg.ProviderName() {
	case ProviderOpenRouter:
		orCfg := cfg.OpenRouterFor(purpose)
		chatModel, buildErr := orCfg.New(ctx)
		if buildErr != nil {
			return nil, buildErr
		}
		base, err = NewChatModelGenerator(chatModel, "openrouter "+orCfg.Model)
	case ProviderOpenAI:
		orCfg := cfg.OpenRouterFor(purpose)
		client := openrouterx.NewClient(orCfg)
		if client == nil {
			return nil, errors.New("openai client could not be created")
		}
		base, err = NewOpenAIGenerator(client, orCfg.Model, orCfg.Temperature)
	case ProviderBedrock:
		if bedrock == nil {
			return nil, errors.New("bedrock client is required for provider bedrock")
		}
		modelID, temp := cfg.ModelFor(purpose)
		base, err = NewBedrockGenerator(bedrock, modelID, cfg.MaxCompletionToken, temp)
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", contractx.ErrValidation, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewRetryingGenerator(base, cfg.RateLimitAttempts, cfg.RateLimitBaseWait, opts...), nil
}
