package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	openrouterx "github.com/tanpawarit/insurance-media-router/pkg/openrouter"
)

type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderBedrock    Provider = "bedrock"
)

// Purpose selects per-caller model overrides.
type Purpose string

const (
	PurposeRouter Purpose = "router"
	PurposeScript Purpose = "script"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"anthropic/claude-3-haiku"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"512"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	BedrockModelID string `envconfig:"BEDROCK_MODEL_ID" split_words:"true" default:"anthropic.claude-3-haiku-20240307-v1:0"`

	RouterModel       string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	ScriptModel       string  `envconfig:"SCRIPT_MODEL" split_words:"true"`
	RouterTemperature float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	ScriptTemperature float32 `envconfig:"SCRIPT_TEMPERATURE" split_words:"true" default:"-1"`

	RateLimitAttempts int           `envconfig:"RATE_LIMIT_ATTEMPTS" split_words:"true" default:"3"`
	RateLimitBaseWait time.Duration `envconfig:"RATE_LIMIT_BASE_WAIT" split_words:"true" default:"1s"`
}

func (c Config) ProviderName() Provider {
	return Provider(strings.ToLower(strings.TrimSpace(c.Provider)))
}

func (c Config) Validate() error {
	switch c.ProviderName() {
	case ProviderOpenRouter, ProviderOpenAI:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: llm api key is required for provider %s", contractx.ErrValidation, c.Provider)
		}
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
		}
	case ProviderBedrock:
		if strings.TrimSpace(c.BedrockModelID) == "" {
			return fmt.Errorf("%w: bedrock model id is required", contractx.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unsupported llm provider %q", contractx.ErrValidation, c.Provider)
	}
	if c.RateLimitAttempts <= 0 {
		return fmt.Errorf("%w: rate limit attempts must be > 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) ModelFor(purpose Purpose) (string, float32) {
	modelName := strings.TrimSpace(c.Model)
	if c.ProviderName() == ProviderBedrock {
		modelName = strings.TrimSpace(c.BedrockModelID)
	}
	temp := c.Temperature

	switch purpose {
	case PurposeRouter:
		if v := strings.TrimSpace(c.RouterModel); v != "" {
			modelName = v
		}
		if c.RouterTemperature >= 0 {
			temp = c.RouterTemperature
		}
	case PurposeScript:
		if v := strings.TrimSpace(c.ScriptModel); v != "" {
			modelName = v
		}
		if c.ScriptTemperature >= 0 {
			temp = c.ScriptTemperature
		}
	}
	return modelName, temp
}

func (c Config) OpenRouterFor(purpose Purpose) openrouterx.Config {
	modelName, temp := c.ModelFor(purpose)
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
