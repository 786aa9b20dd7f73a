package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

var _ contractx.TextGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator calls the chat completions endpoint directly through the
// openai-go SDK. Any OpenAI-compatible base URL works.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	temp   float32
}

func NewOpenAIGenerator(client *openai.Client, model string, temperature float32) (*OpenAIGenerator, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("openai model is required")
	}
	return &OpenAIGenerator{client: client, model: model, temp: temperature}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: prompt is empty", contractx.ErrValidation)
	}

	temp := g.temp
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(float64(temp)),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify("openai "+g.model, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai %s returned no choices", contractx.ErrRemoteCall, g.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
