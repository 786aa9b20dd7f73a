package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	openrouterx "github.com/tanpawarit/insurance-media-router/pkg/openrouter"
)

var _ contractx.TextGenerator = (*ChatModelGenerator)(nil)

// ChatModelGenerator serves single-turn prompts through an eino chat model.
type ChatModelGenerator struct {
	model einomodel.BaseChatModel
	name  string
}

func NewChatModelGenerator(m einomodel.BaseChatModel, name string) (*ChatModelGenerator, error) {
	if m == nil {
		return nil, errors.New("chat model is required")
	}
	return &ChatModelGenerator{model: m, name: name}, nil
}

func (g *ChatModelGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: prompt is empty", contractx.ErrValidation)
	}

	opts := make([]einomodel.Option, 0, 2)
	if req.MaxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature != nil {
		opts = append(opts, einomodel.WithTemperature(*req.Temperature))
	}

	msg, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)}, opts...)
	if err != nil {
		return "", classify(g.name, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: %s returned no message", contractx.ErrRemoteCall, g.name)
	}
	return strings.TrimSpace(msg.Content), nil
}

func classify(name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", contractx.ErrTimeout, name, err)
	}
	if openrouterx.IsRateLimited(err) {
		return fmt.Errorf("%w: %s: %v", contractx.ErrRateLimited, name, err)
	}
	return fmt.Errorf("%w: %s: %v", contractx.ErrRemoteCall, name, err)
}
