package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const anthropicBedrockVersion = "bedrock-2023-05-31"

// BedrockAPI is the subset of the Bedrock runtime client used for text.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

var _ contractx.TextGenerator = (*BedrockGenerator)(nil)

type BedrockGenerator struct {
	client    BedrockAPI
	modelID   string
	maxTokens int
	temp      float32
}

func NewBedrockGenerator(client BedrockAPI, modelID string, maxTokens int, temperature float32) (*BedrockGenerator, error) {
	if client == nil {
		return nil, errors.New("bedrock client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("bedrock model id is required")
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &BedrockGenerator{client: client, modelID: modelID, maxTokens: maxTokens, temp: temperature}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float32            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (g *BedrockGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: prompt is empty", contractx.ErrValidation)
	}

	payload := anthropicRequest{
		AnthropicVersion: anthropicBedrockVersion,
		MaxTokens:        g.maxTokens,
		Temperature:      g.temp,
		Messages:         []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		payload.Temperature = *req.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal bedrock request: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		var throttled *brtypes.ThrottlingException
		if errors.As(err, &throttled) {
			return "", fmt.Errorf("%w: bedrock %s: %v", contractx.ErrRateLimited, g.modelID, err)
		}
		return "", classify("bedrock "+g.modelID, err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("%w: bedrock response: %v", contractx.ErrParse, err)
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Type == "" || part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	// Empty content is a valid answer; callers supply their own fallback.
	return strings.TrimSpace(sb.String()), nil
}
