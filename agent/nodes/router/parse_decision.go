package routernode

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

type rawDecision struct {
	AgentsToInvoke *[]contractx.AgentChoice `json:"agents_to_invoke"`
	Error          *string                  `json:"error"`
}

var decisionParser = schema.NewMessageJSONParser[rawDecision](&schema.MessageJSONParseConfig{
	ParseFrom: schema.MessageParseFromContent,
})

// ParseDecision decodes the decision backend's answer. Failures never
// escape: they become an empty decision carrying the parse error.
func ParseDecision(ctx context.Context, raw string, available []string) contractx.RouterDecision {
	text := cleanDecisionText(raw)
	if text == "" {
		msg := fmt.Sprintf("LLM returned empty response. Available agents: [%s]", strings.Join(available, ", "))
		return contractx.RouterDecision{AgentsToInvoke: []contractx.AgentChoice{}, Error: &msg}
	}

	decision, err := decodeDecision(ctx, text)
	if err != nil {
		msg := fmt.Sprintf("Failed to parse LLM output: %v. Raw text: %s", err, text)
		return contractx.RouterDecision{AgentsToInvoke: []contractx.AgentChoice{}, Error: &msg}
	}
	return decision.Normalize(available)
}

func decodeDecision(ctx context.Context, text string) (contractx.RouterDecision, error) {
	rd, err := decisionParser.Parse(ctx, schema.AssistantMessage(text, nil))
	if err != nil {
		return contractx.RouterDecision{}, fmt.Errorf("%w: %v", contractx.ErrParse, err)
	}
	if rd.AgentsToInvoke == nil {
		return contractx.RouterDecision{}, fmt.Errorf("%w: agents_to_invoke is missing", contractx.ErrParse)
	}
	return contractx.RouterDecision{AgentsToInvoke: *rd.AgentsToInvoke, Error: rd.Error}, nil
}

// cleanDecisionText strips code fences, wrapping quotes with escaped
// content, and chatter around the JSON object.
func cleanDecisionText(raw string) string {
	text := strings.TrimSpace(raw)
	text = stripCodeFence(text)

	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		if unquoted, err := strconv.Unquote(text); err == nil {
			text = unquoted
		} else {
			text = strings.ReplaceAll(text[1:len(text)-1], `\"`, `"`)
		}
		text = strings.TrimSpace(stripCodeFence(strings.TrimSpace(text)))
	}

	if !strings.HasPrefix(text, "{") {
		if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
			text = text[start : end+1]
		}
	}
	return strings.TrimSpace(text)
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
