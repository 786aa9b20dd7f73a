package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/script.txt
	scriptRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router string
	Script string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router: strings.TrimSpace(routerRaw),
		Script: strings.TrimSpace(scriptRaw),
	}
}

// Render fills an f-string template ({name} placeholders, {{ }} escapes).
func Render(ctx context.Context, tpl string, vars map[string]any) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", contractx.ErrPromptMissing
	}

	msgs, err := einoprompt.FromMessages(schema.FString, schema.UserMessage(tpl)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: render prompt: %v", contractx.ErrValidation, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%w: render prompt produced no message", contractx.ErrValidation)
	}
	return msgs[0].Content, nil
}
