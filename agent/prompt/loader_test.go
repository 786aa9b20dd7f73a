package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

func TestLoadPromptSetNotEmpty(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Router == "" || set.Script == "" {
		t.Fatalf("prompt set has empty entries: %#v", set)
	}
}

func TestRenderRouterPrompt(t *testing.T) {
	t.Parallel()

	out, err := Render(context.Background(), LoadPromptSet().Router, map[string]any{
		"agents_list":   "[insurance_media]",
		"agents_detail": "- insurance_media: media pipeline",
		"user_input":    "recommend an annuity",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "User input: recommend an annuity") {
		t.Fatalf("query missing from prompt: %s", out)
	}
	if !strings.Contains(out, `"agents_to_invoke": [`) {
		t.Fatalf("escaped json braces not rendered: %s", out)
	}
}

func TestRenderEmptyTemplate(t *testing.T) {
	t.Parallel()

	_, err := Render(context.Background(), "  ", nil)
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
