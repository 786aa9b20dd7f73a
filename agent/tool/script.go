package tool

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	promptx "github.com/tanpawarit/insurance-media-router/agent/prompt"
)

const (
	narrationScriptFile = "narration_script.txt"
	scriptMaxTokens     = 400
)

type GenerateScriptTool struct {
	gen      contractx.TextGenerator
	store    contractx.ArtifactStore
	template string
}

func NewGenerateScriptTool(gen contractx.TextGenerator, store contractx.ArtifactStore, template string) (*GenerateScriptTool, error) {
	if gen == nil {
		return nil, errors.New("text generator is required")
	}
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	if strings.TrimSpace(template) == "" {
		return nil, contractx.ErrPromptMissing
	}
	return &GenerateScriptTool{gen: gen, store: store, template: template}, nil
}

func (t *GenerateScriptTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: contractx.ToolGenerateScript,
		Desc: "Generate a short narration script for a product and store it as text.",
		ParamsOneOf: schema.NewParamsOneOfByParams(withParams(artifactParams(), map[string]*schema.ParameterInfo{
			contractx.ArgProduct: productParam(),
		})),
	}
}

func (t *GenerateScriptTool) Invoke(ctx context.Context, args map[string]any) contractx.ToolResult {
	product, err := productArg(args)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateScript, err)
	}
	bucket, prefix, err := artifactArgs(args)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateScript, err)
	}

	prompt, err := promptx.Render(ctx, t.template, map[string]any{"product_text": describeProduct(product)})
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateScript, err)
	}

	text, err := t.gen.Generate(ctx, contractx.GenerateRequest{Prompt: prompt, MaxTokens: scriptMaxTokens})
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateScript, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn().Str("product", product.Name).Msg("empty narration from model, using fallback text")
		text = fallbackNarration(product)
	}

	uri, err := t.store.Put(ctx, bucket, prefix+"/"+narrationScriptFile, []byte(text))
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateScript, err)
	}
	return contractx.ToolSuccess(contractx.ToolGenerateScript, map[string]any{
		contractx.KeyNarrationScriptURI: uri,
	})
}

func describeProduct(p contractx.Product) string {
	desc := strings.TrimSpace(p.ShortDescription)
	if desc == "" {
		desc = "This product offers valuable benefits."
	}
	return fmt.Sprintf("%s - %s\nBenefits: %s", p.Name, desc, strings.Join(p.Benefits, ", "))
}

func fallbackNarration(p contractx.Product) string {
	return p.Name + ": A great insurance product designed to meet your needs."
}

func withParams(base map[string]*schema.ParameterInfo, extra map[string]*schema.ParameterInfo) map[string]*schema.ParameterInfo {
	out := make(map[string]*schema.ParameterInfo, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}
