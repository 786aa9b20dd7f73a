package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const slidesFile = "slides.json"

type Slide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func BuildSlides(p contractx.Product) []Slide {
	return []Slide{
		{Title: p.Name, Content: p.ShortDescription},
		{Title: "Benefits", Content: strings.Join(p.Benefits, ", ")},
	}
}

type CreateSlidesTool struct {
	store contractx.ArtifactStore
}

func NewCreateSlidesTool(store contractx.ArtifactStore) (*CreateSlidesTool, error) {
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	return &CreateSlidesTool{store: store}, nil
}

func (t *CreateSlidesTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: contractx.ToolCreateSlides,
		Desc: "Build a JSON slide deck for a product.",
		ParamsOneOf: schema.NewParamsOneOfByParams(withParams(artifactParams(), map[string]*schema.ParameterInfo{
			contractx.ArgProduct:            productParam(),
			contractx.KeyNarrationScriptURI: {Type: schema.String, Desc: "Narration script artifact", Required: true},
		})),
	}
}

func (t *CreateSlidesTool) Invoke(ctx context.Context, args map[string]any) contractx.ToolResult {
	product, err := productArg(args)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolCreateSlides, err)
	}
	if _, err := stringArg(args, contractx.KeyNarrationScriptURI); err != nil {
		return contractx.ToolFailure(contractx.ToolCreateSlides, err)
	}
	bucket, prefix, err := artifactArgs(args)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolCreateSlides, err)
	}

	body, err := json.Marshal(BuildSlides(product))
	if err != nil {
		return contractx.ToolFailure(contractx.ToolCreateSlides, fmt.Errorf("marshal slides: %w", err))
	}

	uri, err := t.store.Put(ctx, bucket, prefix+"/"+slidesFile, body)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolCreateSlides, err)
	}
	return contractx.ToolSuccess(contractx.ToolCreateSlides, map[string]any{
		contractx.KeySlidesURI: uri,
	})
}
