package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	pollerx "github.com/tanpawarit/insurance-media-router/agent/poller"
)

type Loader func() (contractx.Tool, error)

// Declaration marks a tool for inclusion. Only declared tools are registered.
type Declaration struct {
	Name string
	Load Loader
}

var _ contractx.ToolSet = (*Registry)(nil)

type Registry struct {
	tools  []contractx.Tool
	byName map[string]contractx.Tool
}

// NewRegistry loads every declaration in order. A declaration that fails to
// load or does not honor the tool contract is logged and skipped.
func NewRegistry(decls []Declaration) *Registry {
	r := &Registry{byName: make(map[string]contractx.Tool, len(decls))}
	for _, decl := range decls {
		t, err := load(decl)
		if err != nil {
			log.Warn().Err(err).Str("tool", decl.Name).Msg("tool excluded from registry")
			continue
		}
		if _, dup := r.byName[decl.Name]; dup {
			log.Warn().Str("tool", decl.Name).Msg("duplicate tool declaration ignored")
			continue
		}
		guarded := Guard(t)
		r.tools = append(r.tools, guarded)
		r.byName[decl.Name] = guarded
	}
	return r
}

func load(decl Declaration) (t contractx.Tool, err error) {
	if decl.Name == "" {
		return nil, errors.New("declaration has no name")
	}
	if decl.Load == nil {
		return nil, errors.New("declaration has no loader")
	}
	defer func() {
		if rec := recover(); rec != nil {
			t, err = nil, fmt.Errorf("loader panicked: %v", rec)
		}
	}()

	t, err = decl.Load()
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("loader returned nil tool")
	}
	info := t.Info()
	if info == nil {
		return nil, errors.New("tool has no info")
	}
	if info.Name != decl.Name {
		return nil, fmt.Errorf("tool info name %q does not match declaration", info.Name)
	}
	if info.ParamsOneOf == nil {
		return nil, errors.New("tool has no parameter schema")
	}
	return t, nil
}

func (r *Registry) List() []contractx.Tool {
	return append([]contractx.Tool(nil), r.tools...)
}

func (r *Registry) Lookup(name string) (contractx.Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Info())
	}
	return out
}

type guarded struct {
	contractx.Tool
}

// Guard converts a panic inside Invoke into a failed ToolResult.
func Guard(t contractx.Tool) contractx.Tool {
	if g, ok := t.(guarded); ok {
		return g
	}
	return guarded{Tool: t}
}

func (g guarded) Invoke(ctx context.Context, args map[string]any) (res contractx.ToolResult) {
	name := g.Info().Name
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", name).Interface("panic", rec).Msg("tool panicked")
			res = contractx.ToolResult{Tool: name, Error: fmt.Sprintf("tool panicked: %v", rec), Kind: contractx.KindInternal}
		}
	}()
	res = g.Tool.Invoke(ctx, args)
	if res.Tool == "" {
		res.Tool = name
	}
	return res
}

// Dependencies are the injected backends the pipeline tools need.
type Dependencies struct {
	Catalog      *Catalog
	Generator    contractx.TextGenerator
	Speech       contractx.SpeechSynthesizer
	Video        contractx.VideoJobBackend
	Store        contractx.ArtifactStore
	ScriptPrompt string
	Poll         pollerx.Config
	Poller       *pollerx.Poller
}

// Declarations is the static table of pipeline tools, in pipeline order.
func Declarations(deps Dependencies) []Declaration {
	return []Declaration{
		{
			Name: contractx.ToolRecommendProduct,
			Load: func() (contractx.Tool, error) { return NewRecommendProductTool(deps.Catalog) },
		},
		{
			Name: contractx.ToolGenerateScript,
			Load: func() (contractx.Tool, error) {
				return NewGenerateScriptTool(deps.Generator, deps.Store, deps.ScriptPrompt)
			},
		},
		{
			Name: contractx.ToolSynthesizeSpeech,
			Load: func() (contractx.Tool, error) { return NewSynthesizeSpeechTool(deps.Speech, deps.Store) },
		},
		{
			Name: contractx.ToolCreateSlides,
			Load: func() (contractx.Tool, error) { return NewCreateSlidesTool(deps.Store) },
		},
		{
			Name: contractx.ToolGenerateVideo,
			Load: func() (contractx.Tool, error) {
				return NewGenerateVideoTool(deps.Store, deps.Video, deps.Poller, deps.Poll)
			},
		},
	}
}
