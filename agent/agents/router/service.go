package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	intentx "github.com/tanpawarit/insurance-media-router/agent/intent"
	nodex "github.com/tanpawarit/insurance-media-router/agent/nodes/router"
	promptx "github.com/tanpawarit/insurance-media-router/agent/prompt"
)

const (
	AgentMediaPipeline  = "agent_media_pipeline"
	AgentMediaNarration = "agent_media_narration"
)

type Config struct {
	GateEnabled bool `envconfig:"GATE_ENABLED" split_words:"true" default:"true"`
}

// Entry is one row of the agent table the router may dispatch to.
type Entry struct {
	Name        string
	Description string
	Agent       contractx.Agent
}

// Router picks agents for a query and runs them concurrently.
type Router struct {
	gen         contractx.TextGenerator
	gate        *intentx.Gate
	template    string
	temperature *float32

	entries []Entry
	index   map[string]contractx.Agent

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

type Option func(*Router)

// WithGate installs the keyword pre-filter applied before the decision call.
func WithGate(g *intentx.Gate) Option {
	return func(r *Router) {
		r.gate = g
	}
}

func WithTemplate(tpl string) Option {
	return func(r *Router) {
		if strings.TrimSpace(tpl) != "" {
			r.template = tpl
		}
	}
}

func WithTemperature(t float32) Option {
	return func(r *Router) {
		r.temperature = &t
	}
}

func New(gen contractx.TextGenerator, entries []Entry, opts ...Option) (*Router, error) {
	if gen == nil {
		return nil, errors.New("decision generator is required")
	}

	r := &Router{
		gen:      gen,
		template: promptx.LoadPromptSet().Router,
		index:    make(map[string]contractx.Agent, len(entries)),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" || e.Agent == nil {
			return nil, fmt.Errorf("%w: agent entry %q is incomplete", contractx.ErrValidation, e.Name)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate agent %q", contractx.ErrValidation, name)
		}
		e.Name = name
		r.entries = append(r.entries, e)
		r.index[name] = e.Agent
	}
	for _, opt := range opts {
		opt(r)
	}

	graphRunner, err := r.compileRouteGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Route returns an error only when the decision backend could not be
// reached; callers render it with contract.RouteFailure.
func (r *Router) Route(ctx context.Context, query string) (contractx.RouteResult, error) {
	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{Query: query})
	if err != nil {
		log.Error().Err(err).Msg("routing failed")
		return contractx.RouteResult{}, unwrapGraphError(err)
	}

	res := out.Result
	names := make([]string, 0, len(res.Results))
	for name := range res.Results {
		names = append(names, name)
	}
	log.Info().Strs("agents", names).Msg("routing finished")
	return res, nil
}

func (r *Router) Agents() []Entry {
	return append([]Entry(nil), r.entries...)
}

func (r *Router) Lookup(name string) (contractx.Agent, bool) {
	a, ok := r.index[name]
	return a, ok
}

func (r *Router) agentInfos() []nodex.AgentInfo {
	infos := make([]nodex.AgentInfo, 0, len(r.entries))
	for _, e := range r.entries {
		infos = append(infos, nodex.AgentInfo{Name: e.Name, Description: e.Description})
	}
	return infos
}

// unwrapGraphError keeps sentinel matching working across the graph's own
// error wrapping.
func unwrapGraphError(err error) error {
	for _, sentinel := range []error{
		contractx.ErrRemoteCall,
		contractx.ErrRateLimited,
		contractx.ErrTimeout,
		contractx.ErrValidation,
		contractx.ErrPromptMissing,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", contractx.ErrRemoteCall, err)
}
