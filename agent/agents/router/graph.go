package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/insurance-media-router/agent/nodes/router"
)

func (r *Router) compileRouteGraph(ctx context.Context) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, r.agentInfos(), r.gate)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("build_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildPrompt(ctx, in, r.template)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("decide",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Decide(ctx, in, r.gen, r.temperature)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node decide: %w", err)
	}

	if err := graph.AddLambdaNode("parse_decision",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyDecision(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node parse_decision: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Dispatch(ctx, in, r.Lookup)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Decided {
				return "dispatch", nil
			}
			return "build_prompt", nil
		},
		map[string]bool{
			"dispatch":     true,
			"build_prompt": true,
		},
	)
	if err := graph.AddBranch("validate_request", branch); err != nil {
		return nil, fmt.Errorf("add router gate branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"build_prompt", "decide"},
		{"decide", "parse_decision"},
		{"parse_decision", "dispatch"},
		{"dispatch", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.route"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
