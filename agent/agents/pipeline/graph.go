package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/insurance-media-router/agent/nodes/pipeline"
)

func (a *Agent) compileRunGraph(ctx context.Context) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, a.gate, a.bucket, a.policy, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("recommend_product",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecommendProduct(ctx, in, a.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node recommend_product: %w", err)
	}

	if err := graph.AddLambdaNode("generate_script",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GenerateScript(ctx, in, a.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_script: %w", err)
	}

	if err := graph.AddLambdaNode("produce_media",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ProduceMedia(ctx, in, a.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node produce_media: %w", err)
	}

	if err := graph.AddLambdaNode("generate_video",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GenerateVideo(ctx, in, a.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_video: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_report",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReport(in, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_report: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Done() {
				return "finalize_report", nil
			}
			return "recommend_product", nil
		},
		map[string]bool{
			"finalize_report":   true,
			"recommend_product": true,
		},
	)
	if err := graph.AddBranch("validate_request", branch); err != nil {
		return nil, fmt.Errorf("add pipeline gate branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"recommend_product", "generate_script"},
		{"generate_script", "produce_media"},
		{"produce_media", "generate_video"},
		{"generate_video", "finalize_report"},
		{"finalize_report", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("pipeline.run_agent"))
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return runner, nil
}
