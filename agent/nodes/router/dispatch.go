package routernode

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	"golang.org/x/sync/errgroup"
)

const MsgAgentNotFound = "Agent not found"

type AgentLookup func(name string) (contractx.Agent, bool)

// Dispatch invokes every chosen agent concurrently with the original query.
// Each agent's failure is confined to its own entry.
func Dispatch(ctx context.Context, st *GraphState, lookup AgentLookup) (GraphOutput, error) {
	if len(st.Decision.AgentsToInvoke) == 0 {
		return GraphOutput{Result: contractx.RouteResult{Decision: st.Decision}}, nil
	}

	results := make(map[string]contractx.AgentResult, len(st.Decision.AgentsToInvoke))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	seen := make(map[string]bool, len(st.Decision.AgentsToInvoke))
	for _, choice := range st.Decision.AgentsToInvoke {
		if seen[choice.Name] {
			continue
		}
		seen[choice.Name] = true

		g.Go(func() error {
			res := invokeAgent(ctx, lookup, choice, st.Query)
			mu.Lock()
			results[choice.Name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	st.Results = results
	return GraphOutput{Result: contractx.RouteResult{Decision: st.Decision, Results: results}}, nil
}

func invokeAgent(ctx context.Context, lookup AgentLookup, choice contractx.AgentChoice, query string) (res contractx.AgentResult) {
	logger := log.With().Str("agent", choice.Name).Logger()

	agent, ok := lookup(choice.Name)
	if !ok || agent == nil {
		logger.Warn().Msg("router chose unknown agent")
		return contractx.AgentResult{Err: MsgAgentNotFound}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("agent panicked")
			res = contractx.AgentResult{Err: fmt.Sprintf("agent panicked: %v", rec)}
		}
	}()

	logger.Info().Str("reason", choice.Reason).Msg("dispatching agent")
	report, err := agent.Run(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Msg("agent failed")
		return contractx.AgentResult{Err: err.Error()}
	}
	return contractx.AgentResult{Report: &report}
}
