package routernode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const decisionMaxTokens = 512

// Decide calls the decision backend. The generator owns rate-limit backoff;
// an error here fails the whole routing call.
func Decide(ctx context.Context, st *GraphState, gen contractx.TextGenerator, temperature *float32) (*GraphState, error) {
	raw, err := gen.Generate(ctx, contractx.GenerateRequest{
		Prompt:      st.Prompt,
		MaxTokens:   decisionMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("raw", raw).Msg("router decision received")
	st.Raw = raw
	return st, nil
}

func ApplyDecision(ctx context.Context, st *GraphState) (*GraphState, error) {
	st.Decision = ParseDecision(ctx, st.Raw, st.AgentNames())
	st.Decided = true
	return st, nil
}
