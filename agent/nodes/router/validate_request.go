package routernode

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	intentx "github.com/tanpawarit/insurance-media-router/agent/intent"
	promptx "github.com/tanpawarit/insurance-media-router/agent/prompt"
)

const MsgNoInput = "No user input provided"

// AgentInfo is what the decision backend sees about an agent.
type AgentInfo struct {
	Name        string
	Description string
}

type GraphInput struct {
	Query string
}

type GraphOutput struct {
	Result contractx.RouteResult
}

type GraphState struct {
	Query  string
	Agents []AgentInfo

	Prompt   string
	Raw      string
	Decision contractx.RouterDecision
	Results  map[string]contractx.AgentResult

	// Decided is set once Decision is final and no backend call is needed.
	Decided bool
}

func (s *GraphState) AgentNames() []string {
	names := make([]string, 0, len(s.Agents))
	for _, a := range s.Agents {
		names = append(names, a.Name)
	}
	return names
}

func (s *GraphState) reject(msg string) {
	s.Decision = contractx.RouterDecision{AgentsToInvoke: []contractx.AgentChoice{}, Error: &msg}
	s.Decided = true
}

// ValidateRequest applies the cheap checks that avoid a decision call. gate
// may be nil to send every query to the backend.
func ValidateRequest(in GraphInput, agents []AgentInfo, gate *intentx.Gate) (*GraphState, error) {
	st := &GraphState{
		Query:  strings.TrimSpace(in.Query),
		Agents: agents,
	}
	switch {
	case st.Query == "":
		st.reject(MsgNoInput)
	case len(agents) == 0:
		st.reject(contractx.NoAgentMessage(nil))
	case gate != nil && !gate.Accepts(st.Query):
		st.reject(contractx.NoAgentMessage(st.AgentNames()))
	}
	return st, nil
}

func BuildPrompt(ctx context.Context, st *GraphState, template string) (*GraphState, error) {
	lines := make([]string, 0, len(st.Agents))
	for _, a := range st.Agents {
		line := "- " + a.Name
		if a.Description != "" {
			line += ": " + a.Description
		}
		lines = append(lines, line)
	}

	prompt, err := promptx.Render(ctx, template, map[string]any{
		"agents_list":   "[" + strings.Join(st.AgentNames(), ", ") + "]",
		"agents_detail": strings.Join(lines, "\n"),
		"user_input":    st.Query,
	})
	if err != nil {
		return nil, err
	}
	st.Prompt = prompt
	return st, nil
}
