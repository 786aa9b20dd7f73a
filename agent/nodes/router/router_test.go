package routernode

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	intentx "github.com/tanpawarit/insurance-media-router/agent/intent"
)

var available = []string{"agent_media_pipeline", "agent_media_narration"}

func TestParseDecisionTolerance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{name: "plain", raw: `{"agents_to_invoke":[{"name":"agent_media_pipeline","reason":"annuity"}],"error":null}`},
		{name: "whitespace", raw: "\n  {\"agents_to_invoke\":[{\"name\":\"agent_media_pipeline\"}]}  \n"},
		{name: "quoted with escapes", raw: `"{\"agents_to_invoke\":[{\"name\":\"agent_media_pipeline\"}],\"error\":null}"`},
		{name: "code fence", raw: "```json\n{\"agents_to_invoke\":[{\"name\":\"agent_media_pipeline\"}]}\n```"},
		{name: "chatter", raw: "Here you go: {\"agents_to_invoke\":[{\"name\":\"agent_media_pipeline\"}]} Thanks"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := ParseDecision(context.Background(), tc.raw, available)
			if len(d.AgentsToInvoke) != 1 || d.AgentsToInvoke[0].Name != "agent_media_pipeline" {
				t.Fatalf("ParseDecision(%q) = %+v", tc.raw, d)
			}
			if d.Error != nil {
				t.Fatalf("unexpected error %q", *d.Error)
			}
		})
	}
}

func TestParseDecisionFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "   ", want: "LLM returned empty response"},
		{name: "not json", raw: "I think the pipeline agent fits", want: "Failed to parse LLM output"},
		{name: "missing field", raw: `{"agents":[]}`, want: "agents_to_invoke is missing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := ParseDecision(context.Background(), tc.raw, available)
			if len(d.AgentsToInvoke) != 0 {
				t.Fatalf("agents = %+v, want none", d.AgentsToInvoke)
			}
			if d.Error == nil || !strings.Contains(*d.Error, tc.want) {
				t.Fatalf("error = %v, want containing %q", d.Error, tc.want)
			}
		})
	}
}

func TestDecodeDecisionWrapsParseError(t *testing.T) {
	t.Parallel()

	if _, err := decodeDecision(context.Background(), `{"agents_to_invoke": "pipeline"}`); !errors.Is(err, contractx.ErrParse) {
		t.Fatalf("wrong type: error = %v, want ErrParse", err)
	}
	if _, err := decodeDecision(context.Background(), `{"agents_to_invoke":`); !errors.Is(err, contractx.ErrParse) {
		t.Fatalf("truncated: error = %v, want ErrParse", err)
	}

	d, err := decodeDecision(context.Background(), `{"agents_to_invoke":[{"name":"agent_media_narration","reason":"audio"}],"error":"note"}`)
	if err != nil {
		t.Fatalf("decodeDecision() error = %v", err)
	}
	if len(d.AgentsToInvoke) != 1 || d.AgentsToInvoke[0].Reason != "audio" || d.Error == nil || *d.Error != "note" {
		t.Fatalf("decision = %+v", d)
	}
}

func TestParseDecisionEmptyChoiceGetsFallbackMessage(t *testing.T) {
	t.Parallel()

	d := ParseDecision(context.Background(), `{"agents_to_invoke":[]}`, available)
	if d.Error == nil {
		t.Fatal("expected fallback error")
	}
	want := contractx.NoAgentMessage(available)
	if *d.Error != want {
		t.Fatalf("error = %q, want %q", *d.Error, want)
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	agents := []AgentInfo{{Name: "agent_media_pipeline"}}
	gate := intentx.NewGate()

	st, _ := ValidateRequest(GraphInput{Query: "  "}, agents, gate)
	if !st.Decided || st.Decision.Error == nil || *st.Decision.Error != MsgNoInput {
		t.Fatalf("empty query state = %+v", st)
	}

	st, _ = ValidateRequest(GraphInput{Query: "What's the weather today?"}, agents, gate)
	if !st.Decided || len(st.Decision.AgentsToInvoke) != 0 {
		t.Fatalf("out of scope state = %+v", st)
	}
	if !strings.Contains(*st.Decision.Error, "agent_media_pipeline") {
		t.Fatalf("error = %q, want agent list", *st.Decision.Error)
	}

	st, _ = ValidateRequest(GraphInput{Query: "What's the weather today?"}, agents, nil)
	if st.Decided {
		t.Fatal("nil gate should defer to the decision backend")
	}

	st, _ = ValidateRequest(GraphInput{Query: "annuity for retirement"}, agents, gate)
	if st.Decided {
		t.Fatal("in-scope query should not be decided early")
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	st := &GraphState{
		Query: "annuity for retirement",
		Agents: []AgentInfo{
			{Name: "agent_media_pipeline", Description: "full media package"},
			{Name: "agent_media_narration"},
		},
	}
	tpl := "Agents {agents_list}\n{agents_detail}\nQ: {user_input}"
	st, err := BuildPrompt(context.Background(), st, tpl)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	for _, want := range []string{
		"[agent_media_pipeline, agent_media_narration]",
		"- agent_media_pipeline: full media package",
		"- agent_media_narration\n",
		"Q: annuity for retirement",
	} {
		if !strings.Contains(st.Prompt, want) {
			t.Fatalf("prompt %q missing %q", st.Prompt, want)
		}
	}
}

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	return s.out, s.err
}

func TestDecidePropagatesBackendError(t *testing.T) {
	t.Parallel()

	_, err := Decide(context.Background(), &GraphState{Prompt: "p"}, stubGenerator{err: contractx.ErrRemoteCall}, nil)
	if !errors.Is(err, contractx.ErrRemoteCall) {
		t.Fatalf("Decide() error = %v, want ErrRemoteCall", err)
	}

	st, err := Decide(context.Background(), &GraphState{Prompt: "p"}, stubGenerator{out: "{}"}, nil)
	if err != nil || st.Raw != "{}" {
		t.Fatalf("Decide() = %+v, %v", st, err)
	}
}

func TestDispatchIsolatesAgentFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	agents := map[string]contractx.Agent{
		"a": contractx.AgentFunc(func(ctx context.Context, q string) (contractx.AgentReport, error) {
			calls.Add(1)
			return contractx.AgentReport{}, errors.New("boom")
		}),
		"b": contractx.AgentFunc(func(ctx context.Context, q string) (contractx.AgentReport, error) {
			calls.Add(1)
			return contractx.AgentReport{RunID: "run-b", Status: contractx.RunSuccess}, nil
		}),
		"c": contractx.AgentFunc(func(ctx context.Context, q string) (contractx.AgentReport, error) {
			calls.Add(1)
			panic("exploded")
		}),
	}
	lookup := func(name string) (contractx.Agent, bool) {
		a, ok := agents[name]
		return a, ok
	}
	st := &GraphState{
		Query: "annuity",
		Decision: contractx.RouterDecision{AgentsToInvoke: []contractx.AgentChoice{
			{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "ghost"}, {Name: "b"},
		}},
	}

	out, err := Dispatch(context.Background(), st, lookup)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	res := out.Result.Results
	if len(res) != 4 {
		t.Fatalf("results = %d, want 4", len(res))
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("agent calls = %d, want 3 (duplicates collapsed)", got)
	}
	if res["a"].Err != "boom" {
		t.Fatalf("a = %+v", res["a"])
	}
	if res["b"].Report == nil || res["b"].Report.RunID != "run-b" {
		t.Fatalf("b = %+v", res["b"])
	}
	if !strings.Contains(res["c"].Err, "exploded") {
		t.Fatalf("c = %+v", res["c"])
	}
	if res["ghost"].Err != MsgAgentNotFound {
		t.Fatalf("ghost = %+v", res["ghost"])
	}
}

func TestDispatchEmptyDecision(t *testing.T) {
	t.Parallel()

	msg := "nothing fits"
	st := &GraphState{Decision: contractx.RouterDecision{AgentsToInvoke: []contractx.AgentChoice{}, Error: &msg}}
	out, err := Dispatch(context.Background(), st, func(string) (contractx.Agent, bool) {
		t.Fatal("lookup must not be called")
		return nil, false
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.Result.Results != nil || out.Result.Decision.Error == nil || *out.Result.Decision.Error != msg {
		t.Fatalf("result = %+v", out.Result)
	}
}
