package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

var fullPipeline = []string{
	ToolRecommendProduct,
	ToolGenerateScript,
	ToolSynthesizeSpeech,
	ToolCreateSlides,
	ToolGenerateVideo,
}

func step(name string, status StepStatus) StepResult {
	return StepResult{ToolName: name, Status: status, AttemptCount: 1}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	all := make([]StepResult, 0, len(fullPipeline))
	for _, name := range fullPipeline {
		all = append(all, step(name, StepSuccess))
	}

	cases := []struct {
		name  string
		steps []StepResult
		want  RunStatus
	}{
		{name: "all succeeded", steps: all, want: RunSuccess},
		{name: "no steps", steps: nil, want: RunFailed},
		{
			name:  "first step failed",
			steps: []StepResult{step(ToolRecommendProduct, StepFailed)},
			want:  RunFailed,
		},
		{
			name: "script failed",
			steps: []StepResult{
				step(ToolRecommendProduct, StepSuccess),
				step(ToolGenerateScript, StepFailed),
				step(ToolSynthesizeSpeech, StepFailed),
				step(ToolCreateSlides, StepSuccess),
				step(ToolGenerateVideo, StepFailed),
			},
			want: RunPartialSuccess,
		},
	}

	for _, tc := range cases {
		got := DeriveStatus(fullPipeline, tc.steps)
		if got != tc.want {
			t.Fatalf("%s: DeriveStatus() = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := map[ErrorKind]error{
		KindNone:       nil,
		KindValidation: fmt.Errorf("%w: product is required", ErrValidation),
		KindRemoteCall: fmt.Errorf("%w: after 3 attempts", ErrRateLimited),
		KindStorage:    fmt.Errorf("put: %w", ErrStorage),
		KindTimeout:    fmt.Errorf("%w: job-1", ErrTimeout),
		KindParse:      fmt.Errorf("%w: bad json", ErrParse),
		KindInternal:   errors.New("boom"),
	}
	for want, err := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("KindOf(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestRouteResultMarshalEmptyDecision(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(RouteFailure(errors.New("no agent")))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"agents_to_invoke":[],"error":"no agent"}` {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestRouteResultMarshalResults(t *testing.T) {
	t.Parallel()

	res := RouteResult{
		Results: map[string]AgentResult{
			"agent_a": {Err: "Agent not found"},
			"agent_b": {Report: &AgentReport{Status: RunSuccess}},
		},
	}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(raw)
	if !strings.Contains(got, `"agent_a":{"error":"Agent not found"}`) {
		t.Fatalf("missing agent_a error: %s", got)
	}
	if !strings.Contains(got, `"status":"success"`) || !strings.Contains(got, `"video_s3_uri":null`) {
		t.Fatalf("unexpected agent_b report: %s", got)
	}
}

func TestStepResultOutputString(t *testing.T) {
	t.Parallel()

	ok := StepResult{Status: StepSuccess, Output: map[string]any{KeySlidesURI: "s3://b/k"}}
	if v, found := ok.OutputString(KeySlidesURI); !found || v != "s3://b/k" {
		t.Fatalf("OutputString() = %q, %v", v, found)
	}

	failed := StepResult{Status: StepFailed, Output: map[string]any{KeySlidesURI: "s3://b/k"}}
	if _, found := failed.OutputString(KeySlidesURI); found {
		t.Fatal("failed step must not expose output")
	}
}

func TestRouterDecisionNormalize(t *testing.T) {
	t.Parallel()

	d := RouterDecision{AgentsToInvoke: []AgentChoice{{Name: "  "}}}.Normalize([]string{"agent_a", "agent_b"})
	if len(d.AgentsToInvoke) != 0 || d.Error == nil {
		t.Fatalf("unexpected decision: %#v", d)
	}
	if *d.Error != "Sorry, I cannot assist with this request. You can ask anything about the existing agents: [agent_a, agent_b]." {
		t.Fatalf("unexpected fallback: %s", *d.Error)
	}

	msg := "not insurance"
	d = RouterDecision{Error: &msg}.Normalize(nil)
	if *d.Error != msg {
		t.Fatalf("explicit error must be kept: %s", *d.Error)
	}

	d = RouterDecision{AgentsToInvoke: []AgentChoice{{Name: " agent_a ", Reason: "media"}}}.Normalize(nil)
	if len(d.AgentsToInvoke) != 1 || d.AgentsToInvoke[0].Name != "agent_a" || d.Error != nil {
		t.Fatalf("unexpected decision: %#v", d)
	}
}
