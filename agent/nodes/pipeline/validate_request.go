package pipelinenode

import (
	"slices"
	"strings"
	"time"

	artifactx "github.com/tanpawarit/insurance-media-router/agent/artifact"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	intentx "github.com/tanpawarit/insurance-media-router/agent/intent"
)

const (
	MsgNoInput    = "No user input provided"
	MsgOutOfScope = "Query not related to insurance/products. I am here to help you with insurance products, " +
		"policies, annuities, and retirement plans. For example, you can say: " +
		"'Recommend an annuity product for retirement income'."
)

// FullSteps is the mandatory step set of the complete media pipeline.
var FullSteps = []string{
	contractx.ToolRecommendProduct,
	contractx.ToolGenerateScript,
	contractx.ToolSynthesizeSpeech,
	contractx.ToolCreateSlides,
	contractx.ToolGenerateVideo,
}

// NarrationSteps stops after the narration audio.
var NarrationSteps = []string{
	contractx.ToolRecommendProduct,
	contractx.ToolGenerateScript,
	contractx.ToolSynthesizeSpeech,
}

type Policy struct {
	MaxRetries         int
	RequireAllUpstream bool
	ParallelMedia      bool
	Steps              []string
}

func (p Policy) Enabled(tool string) bool {
	return slices.Contains(p.Steps, tool)
}

type GraphInput struct {
	Query string
}

type GraphOutput struct {
	Report contractx.AgentReport
}

type GraphState struct {
	Run       *contractx.WorkflowRun
	Namespace artifactx.Namespace
	Policy    Policy

	Product *contractx.Product

	// Terminal is set when the run ends before any tool runs.
	Terminal contractx.RunStatus
	Reason   string
}

func (s *GraphState) Done() bool {
	return s.Terminal != ""
}

func ValidateRequest(in GraphInput, gate *intentx.Gate, bucket string, policy Policy, nowFn func() time.Time) (*GraphState, error) {
	now := nowFn().UTC()
	query := strings.TrimSpace(in.Query)

	st := &GraphState{
		Run: &contractx.WorkflowRun{
			Query:     query,
			Bucket:    bucket,
			StartedAt: now,
		},
		Policy: policy,
	}

	switch {
	case query == "":
		st.Terminal = contractx.RunFailed
		st.Reason = MsgNoInput
	case !gate.Accepts(query):
		st.Terminal = contractx.RunIgnored
		st.Reason = MsgOutOfScope
	default:
		runID := artifactx.NewRunID(now)
		st.Namespace = artifactx.NewNamespace(bucket, runID)
		st.Run.RunID = runID
		st.Run.Prefix = st.Namespace.Prefix
	}
	return st, nil
}
