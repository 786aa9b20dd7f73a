package pipelinenode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

// artifactKeys lists output fields holding artifact references, in report order.
var artifactKeys = []string{
	contractx.KeyNarrationScriptURI,
	contractx.KeyNarrationAudioURI,
	contractx.KeySlidesURI,
	contractx.KeyVideoURI,
}

func FinalizeReport(st *GraphState, nowFn func() time.Time) (GraphOutput, error) {
	if st == nil || st.Run == nil {
		return GraphOutput{}, errors.New("pipeline state is nil")
	}

	run := st.Run
	run.CompletedAt = nowFn().UTC()
	if st.Done() {
		run.Status = st.Terminal
	} else {
		run.Status = contractx.DeriveStatus(st.Policy.Steps, run.Steps)
	}

	report := contractx.AgentReport{
		RunID:              run.RunID,
		Status:             run.Status,
		RecommendedProduct: st.Product,
		Steps:              run.Steps,
		CompletedAt:        run.CompletedAt,
	}
	if st.Done() {
		report.Error = contractx.StringPtr(st.Reason)
		return GraphOutput{Report: report}, nil
	}

	if uri, ok := st.upstream(contractx.ToolGenerateScript, contractx.KeyNarrationScriptURI); ok {
		report.NarrationScriptURI = &uri
	}
	if uri, ok := st.upstream(contractx.ToolSynthesizeSpeech, contractx.KeyNarrationAudioURI); ok {
		report.NarrationAudioURI = &uri
	}
	if uri, ok := st.upstream(contractx.ToolCreateSlides, contractx.KeySlidesURI); ok {
		report.SlidesURI = &uri
	}
	if uri, ok := st.upstream(contractx.ToolGenerateVideo, contractx.KeyVideoURI); ok {
		report.VideoURI = &uri
	}
	report.Artifacts = collectArtifacts(run.Steps)
	report.Error = summarizeFailures(run.Status, run.Steps)

	return GraphOutput{Report: report}, nil
}

// collectArtifacts returns every reference produced by a successful step,
// including those no later step consumed.
func collectArtifacts(steps []contractx.StepResult) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range steps {
		for _, key := range artifactKeys {
			if uri, ok := s.OutputString(key); ok && !seen[uri] {
				seen[uri] = true
				out = append(out, uri)
			}
		}
	}
	return out
}

func summarizeFailures(status contractx.RunStatus, steps []contractx.StepResult) *string {
	if status == contractx.RunSuccess {
		return nil
	}
	var parts []string
	for _, s := range steps {
		if s.Succeeded() || s.Error == nil {
			continue
		}
		parts = append(parts, s.ToolName+": "+*s.Error)
	}
	if len(parts) == 0 {
		if status == contractx.RunFailed {
			return contractx.StringPtr("no pipeline step succeeded")
		}
		return nil
	}
	return contractx.StringPtr(strings.Join(parts, "; "))
}
