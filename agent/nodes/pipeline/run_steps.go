package pipelinenode

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	"golang.org/x/sync/errgroup"
)

func (s *GraphState) baseArgs() map[string]any {
	return map[string]any{
		contractx.ArgBucket: s.Namespace.Bucket,
		contractx.ArgPrefix: s.Namespace.Prefix,
	}
}

// upstream returns a string output of the latest successful step of tool.
func (s *GraphState) upstream(tool, key string) (string, bool) {
	step, ok := s.Run.Step(tool)
	if !ok {
		return "", false
	}
	return step.OutputString(key)
}

func RecommendProduct(ctx context.Context, st *GraphState, tools contractx.ToolSet) (*GraphState, error) {
	if st == nil {
		return nil, errors.New("pipeline state is nil")
	}
	if !st.Policy.Enabled(contractx.ToolRecommendProduct) {
		return st, nil
	}

	step := RunStep(ctx, tools, contractx.ToolRecommendProduct, map[string]any{
		contractx.ArgUserText: st.Run.Query,
	}, st.Policy.MaxRetries)
	if step.Succeeded() {
		if p, ok := step.Output[contractx.KeyProduct].(contractx.Product); ok {
			st.Product = &p
		} else {
			step = Rejected(contractx.ToolRecommendProduct, step.Input, contractx.KeyProduct)
		}
	}
	st.Run.Append(step)
	return st, nil
}

func GenerateScript(ctx context.Context, st *GraphState, tools contractx.ToolSet) (*GraphState, error) {
	if st == nil {
		return nil, errors.New("pipeline state is nil")
	}
	if !st.Policy.Enabled(contractx.ToolGenerateScript) {
		return st, nil
	}

	args := st.baseArgs()
	if st.Product == nil {
		st.Run.Append(Rejected(contractx.ToolGenerateScript, args, contractx.KeyProduct))
		return st, nil
	}
	args[contractx.ArgProduct] = *st.Product
	st.Run.Append(RunStep(ctx, tools, contractx.ToolGenerateScript, args, st.Policy.MaxRetries))
	return st, nil
}

// ProduceMedia runs speech and slides, concurrently when the policy allows.
// Results are appended in fixed order: speech, then slides.
func ProduceMedia(ctx context.Context, st *GraphState, tools contractx.ToolSet) (*GraphState, error) {
	if st == nil {
		return nil, errors.New("pipeline state is nil")
	}

	var jobs []func() contractx.StepResult
	if st.Policy.Enabled(contractx.ToolSynthesizeSpeech) {
		jobs = append(jobs, func() contractx.StepResult { return st.speechStep(ctx, tools) })
	}
	if st.Policy.Enabled(contractx.ToolCreateSlides) {
		jobs = append(jobs, func() contractx.StepResult { return st.slidesStep(ctx, tools) })
	}

	results := make([]contractx.StepResult, len(jobs))
	if st.Policy.ParallelMedia && len(jobs) > 1 {
		var g errgroup.Group
		for i, job := range jobs {
			g.Go(func() error {
				results[i] = job()
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, job := range jobs {
			results[i] = job()
		}
	}

	for _, r := range results {
		st.Run.Append(r)
	}
	return st, nil
}

func (s *GraphState) speechStep(ctx context.Context, tools contractx.ToolSet) contractx.StepResult {
	args := s.baseArgs()
	scriptURI, ok := s.upstream(contractx.ToolGenerateScript, contractx.KeyNarrationScriptURI)
	if !ok {
		return Rejected(contractx.ToolSynthesizeSpeech, args, contractx.KeyNarrationScriptURI)
	}
	args[contractx.KeyNarrationScriptURI] = scriptURI
	return RunStep(ctx, tools, contractx.ToolSynthesizeSpeech, args, s.Policy.MaxRetries)
}

func (s *GraphState) slidesStep(ctx context.Context, tools contractx.ToolSet) contractx.StepResult {
	args := s.baseArgs()
	var missing []string
	if s.Product != nil {
		args[contractx.ArgProduct] = *s.Product
	} else {
		missing = append(missing, contractx.KeyProduct)
	}
	if scriptURI, ok := s.upstream(contractx.ToolGenerateScript, contractx.KeyNarrationScriptURI); ok {
		args[contractx.KeyNarrationScriptURI] = scriptURI
	} else {
		missing = append(missing, contractx.KeyNarrationScriptURI)
	}
	if len(missing) > 0 {
		return Rejected(contractx.ToolCreateSlides, args, missing...)
	}
	return RunStep(ctx, tools, contractx.ToolCreateSlides, args, s.Policy.MaxRetries)
}

func GenerateVideo(ctx context.Context, st *GraphState, tools contractx.ToolSet) (*GraphState, error) {
	if st == nil {
		return nil, errors.New("pipeline state is nil")
	}
	if !st.Policy.Enabled(contractx.ToolGenerateVideo) {
		return st, nil
	}

	args := st.baseArgs()
	var missing []string

	if uri, ok := st.upstream(contractx.ToolGenerateScript, contractx.KeyNarrationScriptURI); ok {
		args[contractx.KeyNarrationScriptURI] = uri
	} else {
		missing = append(missing, contractx.KeyNarrationScriptURI)
	}

	optional := [][2]string{
		{contractx.ToolSynthesizeSpeech, contractx.KeyNarrationAudioURI},
		{contractx.ToolCreateSlides, contractx.KeySlidesURI},
	}
	for _, o := range optional {
		if uri, ok := st.upstream(o[0], o[1]); ok {
			args[o[1]] = uri
		} else if st.Policy.RequireAllUpstream {
			missing = append(missing, o[1])
		}
	}

	if len(missing) > 0 {
		st.Run.Append(Rejected(contractx.ToolGenerateVideo, args, missing...))
		return st, nil
	}
	st.Run.Append(RunStep(ctx, tools, contractx.ToolGenerateVideo, args, st.Policy.MaxRetries))
	return st, nil
}
