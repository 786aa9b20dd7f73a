package pipelinenode

import (
	"context"
	"fmt"
	"maps"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

// RunStep invokes a tool with immediate retries, at most maxRetries+1
// attempts. Validation failures and timeouts end the step at once: the input
// will not change, and a timed-out job may still be running on the backend.
func RunStep(ctx context.Context, tools contractx.ToolSet, name string, args map[string]any, maxRetries int) contractx.StepResult {
	if maxRetries < 0 {
		maxRetries = 0
	}
	input := maps.Clone(args)

	tool, ok := tools.Lookup(name)
	if !ok {
		return failedStep(name, input, 1, fmt.Errorf("tool %s is not registered", name))
	}

	var last contractx.ToolResult
	attempts := 0
	for attempts < maxRetries+1 {
		attempts++
		last = tool.Invoke(ctx, args)
		if !last.Failed() {
			log.Info().Str("tool", name).Int("attempt", attempts).Msg("step succeeded")
			return contractx.StepResult{
				ToolName:     name,
				Input:        input,
				Output:       last.Output,
				AttemptCount: attempts,
				Status:       contractx.StepSuccess,
			}
		}

		log.Warn().Str("tool", name).Int("attempt", attempts).Str("error_kind", string(last.Kind)).Msg(last.Error)
		if !retryable(last.Kind) || ctx.Err() != nil {
			break
		}
	}

	errMsg := last.Error
	return contractx.StepResult{
		ToolName:     name,
		Input:        input,
		AttemptCount: attempts,
		Status:       contractx.StepFailed,
		Error:        &errMsg,
		ErrorKind:    last.Kind,
	}
}

func retryable(kind contractx.ErrorKind) bool {
	switch kind {
	case contractx.KindValidation, contractx.KindTimeout:
		return false
	default:
		return true
	}
}

// Rejected records a step that was never invoked because its required
// upstream input is missing.
func Rejected(name string, args map[string]any, missing ...string) contractx.StepResult {
	err := fmt.Errorf("%w: missing required upstream input %v", contractx.ErrValidation, missing)
	return failedStep(name, maps.Clone(args), 1, err)
}

func failedStep(name string, input map[string]any, attempts int, err error) contractx.StepResult {
	msg := err.Error()
	kind := contractx.KindOf(err)
	return contractx.StepResult{
		ToolName:     name,
		Input:        input,
		AttemptCount: attempts,
		Status:       contractx.StepFailed,
		Error:        &msg,
		ErrorKind:    kind,
	}
}
