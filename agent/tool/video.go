package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	artifactx "github.com/tanpawarit/insurance-media-router/agent/artifact"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	pollerx "github.com/tanpawarit/insurance-media-router/agent/poller"
)

const (
	videoDir           = "nova_video"
	maxVideoTextRunes  = 512
	defaultVideoScheme = artifactx.SchemeS3
)

type GenerateVideoTool struct {
	store       contractx.ArtifactStore
	backend     contractx.VideoJobBackend
	poller      *pollerx.Poller
	interval    time.Duration
	maxAttempts int
}

func NewGenerateVideoTool(store contractx.ArtifactStore, backend contractx.VideoJobBackend, poller *pollerx.Poller, cfg pollerx.Config) (*GenerateVideoTool, error) {
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	if backend == nil {
		return nil, errors.New("video job backend is required")
	}
	if poller == nil {
		p, err := pollerx.New(backend)
		if err != nil {
			return nil, err
		}
		poller = p
	}
	return &GenerateVideoTool{
		store:       store,
		backend:     backend,
		poller:      poller,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

func (t *GenerateVideoTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: contractx.ToolGenerateVideo,
		Desc: "Render a short narrated product video through an async job and wait for it.",
		ParamsOneOf: schema.NewParamsOneOfByParams(withParams(artifactParams(), map[string]*schema.ParameterInfo{
			contractx.KeyNarrationScriptURI: {Type: schema.String, Desc: "Narration script artifact", Required: true},
			contractx.KeyNarrationAudioURI:  {Type: schema.String, Desc: "Narration audio artifact"},
			contractx.KeySlidesURI:          {Type: schema.String, Desc: "Slide deck artifact"},
		})),
	}
}

func (t *GenerateVideoTool) Invoke(ctx context.Context, args map[string]any) contractx.ToolResult {
	scriptURI, err := stringArg(args, contractx.KeyNarrationScriptURI)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateVideo, err)
	}
	bucket, prefix, err := artifactArgs(args)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateVideo, err)
	}

	script, err := t.store.Get(ctx, scriptURI)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateVideo, err)
	}
	text := truncateRunes(strings.TrimSpace(string(script)), maxVideoTextRunes)
	if text == "" {
		return contractx.ToolFailure(contractx.ToolGenerateVideo, fmt.Errorf("%w: narration text missing", contractx.ErrValidation))
	}

	outputURI := artifactx.Format(defaultVideoScheme, bucket, prefix+"/"+videoDir) + "/"
	jobID, err := t.backend.Submit(ctx, contractx.VideoJobRequest{Text: text, OutputURI: outputURI})
	if err != nil {
		return contractx.ToolFailure(contractx.ToolGenerateVideo, err)
	}

	outcome := t.poller.PollUntilTerminal(ctx, jobID, t.interval, t.maxAttempts)
	switch outcome.Job.State {
	case contractx.JobCompleted:
		log.Info().Str("job_id", jobID).Int("polls", outcome.Polls).Str("video", outcome.ResultURI).Msg("video generated")
		return contractx.ToolSuccess(contractx.ToolGenerateVideo, map[string]any{
			contractx.KeyVideoURI: outcome.ResultURI,
			"job_id":              jobID,
			"polls":               outcome.Polls,
		})
	case contractx.JobTimedOut:
		return contractx.ToolFailure(contractx.ToolGenerateVideo, fmt.Errorf("%w: video job %s not finished after %d polls", contractx.ErrTimeout, jobID, outcome.Polls))
	default:
		return contractx.ToolFailure(contractx.ToolGenerateVideo, fmt.Errorf("%w: video job %s failed: %s", contractx.ErrRemoteCall, jobID, outcome.Error))
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
