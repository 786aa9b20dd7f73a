package media

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const (
	NovaReelModelID   = "amazon.nova-reel-v1:0"
	novaVideoFileName = "output.mp4"
	maxNovaSeed       = 2147483646
)

// NovaReelAPI is the subset of the Bedrock runtime client used for async video jobs.
type NovaReelAPI interface {
	StartAsyncInvoke(ctx context.Context, params *bedrockruntime.StartAsyncInvokeInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.StartAsyncInvokeOutput, error)
	GetAsyncInvoke(ctx context.Context, params *bedrockruntime.GetAsyncInvokeInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.GetAsyncInvokeOutput, error)
}

type NovaReelConfig struct {
	ModelID         string `envconfig:"MODEL_ID" split_words:"true" default:"amazon.nova-reel-v1:0"`
	DurationSeconds int    `envconfig:"DURATION_SECONDS" split_words:"true" default:"6"`
	FPS             int    `envconfig:"FPS" split_words:"true" default:"24"`
	Dimension       string `envconfig:"DIMENSION" split_words:"true" default:"1280x720"`
}

type novaVideoInput struct {
	TaskType              string             `json:"taskType"`
	TextToVideoParams     novaTextParams     `json:"textToVideoParams"`
	VideoGenerationConfig novaGenerationConf `json:"videoGenerationConfig"`
}

type novaTextParams struct {
	Text string `json:"text"`
}

type novaGenerationConf struct {
	FPS             int    `json:"fps"`
	DurationSeconds int    `json:"durationSeconds"`
	Dimension       string `json:"dimension"`
	Seed            int    `json:"seed"`
}

var _ contractx.VideoJobBackend = (*NovaReelBackend)(nil)

type NovaReelBackend struct {
	client NovaReelAPI
	cfg    NovaReelConfig
	seed   func() int
}

func NewNovaReelBackend(client NovaReelAPI, cfg NovaReelConfig) (*NovaReelBackend, error) {
	if client == nil {
		return nil, errors.New("bedrock runtime client is required")
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = NovaReelModelID
	}
	if cfg.DurationSeconds <= 0 {
		cfg.DurationSeconds = 6
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 24
	}
	if strings.TrimSpace(cfg.Dimension) == "" {
		cfg.Dimension = "1280x720"
	}
	return &NovaReelBackend{
		client: client,
		cfg:    cfg,
		seed:   func() int { return rand.IntN(maxNovaSeed + 1) },
	}, nil
}

func (b *NovaReelBackend) Submit(ctx context.Context, req contractx.VideoJobRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("%w: video narration text is empty", contractx.ErrValidation)
	}
	if !strings.HasPrefix(req.OutputURI, "s3://") {
		return "", fmt.Errorf("%w: video output must be an s3 uri, got %q", contractx.ErrValidation, req.OutputURI)
	}

	input := novaVideoInput{
		TaskType:          "TEXT_VIDEO",
		TextToVideoParams: novaTextParams{Text: req.Text},
		VideoGenerationConfig: novaGenerationConf{
			FPS:             b.cfg.FPS,
			DurationSeconds: b.cfg.DurationSeconds,
			Dimension:       b.cfg.Dimension,
			Seed:            b.seed(),
		},
	}

	out, err := b.client.StartAsyncInvoke(ctx, &bedrockruntime.StartAsyncInvokeInput{
		ModelId:    aws.String(b.cfg.ModelID),
		ModelInput: document.NewLazyDocument(input),
		OutputDataConfig: &brtypes.AsyncInvokeOutputDataConfigMemberS3OutputDataConfig{
			Value: brtypes.AsyncInvokeS3OutputDataConfig{S3Uri: aws.String(req.OutputURI)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: start nova reel job: %v", contractx.ErrRemoteCall, err)
	}
	arn := aws.ToString(out.InvocationArn)
	if arn == "" {
		return "", fmt.Errorf("%w: nova reel returned no invocation arn", contractx.ErrRemoteCall)
	}

	log.Info().Str("job_id", arn).Str("output", req.OutputURI).Msg("nova reel job submitted")
	return arn, nil
}

func (b *NovaReelBackend) Poll(ctx context.Context, jobID string) (contractx.JobStatus, error) {
	out, err := b.client.GetAsyncInvoke(ctx, &bedrockruntime.GetAsyncInvokeInput{
		InvocationArn: aws.String(jobID),
	})
	if err != nil {
		return contractx.JobStatus{}, fmt.Errorf("get nova reel job: %w", err)
	}

	switch out.Status {
	case brtypes.AsyncInvokeStatusCompleted:
		base := outputURI(out.OutputDataConfig)
		if base == "" {
			return contractx.JobStatus{State: contractx.JobFailed, FailureReason: "completed job has no output location"}, nil
		}
		return contractx.JobStatus{
			State:          contractx.JobCompleted,
			OutputLocation: strings.TrimRight(base, "/") + "/" + novaVideoFileName,
		}, nil
	case brtypes.AsyncInvokeStatusFailed:
		reason := aws.ToString(out.FailureMessage)
		if reason == "" {
			reason = "Unknown error"
		}
		return contractx.JobStatus{State: contractx.JobFailed, FailureReason: reason}, nil
	default:
		return contractx.JobStatus{State: contractx.JobRunning}, nil
	}
}

func outputURI(cfg brtypes.AsyncInvokeOutputDataConfig) string {
	s3cfg, ok := cfg.(*brtypes.AsyncInvokeOutputDataConfigMemberS3OutputDataConfig)
	if !ok || s3cfg == nil {
		return ""
	}
	return aws.ToString(s3cfg.Value.S3Uri)
}
