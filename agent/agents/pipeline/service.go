package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	intentx "github.com/tanpawarit/insurance-media-router/agent/intent"
	nodex "github.com/tanpawarit/insurance-media-router/agent/nodes/pipeline"
)

const (
	VariantFull      = "full"
	VariantNarration = "narration"
)

type Config struct {
	Bucket             string `envconfig:"BUCKET" split_words:"true" default:"my-insurance-agent-bucket"`
	MaxRetries         int    `envconfig:"MAX_RETRIES" split_words:"true" default:"2"`
	RequireAllUpstream bool   `envconfig:"REQUIRE_ALL_UPSTREAM" split_words:"true" default:"false"`
	ParallelMedia      bool   `envconfig:"PARALLEL_MEDIA" split_words:"true" default:"true"`
	Variant            string `envconfig:"VARIANT" split_words:"true" default:"full"`
}

func (c Config) Policy() (nodex.Policy, error) {
	if c.MaxRetries < 0 {
		return nodex.Policy{}, fmt.Errorf("%w: max retries must be >= 0", contractx.ErrValidation)
	}
	var steps []string
	switch strings.ToLower(strings.TrimSpace(c.Variant)) {
	case "", VariantFull:
		steps = nodex.FullSteps
	case VariantNarration:
		steps = nodex.NarrationSteps
	default:
		return nodex.Policy{}, fmt.Errorf("%w: unknown pipeline variant %q", contractx.ErrValidation, c.Variant)
	}
	return nodex.Policy{
		MaxRetries:         c.MaxRetries,
		RequireAllUpstream: c.RequireAllUpstream,
		ParallelMedia:      c.ParallelMedia,
		Steps:              append([]string(nil), steps...),
	}, nil
}

var _ contractx.Agent = (*Agent)(nil)

// Agent runs the media pipeline for one query per call.
type Agent struct {
	gate      *intentx.Gate
	tools     contractx.ToolSet
	runs      contractx.RunStore
	publisher contractx.ReportPublisher

	bucket string
	policy nodex.Policy

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*Agent)

func WithRunStore(store contractx.RunStore) Option {
	return func(a *Agent) {
		if store != nil {
			a.runs = store
		}
	}
}

func WithPublisher(p contractx.ReportPublisher) Option {
	return func(a *Agent) {
		if p != nil {
			a.publisher = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		if now != nil {
			a.now = now
		}
	}
}

func New(gate *intentx.Gate, tools contractx.ToolSet, cfg Config, opts ...Option) (*Agent, error) {
	if gate == nil {
		return nil, errors.New("intent gate is required")
	}
	if tools == nil {
		return nil, errors.New("tool set is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: artifact bucket is required", contractx.ErrValidation)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	a := &Agent{
		gate:      gate,
		tools:     tools,
		runs:      noopRunStore{},
		publisher: noopPublisher{},
		bucket:    bucket,
		policy:    policy,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	graphRunner, err := a.compileRunGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

// Run never returns a report-less failure for tool faults: those are part
// of the report. An error means the graph itself could not run.
func (a *Agent) Run(ctx context.Context, query string) (contractx.AgentReport, error) {
	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{Query: query})
	if err != nil {
		return contractx.AgentReport{}, err
	}
	report := out.Report

	logger := log.With().Str("run_id", report.RunID).Str("status", string(report.Status)).Logger()
	logger.Info().Int("steps", len(report.Steps)).Msg("pipeline run finished")

	if report.RunID == "" {
		return report, nil
	}
	if err := a.runs.Save(ctx, report); err != nil {
		logger.Warn().Err(err).Msg("save run report failed")
	}
	if err := a.publisher.Publish(ctx, report); err != nil {
		logger.Warn().Err(err).Msg("publish run report failed")
	}
	return report, nil
}

func (a *Agent) Policy() nodex.Policy {
	return a.policy
}

type noopRunStore struct{}

func (noopRunStore) Save(context.Context, contractx.AgentReport) error {
	return nil
}

func (noopRunStore) Load(context.Context, string) (contractx.AgentReport, error) {
	return contractx.AgentReport{}, errors.New("run store is not configured")
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, contractx.AgentReport) error {
	return nil
}
