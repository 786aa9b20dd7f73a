package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type JobChecker interface {
	Poll(ctx context.Context, jobID string) (JobStatus, error)
}

type VideoJobBackend interface {
	JobChecker
	Submit(ctx context.Context, req VideoJobRequest) (string, error)
}

type ArtifactStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) (string, error)
	Get(ctx context.Context, uri string) ([]byte, error)
}

// Tool is a single pipeline step. Invoke never panics or returns a Go error:
// failures are reported through ToolResult.Error.
type Tool interface {
	Info() *schema.ToolInfo
	Invoke(ctx context.Context, args map[string]any) ToolResult
}

type ToolSet interface {
	List() []Tool
	Lookup(name string) (Tool, bool)
}

type Agent interface {
	Run(ctx context.Context, query string) (AgentReport, error)
}

type AgentFunc func(ctx context.Context, query string) (AgentReport, error)

func (f AgentFunc) Run(ctx context.Context, query string) (AgentReport, error) {
	return f(ctx, query)
}

type RunStore interface {
	Save(ctx context.Context, report AgentReport) error
	Load(ctx context.Context, runID string) (AgentReport, error)
}

type ReportPublisher interface {
	Publish(ctx context.Context, report AgentReport) error
}
