package contract

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	ToolRecommendProduct = "recommend_product"
	ToolGenerateScript   = "generate_script"
	ToolSynthesizeSpeech = "synthesize_speech"
	ToolCreateSlides     = "create_slides"
	ToolGenerateVideo    = "generate_video"
)

// Argument and output keys shared by tools and the orchestrator.
const (
	ArgUserText = "user_text"
	ArgProduct  = "product"
	ArgBucket   = "s3_bucket"
	ArgPrefix   = "s3_prefix"

	KeyProduct            = "product"
	KeyNarrationScriptURI = "narration_script_s3_uri"
	KeyNarrationAudioURI  = "narration_audio_s3_uri"
	KeySlidesURI          = "slides_s3_uri"
	KeyVideoURI           = "video_s3_uri"
)

type Product struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Category         string   `json:"category,omitempty" yaml:"category"`
	ShortDescription string   `json:"short_description,omitempty" yaml:"short_description"`
	Benefits         []string `json:"benefits,omitempty" yaml:"benefits"`
	Keywords         []string `json:"keywords,omitempty" yaml:"keywords"`
}

type RunStatus string

const (
	RunSuccess        RunStatus = "success"
	RunPartialSuccess RunStatus = "partial_success"
	RunFailed         RunStatus = "failed"
	RunIgnored        RunStatus = "ignored"
)

type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// StepResult is the outcome of one tool invocation, including its retries.
// A failed step never carries output.
type StepResult struct {
	ToolName     string         `json:"tool_name"`
	Input        map[string]any `json:"input,omitempty"`
	Output       map[string]any `json:"output"`
	AttemptCount int            `json:"attempt_count"`
	Status       StepStatus     `json:"status"`
	Error        *string        `json:"error"`
	ErrorKind    ErrorKind      `json:"error_kind,omitempty"`
}

func (s StepResult) Succeeded() bool {
	return s.Status == StepSuccess
}

// OutputString returns a non-empty string output field of a successful step.
func (s StepResult) OutputString(key string) (string, bool) {
	if !s.Succeeded() || s.Output == nil {
		return "", false
	}
	v, ok := s.Output[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WorkflowRun is one execution of the pipeline for one query. Steps are
// append-only and Status is derived from them.
type WorkflowRun struct {
	RunID       string       `json:"run_id"`
	Query       string       `json:"query"`
	Bucket      string       `json:"bucket"`
	Prefix      string       `json:"prefix"`
	Steps       []StepResult `json:"steps"`
	Status      RunStatus    `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at,omitzero"`
}

func (r *WorkflowRun) Append(step StepResult) {
	r.Steps = append(r.Steps, step)
}

// Step returns the latest result recorded for a tool.
func (r *WorkflowRun) Step(tool string) (StepResult, bool) {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].ToolName == tool {
			return r.Steps[i], true
		}
	}
	return StepResult{}, false
}

// DeriveStatus computes a run status over the mandatory steps, in order.
// The run failed if the first mandatory step never succeeded.
func DeriveStatus(mandatory []string, steps []StepResult) RunStatus {
	succeeded := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Succeeded() {
			succeeded[s.ToolName] = true
		}
	}
	if len(mandatory) == 0 {
		return RunSuccess
	}
	if !succeeded[mandatory[0]] {
		return RunFailed
	}
	for _, name := range mandatory[1:] {
		if !succeeded[name] {
			return RunPartialSuccess
		}
	}
	return RunSuccess
}

// AgentReport is the minimum result contract every agent honors so that
// router aggregation is uniform. Missing URIs serialize as null.
type AgentReport struct {
	RunID              string       `json:"run_id,omitempty"`
	Status             RunStatus    `json:"status"`
	RecommendedProduct *Product     `json:"recommended_product"`
	NarrationScriptURI *string      `json:"narration_script_s3_uri"`
	NarrationAudioURI  *string      `json:"narration_audio_s3_uri"`
	SlidesURI          *string      `json:"slides_s3_uri"`
	VideoURI           *string      `json:"video_s3_uri"`
	Error              *string      `json:"error"`
	Steps              []StepResult `json:"steps,omitempty"`
	Artifacts          []string     `json:"artifacts,omitempty"`
	CompletedAt        time.Time    `json:"completed_at,omitzero"`
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type AgentChoice struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// RouterDecision is the decision backend's structured answer. When no agent
// is chosen Error always carries a human-readable explanation.
type RouterDecision struct {
	AgentsToInvoke []AgentChoice `json:"agents_to_invoke"`
	Error          *string       `json:"error"`
}

// Normalize drops unnamed choices and guarantees an explanation when no
// agent is left.
func (d RouterDecision) Normalize(available []string) RouterDecision {
	out := RouterDecision{AgentsToInvoke: make([]AgentChoice, 0, len(d.AgentsToInvoke)), Error: d.Error}
	for _, c := range d.AgentsToInvoke {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name != "" {
			out.AgentsToInvoke = append(out.AgentsToInvoke, c)
		}
	}
	if len(out.AgentsToInvoke) > 0 {
		return out
	}
	if out.Error == nil || strings.TrimSpace(*out.Error) == "" {
		msg := NoAgentMessage(available)
		out.Error = &msg
	}
	return out
}

func NoAgentMessage(available []string) string {
	return "Sorry, I cannot assist with this request. You can ask anything about the existing agents: [" +
		strings.Join(available, ", ") + "]."
}

// AgentResult is one agent's outcome inside a routed response.
type AgentResult struct {
	Report *AgentReport
	Err    string
}

func (r AgentResult) MarshalJSON() ([]byte, error) {
	if r.Report == nil {
		return json.Marshal(map[string]string{"error": r.Err})
	}
	return json.Marshal(r.Report)
}

// RouteResult is either the per-agent results or an empty decision with an
// error, never both.
type RouteResult struct {
	Decision RouterDecision
	Results  map[string]AgentResult
}

func (r RouteResult) MarshalJSON() ([]byte, error) {
	if len(r.Results) > 0 {
		return json.Marshal(r.Results)
	}
	agents := r.Decision.AgentsToInvoke
	if agents == nil {
		agents = []AgentChoice{}
	}
	return json.Marshal(RouterDecision{AgentsToInvoke: agents, Error: r.Decision.Error})
}

// RouteFailure renders a routing error as an empty decision.
func RouteFailure(err error) RouteResult {
	msg := err.Error()
	return RouteResult{Decision: RouterDecision{AgentsToInvoke: []AgentChoice{}, Error: &msg}}
}

type ToolResult struct {
	Tool   string         `json:"tool"`
	Output map[string]any `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
	Kind   ErrorKind      `json:"error_kind,omitempty"`
}

func (r ToolResult) Failed() bool {
	return r.Error != ""
}

func ToolSuccess(tool string, output map[string]any) ToolResult {
	return ToolResult{Tool: tool, Output: output}
}

func ToolFailure(tool string, err error) ToolResult {
	return ToolResult{Tool: tool, Error: err.Error(), Kind: KindOf(err)}
}

type JobState string

const (
	JobSubmitted JobState = "submitted"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobTimedOut  JobState = "timed_out"
)

func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobTimedOut
}

type AsyncJob struct {
	ID    string   `json:"id"`
	State JobState `json:"state"`
}

// JobStatus is a single poll answer from an async job backend.
type JobStatus struct {
	State          JobState
	OutputLocation string
	FailureReason  string
}

type JobOutcome struct {
	Job       AsyncJob `json:"job"`
	ResultURI string   `json:"result_uri,omitempty"`
	Error     string   `json:"error,omitempty"`
	Polls     int      `json:"polls"`
}

type VideoJobRequest struct {
	Text      string
	OutputURI string
}

type GenerateRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature *float32
}
