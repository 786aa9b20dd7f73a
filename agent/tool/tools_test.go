package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cloudwego/eino/schema"
	artifactx "github.com/tanpawarit/insurance-media-router/agent/artifact"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	llmx "github.com/tanpawarit/insurance-media-router/agent/llm"
	pollerx "github.com/tanpawarit/insurance-media-router/agent/poller"
	promptx "github.com/tanpawarit/insurance-media-router/agent/prompt"
)

const (
	testBucket = "media"
	testPrefix = "runs/run_20250101_000000_abcd1234"
)

var testProduct = contractx.Product{
	ID:               "annuity-secure-income",
	Name:             "SecureIncome Annuity",
	ShortDescription: "Guaranteed income for life.",
	Benefits:         []string{"Lifetime income", "Tax-deferred growth"},
}

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeSynth struct {
	texts []string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.texts = append(f.texts, text)
	return []byte("mp3:" + text), nil
}

type fakeVideoBackend struct {
	states []contractx.JobState
	req    contractx.VideoJobRequest
	polls  int
}

func (f *fakeVideoBackend) Submit(ctx context.Context, req contractx.VideoJobRequest) (string, error) {
	f.req = req
	return "job-1", nil
}

func (f *fakeVideoBackend) Poll(ctx context.Context, jobID string) (contractx.JobStatus, error) {
	idx := f.polls
	f.polls++
	state := contractx.JobRunning
	if idx < len(f.states) {
		state = f.states[idx]
	}
	if state == contractx.JobCompleted {
		return contractx.JobStatus{State: state, OutputLocation: f.req.OutputURI + "inv1/output.mp4"}, nil
	}
	return contractx.JobStatus{State: state}, nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func baseArgs(extra map[string]any) map[string]any {
	args := map[string]any{
		contractx.ArgBucket: testBucket,
		contractx.ArgPrefix: testPrefix,
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

type stubTool struct {
	name   string
	params bool
	panics bool
}

func (s stubTool) Info() *schema.ToolInfo {
	info := &schema.ToolInfo{Name: s.name}
	if s.params {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{})
	}
	return info
}

func (s stubTool) Invoke(ctx context.Context, args map[string]any) contractx.ToolResult {
	if s.panics {
		panic("boom")
	}
	return contractx.ToolSuccess(s.name, map[string]any{"ok": true})
}

func TestRegistryExcludesBrokenDeclarations(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Declaration{
		{Name: "first", Load: func() (contractx.Tool, error) { return stubTool{name: "first", params: true}, nil }},
		{Name: "missing_dep", Load: func() (contractx.Tool, error) { return nil, errors.New("dependency missing") }},
		{Name: "misnamed", Load: func() (contractx.Tool, error) { return stubTool{name: "other", params: true}, nil }},
		{Name: "no_schema", Load: func() (contractx.Tool, error) { return stubTool{name: "no_schema"}, nil }},
		{Name: "panicky_loader", Load: func() (contractx.Tool, error) { panic("init failed") }},
		{Name: "second", Load: func() (contractx.Tool, error) { return stubTool{name: "second", params: true}, nil }},
	})

	tools := reg.List()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Info().Name != "first" || tools[1].Info().Name != "second" {
		t.Fatalf("unexpected order: %s, %s", tools[0].Info().Name, tools[1].Info().Name)
	}
	if _, ok := reg.Lookup("misnamed"); ok {
		t.Fatal("misnamed tool must not be registered")
	}
	if len(reg.Infos()) != 2 {
		t.Fatalf("unexpected infos: %d", len(reg.Infos()))
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Declaration{
		{Name: "explode", Load: func() (contractx.Tool, error) { return stubTool{name: "explode", params: true, panics: true}, nil }},
	})
	tool, ok := reg.Lookup("explode")
	if !ok {
		t.Fatal("expected tool to be registered")
	}

	res := tool.Invoke(context.Background(), nil)
	if !res.Failed() || res.Kind != contractx.KindInternal {
		t.Fatalf("expected internal failure, got %#v", res)
	}
	if res.Tool != "explode" {
		t.Fatalf("unexpected tool name: %s", res.Tool)
	}
}

func TestDeclarationsRegisterPipelineTools(t *testing.T) {
	t.Parallel()

	catalog, _ := DefaultCatalog()
	reg := NewRegistry(Declarations(Dependencies{
		Catalog:      catalog,
		Generator:    &fakeGenerator{out: "x"},
		Speech:       &fakeSynth{},
		Video:        &fakeVideoBackend{},
		Store:        artifactx.NewMemoryStore(),
		ScriptPrompt: promptx.LoadPromptSet().Script,
	}))

	want := []string{
		contractx.ToolRecommendProduct,
		contractx.ToolGenerateScript,
		contractx.ToolSynthesizeSpeech,
		contractx.ToolCreateSlides,
		contractx.ToolGenerateVideo,
	}
	tools := reg.List()
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for i, name := range want {
		if tools[i].Info().Name != name {
			t.Fatalf("tool %d = %s, want %s", i, tools[i].Info().Name, name)
		}
	}
}

func TestDeclarationsSkipToolWithoutBackend(t *testing.T) {
	t.Parallel()

	catalog, _ := DefaultCatalog()
	reg := NewRegistry(Declarations(Dependencies{
		Catalog:      catalog,
		Generator:    &fakeGenerator{out: "x"},
		Store:        artifactx.NewMemoryStore(),
		ScriptPrompt: promptx.LoadPromptSet().Script,
	}))

	if _, ok := reg.Lookup(contractx.ToolSynthesizeSpeech); ok {
		t.Fatal("speech tool must be excluded without a synthesizer")
	}
	if _, ok := reg.Lookup(contractx.ToolCreateSlides); !ok {
		t.Fatal("slides tool should still load")
	}
}

func TestGenerateScriptToolWritesArtifact(t *testing.T) {
	t.Parallel()

	store := artifactx.NewMemoryStore()
	gen := &fakeGenerator{out: "  Secure your future today.  "}
	script, err := NewGenerateScriptTool(gen, store, promptx.LoadPromptSet().Script)
	if err != nil {
		t.Fatalf("NewGenerateScriptTool() error = %v", err)
	}

	res := script.Invoke(context.Background(), baseArgs(map[string]any{contractx.ArgProduct: testProduct}))
	if res.Failed() {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	uri, _ := res.Output[contractx.KeyNarrationScriptURI].(string)
	if uri != "mem://media/"+testPrefix+"/narration_script.txt" {
		t.Fatalf("unexpected uri: %s", uri)
	}
	body, err := store.Get(context.Background(), uri)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "Secure your future today." {
		t.Fatalf("unexpected script: %q", body)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "SecureIncome Annuity - Guaranteed income for life.") {
		t.Fatalf("product missing from prompt: %v", gen.prompts)
	}
}

func TestGenerateScriptToolFallbackText(t *testing.T) {
	t.Parallel()

	store := artifactx.NewMemoryStore()
	script, _ := NewGenerateScriptTool(&fakeGenerator{out: ""}, store, promptx.LoadPromptSet().Script)

	res := script.Invoke(context.Background(), baseArgs(map[string]any{
		contractx.ArgProduct: map[string]any{"name": "FamilyProtect", "benefits": []any{"cover"}},
	}))
	if res.Failed() {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	body, _ := store.Get(context.Background(), res.Output[contractx.KeyNarrationScriptURI].(string))
	if string(body) != "FamilyProtect: A great insurance product designed to meet your needs." {
		t.Fatalf("unexpected fallback: %q", body)
	}
}

type emptyBedrock struct{}

func (emptyBedrock) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"content":[]}`)}, nil
}

func TestGenerateScriptToolFallbackOnBedrock(t *testing.T) {
	t.Parallel()

	gen, err := llmx.NewBedrockGenerator(emptyBedrock{}, "anthropic.claude-3-haiku-20240307-v1:0", 0, 0)
	if err != nil {
		t.Fatalf("NewBedrockGenerator() error = %v", err)
	}
	store := artifactx.NewMemoryStore()
	script, _ := NewGenerateScriptTool(gen, store, promptx.LoadPromptSet().Script)

	res := script.Invoke(context.Background(), baseArgs(map[string]any{contractx.ArgProduct: testProduct}))
	if res.Failed() {
		t.Fatalf("unexpected tool error: %s (%s)", res.Error, res.Kind)
	}
	body, _ := store.Get(context.Background(), res.Output[contractx.KeyNarrationScriptURI].(string))
	if string(body) != "SecureIncome Annuity: A great insurance product designed to meet your needs." {
		t.Fatalf("unexpected fallback: %q", body)
	}
}

func TestGenerateScriptToolRemoteFailure(t *testing.T) {
	t.Parallel()

	store := artifactx.NewMemoryStore()
	script, _ := NewGenerateScriptTool(&fakeGenerator{err: contractx.ErrRemoteCall}, store, promptx.LoadPromptSet().Script)

	res := script.Invoke(context.Background(), baseArgs(map[string]any{contractx.ArgProduct: testProduct}))
	if !res.Failed() || res.Kind != contractx.KindRemoteCall {
		t.Fatalf("expected remote failure, got %#v", res)
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("no artifact must be written on failure: %v", store.Keys())
	}
}

func TestSynthesizeSpeechTool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := artifactx.NewMemoryStore()
	scriptURI, _ := store.Put(ctx, testBucket, testPrefix+"/narration_script.txt", []byte("hello"))
	synth := &fakeSynth{}
	speech, _ := NewSynthesizeSpeechTool(synth, store)

	res := speech.Invoke(ctx, baseArgs(map[string]any{contractx.KeyNarrationScriptURI: scriptURI}))
	if res.Failed() {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	audio, _ := store.Get(ctx, res.Output[contractx.KeyNarrationAudioURI].(string))
	if string(audio) != "mp3:hello" {
		t.Fatalf("unexpected audio: %q", audio)
	}

	res = speech.Invoke(ctx, baseArgs(map[string]any{contractx.KeyNarrationScriptURI: "mem://media/missing.txt"}))
	if !res.Failed() || res.Kind != contractx.KindStorage {
		t.Fatalf("expected storage failure, got %#v", res)
	}
}

func TestCreateSlidesTool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := artifactx.NewMemoryStore()
	slides, _ := NewCreateSlidesTool(store)

	res := slides.Invoke(ctx, baseArgs(map[string]any{
		contractx.ArgProduct:            testProduct,
		contractx.KeyNarrationScriptURI: "mem://media/" + testPrefix + "/narration_script.txt",
	}))
	if res.Failed() {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	raw, _ := store.Get(ctx, res.Output[contractx.KeySlidesURI].(string))

	var deck []Slide
	if err := json.Unmarshal(raw, &deck); err != nil {
		t.Fatalf("slides json: %v", err)
	}
	if len(deck) != 2 || deck[0].Title != testProduct.Name || deck[1].Title != "Benefits" {
		t.Fatalf("unexpected deck: %#v", deck)
	}
	if deck[1].Content != "Lifetime income, Tax-deferred growth" {
		t.Fatalf("unexpected benefits slide: %q", deck[1].Content)
	}
}

func TestCreateSlidesToolRequiresScript(t *testing.T) {
	t.Parallel()

	store := artifactx.NewMemoryStore()
	slides, _ := NewCreateSlidesTool(store)

	res := slides.Invoke(context.Background(), baseArgs(map[string]any{contractx.ArgProduct: testProduct}))
	if !res.Failed() || res.Kind != contractx.KindValidation {
		t.Fatalf("expected validation failure, got %#v", res)
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("no deck must be written without a script: %v", store.Keys())
	}
}

func TestGenerateVideoToolCompletes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := artifactx.NewMemoryStore()
	long := strings.Repeat("a", 600)
	scriptURI, _ := store.Put(ctx, testBucket, testPrefix+"/narration_script.txt", []byte(long))

	backend := &fakeVideoBackend{states: []contractx.JobState{contractx.JobRunning, contractx.JobRunning, contractx.JobCompleted}}
	poller, _ := pollerx.New(backend, pollerx.WithSleep(noSleep))
	video, err := NewGenerateVideoTool(store, backend, poller, pollerx.Config{Interval: time.Second, MaxAttempts: 5})
	if err != nil {
		t.Fatalf("NewGenerateVideoTool() error = %v", err)
	}

	res := video.Invoke(ctx, baseArgs(map[string]any{contractx.KeyNarrationScriptURI: scriptURI}))
	if res.Failed() {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	if len(backend.req.Text) != maxVideoTextRunes {
		t.Fatalf("narration not truncated: %d", len(backend.req.Text))
	}
	if backend.req.OutputURI != "s3://media/"+testPrefix+"/nova_video/" {
		t.Fatalf("unexpected output uri: %s", backend.req.OutputURI)
	}
	if res.Output[contractx.KeyVideoURI] != "s3://media/"+testPrefix+"/nova_video/inv1/output.mp4" {
		t.Fatalf("unexpected video uri: %v", res.Output[contractx.KeyVideoURI])
	}
	if backend.polls != 3 {
		t.Fatalf("expected 3 polls, got %d", backend.polls)
	}
}

func TestGenerateVideoToolTimesOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := artifactx.NewMemoryStore()
	scriptURI, _ := store.Put(ctx, testBucket, testPrefix+"/narration_script.txt", []byte("narration"))

	backend := &fakeVideoBackend{}
	poller, _ := pollerx.New(backend, pollerx.WithSleep(noSleep))
	video, _ := NewGenerateVideoTool(store, backend, poller, pollerx.Config{Interval: time.Second, MaxAttempts: 4})

	res := video.Invoke(ctx, baseArgs(map[string]any{contractx.KeyNarrationScriptURI: scriptURI}))
	if !res.Failed() || res.Kind != contractx.KindTimeout {
		t.Fatalf("expected timeout failure, got %#v", res)
	}
	if backend.polls != 4 {
		t.Fatalf("expected 4 polls, got %d", backend.polls)
	}
}
