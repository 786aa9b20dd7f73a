package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	pipelinex "github.com/tanpawarit/insurance-media-router/agent/agents/pipeline"
	routerx "github.com/tanpawarit/insurance-media-router/agent/agents/router"
	apix "github.com/tanpawarit/insurance-media-router/agent/api"
	artifactx "github.com/tanpawarit/insurance-media-router/agent/artifact"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	intentx "github.com/tanpawarit/insurance-media-router/agent/intent"
	llmx "github.com/tanpawarit/insurance-media-router/agent/llm"
	mediax "github.com/tanpawarit/insurance-media-router/agent/media"
	pollerx "github.com/tanpawarit/insurance-media-router/agent/poller"
	promptx "github.com/tanpawarit/insurance-media-router/agent/prompt"
	statex "github.com/tanpawarit/insurance-media-router/agent/state"
	toolx "github.com/tanpawarit/insurance-media-router/agent/tool"
	awsx "github.com/tanpawarit/insurance-media-router/pkg/awsx"
	configx "github.com/tanpawarit/insurance-media-router/pkg/config"
	_ "github.com/tanpawarit/insurance-media-router/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/insurance-media-router/pkg/qstash"
)

type AppConfig struct {
	Mode            string `envconfig:"APP_MODE" default:"cli"`
	HTTPAddr        string `envconfig:"APP_HTTP_ADDR" default:":8080"`
	ArtifactBackend string `envconfig:"ARTIFACT_BACKEND" default:"s3"`
	RunStore        string `envconfig:"RUN_STORE" default:"memory"`
	CatalogPath     string `envconfig:"CATALOG_PATH"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("insurance media router stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	pipelineCfg := configx.MustNew[pipelinex.Config]("PIPELINE")
	routerCfg := configx.MustNew[routerx.Config]("ROUTER")
	intentCfg := configx.MustNew[intentx.Config]("INTENT")
	pollCfg := configx.MustNew[pollerx.Config]("VIDEO_POLL")
	pollyCfg := configx.MustNew[mediax.PollyConfig]("POLLY")
	novaCfg := configx.MustNew[mediax.NovaReelConfig]("NOVA_REEL")
	awsCfg := configx.MustNew[awsx.Config]("AWS")
	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")

	clients, err := awsx.NewClients(ctx, *awsCfg)
	if err != nil {
		return err
	}

	store, err := newArtifactStore(appCfg.ArtifactBackend, clients)
	if err != nil {
		return err
	}
	runs, err := newRunStore(ctx, appCfg.RunStore)
	if err != nil {
		return err
	}

	routerGen, err := llmx.NewGenerator(ctx, *llmCfg, llmx.PurposeRouter, clients.Bedrock)
	if err != nil {
		return err
	}
	scriptGen, err := llmx.NewGenerator(ctx, *llmCfg, llmx.PurposeScript, clients.Bedrock)
	if err != nil {
		return err
	}

	speech, err := mediax.NewPollySynthesizer(clients.Polly, *pollyCfg)
	if err != nil {
		return err
	}
	video, err := mediax.NewNovaReelBackend(clients.Bedrock, *novaCfg)
	if err != nil {
		return err
	}
	poller, err := pollerx.New(video)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(appCfg.CatalogPath)
	if err != nil {
		return err
	}

	prompts := promptx.LoadPromptSet()
	tools := toolx.NewRegistry(toolx.Declarations(toolx.Dependencies{
		Catalog:      catalog,
		Generator:    scriptGen,
		Speech:       speech,
		Video:        video,
		Store:        store,
		ScriptPrompt: prompts.Script,
		Poll:         *pollCfg,
		Poller:       poller,
	}))

	gate := intentx.NewGate(intentCfg.Keywords...)
	opts := []pipelinex.Option{pipelinex.WithRunStore(runs)}
	if qstashCfg.Enabled() {
		publisher, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			return err
		}
		opts = append(opts, pipelinex.WithPublisher(publisher))
	}

	fullCfg := *pipelineCfg
	fullCfg.Variant = pipelinex.VariantFull
	fullAgent, err := pipelinex.New(gate, tools, fullCfg, opts...)
	if err != nil {
		return err
	}
	narrationCfg := *pipelineCfg
	narrationCfg.Variant = pipelinex.VariantNarration
	narrationAgent, err := pipelinex.New(gate, tools, narrationCfg, opts...)
	if err != nil {
		return err
	}

	_, routerTemp := llmCfg.ModelFor(llmx.PurposeRouter)
	routerOpts := []routerx.Option{
		routerx.WithTemplate(prompts.Router),
		routerx.WithTemperature(routerTemp),
	}
	if routerCfg.GateEnabled {
		routerOpts = append(routerOpts, routerx.WithGate(gate))
	}
	router, err := routerx.New(routerGen, []routerx.Entry{
		{
			Name:        routerx.AgentMediaPipeline,
			Description: "Creates a full insurance marketing package: product pick, narration script, voice-over, slides and a short video.",
			Agent:       fullAgent,
		},
		{
			Name:        routerx.AgentMediaNarration,
			Description: "Creates a lightweight narration package: product pick, narration script and voice-over only.",
			Agent:       narrationAgent,
		},
	}, routerOpts...)
	if err != nil {
		return err
	}

	log.Info().
		Str("mode", appCfg.Mode).
		Str("provider", string(llmCfg.ProviderName())).
		Int("tools", len(tools.List())).
		Msg("insurance media router ready")

	switch strings.ToLower(strings.TrimSpace(appCfg.Mode)) {
	case "http":
		server, err := apix.NewServer(router, runs)
		if err != nil {
			return err
		}
		return server.ListenAndServe(ctx, appCfg.HTTPAddr)
	case "", "cli":
		return runConsole(ctx, router, os.Stdin, os.Stdout)
	default:
		return fmt.Errorf("unknown APP_MODE %q", appCfg.Mode)
	}
}

func newArtifactStore(backend string, clients *awsx.Clients) (contractx.ArtifactStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "s3":
		return artifactx.NewS3Store(clients.S3)
	case "memory":
		return artifactx.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown ARTIFACT_BACKEND %q", backend)
	}
}

func newRunStore(ctx context.Context, kind string) (contractx.RunStore, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return statex.NewMemoryStore(), nil
	case "upstash":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		return statex.NewUpstashRedisStore(*cfg)
	case "postgres":
		cfg := configx.MustNew[statex.PostgresConfig]("RUNSTORE_PG")
		db, err := statex.OpenPostgres(*cfg)
		if err != nil {
			return nil, err
		}
		store, err := statex.NewPostgresStore(db, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := store.Migrate(migrateCtx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown RUN_STORE %q", kind)
	}
}

func loadCatalog(path string) (*toolx.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return toolx.DefaultCatalog()
	}
	return toolx.LoadCatalog(path)
}
