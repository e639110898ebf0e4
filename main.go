package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/banxian-ai/server/internal/agent"
	"github.com/banxian-ai/server/internal/agent/conversations"
	"github.com/banxian-ai/server/internal/agent/dispatch"
	"github.com/banxian-ai/server/internal/agent/extract"
	"github.com/banxian-ai/server/internal/agent/llm"
	"github.com/banxian-ai/server/internal/agent/model"
	"github.com/banxian-ai/server/internal/agent/mood"
	"github.com/banxian-ai/server/internal/agent/repo"
	"github.com/banxian-ai/server/internal/agent/speech"
	"github.com/banxian-ai/server/internal/agent/tools"
	"github.com/banxian-ai/server/internal/core"
	"github.com/banxian-ai/server/internal/server"
	"github.com/banxian-ai/server/internal/storage"
	logx "github.com/banxian-ai/server/pkg/logger"
	pkgredis "github.com/banxian-ai/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Dispatch     model.DispatchModelConfig
	Aux          model.AuxModelConfig
	Conversation model.ConversationConfig
	Tools        model.ToolsConfig
	Speech       model.SpeechConfig

	Server server.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", envCfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}
	artifactTTL, err := time.ParseDuration(envCfg.Speech.ArtifactTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", envCfg.Speech.ArtifactTTL).Msg("Invalid SPEECH_ARTIFACT_TTL")
	}

	// Tool catalog and its backing clients. The executor is built in two
	// steps: tool infos first to bind the dispatch model, the extractor wired
	// once the aux model exists.
	toolClient := tools.NewClient(envCfg.Tools)
	searchClient := tools.NewSearchClient(envCfg.Tools)
	knowledgeBase := tools.NewHTTPKnowledgeBase(envCfg.Tools)

	catalog := tools.NewExecutor(envCfg.Tools, toolClient, searchClient, knowledgeBase, nil)

	models, err := llm.New(ctx, llm.Config{
		APIKey:      envCfg.APIKey,
		BaseURL:     envCfg.BaseURL,
		Dispatch:    &envCfg.Dispatch,
		Aux:         &envCfg.Aux,
		ToolCatalog: catalog.ToolInfos(),
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build chat models")
	}
	catalog.SetExtractor(extract.NewExtractor(models.Aux))

	conversationRepo := repo.NewRedisConversationRepository(rdb, ttl)
	convManager := conversations.NewManager(conversationRepo, models.Aux, envCfg.Conversation)
	classifier := mood.NewClassifier(models.Aux)

	loop := dispatch.NewLoop(models.Dispatch, catalog, envCfg.Conversation.Tools.MaxCalls, models.DispatchModelName)

	store := storage.NewRedisObjectStore(rdb, artifactTTL)
	synth := speech.NewAzureSynthesizer(envCfg.Speech)
	trigger := speech.NewTrigger(synth, store, time.Duration(envCfg.Speech.TimeoutSeconds)*time.Second)

	ag := agent.New(loop, classifier, convManager, trigger)
	auth := server.NewStaticAuthenticator(envCfg.Server.AuthTokens)
	srv := server.New(envCfg.Server, envCfg.Speech, ag, convManager, auth, store)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logx.Fatal().Err(err).Msg("Server exited with error")
	}
	logx.Info().Msg("Server stopped")
}
