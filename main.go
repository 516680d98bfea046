package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/azure-sidekick/server/internal/agent/graph"
	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/orchestrator"
	"github.com/azure-sidekick/server/internal/agent/repo"
	"github.com/azure-sidekick/server/internal/agent/telemetry"
	"github.com/azure-sidekick/server/internal/console"
	"github.com/azure-sidekick/server/internal/core"
	logx "github.com/azure-sidekick/server/pkg/logger"
	pkgredis "github.com/azure-sidekick/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"APP_ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	LLM          model.LLMConfig
	Conversation model.ConversationConfig
	Azure        model.AzureConfig
	Telemetry    model.TelemetryConfig

	HistoryFile string `envconfig:"CONSOLE_HISTORY_FILE"`
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: cfg.Environment,
		Level:       cfg.Telemetry.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store model.HistoryStore
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer rdb.Close()
		store = repo.NewRedisHistoryStore(rdb, cfg.Conversation.TTL)
		logx.Info().Msg("Chat history stored in Redis")
	} else {
		store = repo.NewMemoryHistoryStore()
		logx.Info().Msg("REDIS_URL not set, chat history kept in memory")
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: cfg.Azure.TenantID,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create Azure credential")
	}
	accounts, err := repo.NewStorageAccountDirectory(cred, cfg.Azure.Timeout)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create storage account directory")
	}
	subscriptions, err := repo.NewSubscriptionDirectory(cred)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create subscription directory")
	}

	var audit telemetry.Logger = telemetry.NewConsole()
	if cfg.Telemetry.LogDir != "" {
		files, err := telemetry.NewFiles(cfg.Telemetry.LogDir, time.Now())
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to open telemetry logs")
		}
		defer files.Close()
		audit = files
	}

	routers, err := graph.Build(ctx, graph.Config{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		LLM:             cfg.LLM,
		Conversation:    cfg.Conversation,
		HistoryStore:    store,
		StorageAccounts: accounts,
		Telemetry:       audit,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build routers")
	}

	term := console.New(cfg.HistoryFile)
	defer term.Close()

	orch := orchestrator.New(orchestrator.Config{
		General:       routers.General,
		Registry:      routers.Registry,
		Store:         store,
		Subscriptions: subscriptions,
		Telemetry:     audit,
		Presenter:     term,
		Picker:        orchestrator.Preselect(term, cfg.Azure.SubscriptionID),
		Pricing:       model.ResolvePricing(cfg.LLM.Model),
	})

	// The console has no sign-in of its own; every session runs as the nil user.
	session := orchestrator.NewSession(uuid.Nil.String(), cfg.Conversation.Streaming)
	if err := orch.Run(ctx, session, term); err != nil {
		logx.Error().Err(err).Msg("Session ended with an error")
	}
}
