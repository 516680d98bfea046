package graph

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/azure-sidekick/server/internal/agent/gateway"
	"github.com/azure-sidekick/server/internal/agent/grounding"
	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/router"
	"github.com/azure-sidekick/server/internal/agent/telemetry"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// Config holds everything needed to assemble the routers end-to-end.
type Config struct {
	APIKey       string
	BaseURL      string
	LLM          model.LLMConfig
	Conversation model.ConversationConfig

	// ChatModel replaces the Gemini model built from APIKey and LLM.
	ChatModel       einomodel.BaseChatModel
	HistoryStore    model.HistoryStore
	StorageAccounts model.ResourceDirectory
	// Telemetry, when set, records the operations the routers run.
	Telemetry telemetry.Logger
}

// Routers is the assembled router graph: General in front, domain routers
// behind the registry.
type Routers struct {
	General  *router.General
	Registry *router.Registry
	Gateway  *gateway.Gateway
}

// Build creates the chat model and gateway and wires them into the routers.
func Build(ctx context.Context, cfg Config) (*Routers, error) {
	if cfg.HistoryStore == nil {
		return nil, fmt.Errorf("history store is nil")
	}
	if cfg.StorageAccounts == nil {
		return nil, fmt.Errorf("storage account directory is nil")
	}

	cm := cfg.ChatModel
	if cm == nil {
		gm, err := gateway.NewChatModel(ctx, gateway.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			LLM:     cfg.LLM,
		})
		if err != nil {
			return nil, err
		}
		cm = gm
	}

	gw := gateway.New(cm, cfg.LLM)
	policy := grounding.Policy{MaxItems: cfg.Conversation.MaxHistoryItems}

	var opts []router.Option
	if cfg.Telemetry != nil {
		opts = append(opts, router.WithTelemetry(cfg.Telemetry))
	}

	general := router.NewGeneral(gw, cfg.HistoryStore, policy, opts...)
	registry := router.NewRegistry(
		router.NewStorage(gw, cfg.HistoryStore, cfg.StorageAccounts, policy, opts...),
	)

	logx.Debug().Interface("routers", registry.Names()).Str("model", cfg.LLM.Model).Msg("Router graph built successfully")
	return &Routers{General: general, Registry: registry, Gateway: gw}, nil
}
