package gateway

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/azure-sidekick/server/internal/agent/model"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	LLM     model.LLMConfig
}

// NewChatModel creates the Gemini chat model every prompt chain runs on.
func NewChatModel(ctx context.Context, config ChatModelConfig) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cfg := &gemini.Config{
		Client:      client,
		Model:       config.LLM.Model,
		Temperature: &config.LLM.Temperature,
		MaxTokens:   &config.LLM.MaxTokens,
	}
	if config.LLM.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(config.LLM.ThinkingBudget),
		}
	}

	cm, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Str("model", config.LLM.Model).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return cm, nil
}
