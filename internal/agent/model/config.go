package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL             time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
	MaxHistoryItems int           `envconfig:"CONVERSATION_MAX_HISTORY_ITEMS" default:"5"`
	Streaming       bool          `envconfig:"CONVERSATION_STREAMING" default:"true"`
}

type LLMConfig struct {
	Model          string        `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int           `envconfig:"LLM_MAX_TOKENS" default:"2000"`
	Temperature    float32       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	ThinkingBudget int32         `envconfig:"LLM_THINKING_BUDGET" default:"0"`
	Timeout        time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`
}

type AzureConfig struct {
	TenantID       string        `envconfig:"AZURE_TENANT_ID"`
	SubscriptionID string        `envconfig:"AZURE_SUBSCRIPTION_ID"`
	Timeout        time.Duration `envconfig:"AZURE_TIMEOUT" default:"30s"`
}

type TelemetryConfig struct {
	LogDir   string `envconfig:"LOG_DIR"`
	LogLevel string `envconfig:"LOG_LEVEL"`
}
