package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// ChatTurn is one answered exchange. Turns are values: once appended to a
// HistoryStore they are never modified.
type ChatTurn struct {
	ID               string    `json:"id"`
	OriginalQuestion string    `json:"original_question"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	Intent           Intent    `json:"intent"`
	Function         Intent    `json:"function,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Persist          bool      `json:"persist"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewChatTurn stamps a fresh id and creation time.
func NewChatTurn(question string, intent Intent) ChatTurn {
	return ChatTurn{
		ID:        uuid.NewString(),
		Question:  question,
		Intent:    intent,
		CreatedAt: time.Now().UTC(),
	}
}

// Usage returns the turn's token counts.
func (t ChatTurn) Usage() *schema.TokenUsage {
	return &schema.TokenUsage{
		PromptTokens:     t.PromptTokens,
		CompletionTokens: t.CompletionTokens,
		TotalTokens:      t.PromptTokens + t.CompletionTokens,
	}
}

// WithUsage returns a copy of t carrying u added to its counts.
func (t ChatTurn) WithUsage(u *schema.TokenUsage) ChatTurn {
	sum := AddUsage(t.Usage(), u)
	t.PromptTokens = sum.PromptTokens
	t.CompletionTokens = sum.CompletionTokens
	return t
}

type HistoryStore interface {
	// List returns the session's turns, oldest first.
	List(ctx context.Context, sessionKey string) ([]ChatTurn, error)

	// Add appends a turn to the session's history.
	Add(ctx context.Context, sessionKey string, turn ChatTurn) error

	// Clear removes every turn of the session.
	Clear(ctx context.Context, sessionKey string) error
}
