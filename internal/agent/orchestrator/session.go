package orchestrator

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/router"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// Session is the state of one console conversation.
type Session struct {
	// Key scopes the chat history in the HistoryStore.
	Key              string
	UserID           string
	SubscriptionID   string
	SubscriptionName string
	Streaming        bool
}

func NewSession(userID string, streaming bool) *Session {
	return &Session{
		Key:       uuid.NewString(),
		UserID:    userID,
		Streaming: streaming,
	}
}

// Presenter renders the conversation.
type Presenter interface {
	Clear()
	Welcome()
	Help()
	Info(msg string)
	// Fragment prints part of a streamed answer without a line break.
	Fragment(text string)
	EndStream()
	Answer(text string)
	Usage(usage schema.TokenUsage, cost float64)
	Error(msg string)
}

// Picker lets the user choose one of subs. subs is never empty.
type Picker interface {
	PickSubscription(subs []model.Subscription) (model.Subscription, error)
}

// LineReader returns io.EOF when the user ends the session.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// GeneralRouter is the router every question passes through first.
type GeneralRouter interface {
	router.Router
	Rephrase(ctx context.Context, req router.Request) (*model.ChatTurn, error)
}

// Preselect answers the first pick with the subscription whose id is id, if
// it is listed. Every other pick goes to next.
func Preselect(next Picker, id string) Picker {
	return &preselect{next: next, id: id}
}

type preselect struct {
	next Picker
	id   string
	used bool
}

func (p *preselect) PickSubscription(subs []model.Subscription) (model.Subscription, error) {
	if !p.used && p.id != "" {
		p.used = true
		for _, s := range subs {
			if strings.EqualFold(s.ID, p.id) {
				return s, nil
			}
		}
		logx.Warn().Str("subscription_id", p.id).Msg("configured subscription not visible, asking instead")
	}
	return p.next.PickSubscription(subs)
}
