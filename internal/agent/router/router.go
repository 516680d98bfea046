package router

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/model"
)

// Request is one question on its way through a router.
type Request struct {
	SessionKey       string
	SubscriptionID   string
	Question         string
	OriginalQuestion string
	Intent           model.Intent
	// History is the session's full history, oldest first. Routers trim it.
	History []model.ChatTurn
}

// Router answers the questions of one intent domain.
type Router interface {
	Name() model.Intent
	ClassifyIntent(ctx context.Context, req Request) (*model.ChatTurn, error)
	// Answer returns the complete turn. Every error is an *errx.AppError.
	Answer(ctx context.Context, req Request) (*model.ChatTurn, error)
	// StreamAnswer yields display fragments followed by exactly one terminal
	// or failure result. The caller must close the reader.
	StreamAnswer(ctx context.Context, req Request, state *model.StreamingState) *schema.StreamReader[model.Result]
}

// Registry maps an intent name to the router of that domain.
type Registry struct {
	routers map[model.Intent]Router
}

func NewRegistry(routers ...Router) *Registry {
	r := &Registry{routers: make(map[model.Intent]Router, len(routers))}
	for _, rt := range routers {
		r.routers[rt.Name()] = rt
	}
	return r
}

func (r *Registry) Lookup(intent model.Intent) (Router, bool) {
	rt, ok := r.routers[intent]
	return rt, ok
}

// Names lists the registered domains in a stable order.
func (r *Registry) Names() []model.Intent {
	out := make([]model.Intent, 0, len(r.routers))
	for name := range r.routers {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
