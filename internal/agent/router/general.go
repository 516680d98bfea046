package router

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/gateway/prompts"
	"github.com/azure-sidekick/server/internal/agent/grounding"
	"github.com/azure-sidekick/server/internal/agent/model"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// GeneralName is the name of the router that handles top-level intents.
const GeneralName model.Intent = "General"

var generalMessages = map[model.Intent]string{
	model.IntentAbility:         "I can help you with your questions about Azure. For example, I can explain Azure services or look up the storage accounts in your subscription.",
	model.IntentMultipleIntents: "It seems you are asking too many things in a single question. Can you please ask one question at a time?",
	model.IntentUnclear:         "I am sorry, I am not sure I understand the question. Can you please provide more details?",
	model.IntentOther:           "I am sorry, but it seems the question is not related to Azure (I may be wrong though). Can you please rephrase it?",
}

// General rephrases and classifies every question and answers the intents
// that need no Azure data.
type General struct {
	base
	messages map[model.Intent]string
}

func NewGeneral(gw model.LanguageModelGateway, store model.HistoryStore, policy grounding.Policy, opts ...Option) *General {
	messages := make(map[model.Intent]string, len(generalMessages))
	for k, v := range generalMessages {
		messages[k] = v
	}
	g := &General{
		base: base{
			name:    GeneralName,
			plugin:  prompts.PluginGeneral,
			gateway: gw,
			store:   store,
			policy:  policy,
		},
		messages: messages,
	}
	g.apply(opts)
	return g
}

// Rephrase turns a follow-up into a self-contained question. The turn is
// never persisted; its counts belong to the exchange.
func (g *General) Rephrase(ctx context.Context, req Request) (_ *model.ChatTurn, err error) {
	ctx, op := g.start(ctx, "Rephrase", req.Question)
	defer func() { g.finish(op, err) }()

	c, err := g.gateway.Complete(ctx, model.CompletionRequest{
		Plugin:    g.plugin,
		Function:  prompts.FunctionRephrase,
		Question:  req.Question,
		Arguments: g.arguments(req),
	})
	if err != nil {
		return nil, g.fail(ctx, "Rephrase", err)
	}

	t := g.newTurn(req, "", "")
	t.Answer = strings.TrimSpace(c.Text)
	if t.Answer == "" {
		t.Answer = req.Question
	}
	t = t.WithUsage(&c.Usage)
	return &t, nil
}

func (g *General) ClassifyIntent(ctx context.Context, req Request) (*model.ChatTurn, error) {
	return g.classify(ctx, req, model.TopLevelIntents)
}

func (g *General) Answer(ctx context.Context, req Request) (_ *model.ChatTurn, err error) {
	ctx, op := g.start(ctx, "Answer", req.Question)
	defer func() { g.finish(op, err) }()

	return g.answer(ctx, req, g.plan(req))
}

func (g *General) StreamAnswer(ctx context.Context, req Request, state *model.StreamingState) *schema.StreamReader[model.Result] {
	ctx, op := g.startStream(ctx, req, state)
	return g.stream(ctx, req, g.plan(req), state, op)
}

func (g *General) plan(req Request) plan {
	switch req.Intent {
	case model.IntentAzure, model.IntentInformation:
		return g.promptPlan(req, req.Intent, "", string(req.Intent), g.arguments(req))
	}
	if msg, ok := g.messages[req.Intent]; ok {
		return g.cannedPlan(req, req.Intent, "", msg, false)
	}
	logx.Warn().Str("intent", string(req.Intent)).Msg("unsupported intent, answering as Other")
	return g.cannedPlan(req, model.IntentOther, "", g.messages[model.IntentOther], false)
}

var _ Router = (*General)(nil)
