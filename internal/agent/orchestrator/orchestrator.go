package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/router"
	"github.com/azure-sidekick/server/internal/agent/telemetry"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

const Prompt = "> "

var (
	// ErrNoSubscriptions is returned when the signed-in identity sees no subscription.
	ErrNoSubscriptions = errors.New("no subscriptions available")

	errStreamIncomplete = errors.New("answer stream ended without a terminal result")
)

// Config holds the collaborators of an Orchestrator.
type Config struct {
	General       GeneralRouter
	Registry      *router.Registry
	Store         model.HistoryStore
	Subscriptions model.SubscriptionDirectory
	Telemetry     telemetry.Logger
	Presenter     Presenter
	Picker        Picker
	Pricing       model.Pricing
}

// Orchestrator drives one question at a time through rephrase, classify,
// route and answer.
type Orchestrator struct {
	general  GeneralRouter
	registry *router.Registry
	store    model.HistoryStore
	subs     model.SubscriptionDirectory
	audit    telemetry.Logger
	ui       Presenter
	picker   Picker
	pricing  model.Pricing
}

func New(cfg Config) *Orchestrator {
	registry := cfg.Registry
	if registry == nil {
		registry = router.NewRegistry()
	}
	return &Orchestrator{
		general:  cfg.General,
		registry: registry,
		store:    cfg.Store,
		subs:     cfg.Subscriptions,
		audit:    cfg.Telemetry,
		ui:       cfg.Presenter,
		picker:   cfg.Picker,
		pricing:  cfg.Pricing,
	}
}

// Run selects a subscription and then reads commands and questions until
// the user quits or the reader is exhausted.
func (o *Orchestrator) Run(ctx context.Context, s *Session, in LineReader) error {
	o.ui.Welcome()
	o.ui.Info("Listing subscriptions. Please wait.")
	if err := o.SelectSubscription(ctx, s); err != nil {
		if errors.Is(err, ErrNoSubscriptions) {
			o.ui.Info("We are not able to find any subscriptions that you have access to. " +
				"Please make sure that the signed-in account has access to at least one subscription.")
			return nil
		}
		o.ui.Error(errx.RequestErrorMessage)
		return err
	}
	o.ui.Info(fmt.Sprintf("You have selected %q subscription.", subscriptionLabel(s)))

	for ctx.Err() == nil {
		o.ui.Info("Please ask a question or enter a command.")
		line, err := in.ReadLine(Prompt)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if quit := o.HandleInput(ctx, s, line); quit {
			break
		}
	}
	o.ui.Info("Thank you for using Azure Sidekick!")
	return nil
}

// HandleInput executes a session command, or asks line as a question. It
// reports whether the session should end.
func (o *Orchestrator) HandleInput(ctx context.Context, s *Session, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	case "cls", "clear":
		o.ui.Clear()
	case "help":
		o.ui.Help()
	case "clear chat history":
		if err := o.store.Clear(ctx, s.Key); err != nil {
			o.ui.Error(errx.RequestErrorMessage)
			return false
		}
		o.ui.Info("Chat history cleared.")
	case "toggle response mode":
		s.Streaming = !s.Streaming
		if s.Streaming {
			o.ui.Info("Response will be streamed.")
		} else {
			o.ui.Info("Response will not be streamed.")
		}
	case "change subscription":
		if err := o.changeSubscription(ctx, s); err != nil {
			o.ui.Error(errx.RequestErrorMessage)
			return false
		}
		o.ui.Info(fmt.Sprintf("Active subscription changed to %q.", subscriptionLabel(s)))
	default:
		_ = o.Ask(ctx, s, input)
	}
	return false
}

// SelectSubscription lists the visible subscriptions and stores the user's
// pick on s.
func (o *Orchestrator) SelectSubscription(ctx context.Context, s *Session) error {
	ctx = model.WithUserID(ctx, s.UserID)
	ctx, op := model.StartOperation(ctx, "ListSubscriptions", "List subscriptions")
	defer o.finish(op)

	subs, err := o.subs.List(ctx)
	if err != nil {
		o.audit.Error(op, err)
		return err
	}
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	sub, err := o.picker.PickSubscription(subs)
	if err != nil {
		return err
	}
	s.SubscriptionID = sub.ID
	s.SubscriptionName = sub.DisplayName
	op.Metadata["subscription_id"] = sub.ID
	return nil
}

// changeSubscription drops the history, which belongs to the previous
// subscription.
func (o *Orchestrator) changeSubscription(ctx context.Context, s *Session) error {
	if err := o.SelectSubscription(ctx, s); err != nil {
		return err
	}
	return o.store.Clear(ctx, s.Key)
}

// Ask answers one question. Any failure is shown as the generic request
// error; the detail has already been logged where it happened.
func (o *Orchestrator) Ask(ctx context.Context, s *Session, question string) error {
	ctx = model.WithUserID(ctx, s.UserID)
	ctx, op := model.StartOperation(ctx, "Ask", "Question: "+question)
	defer o.finish(op)

	if err := o.ask(ctx, s, question, op); err != nil {
		op.Metadata["status"] = errx.StatusOf(err)
		o.audit.Error(op, err)
		o.ui.Error(errx.RequestErrorMessage)
		return err
	}
	return nil
}

func (o *Orchestrator) ask(ctx context.Context, s *Session, question string, op *model.OperationContext) error {
	history, err := o.store.List(ctx, s.Key)
	if err != nil {
		return err
	}
	req := router.Request{
		SessionKey:       s.Key,
		SubscriptionID:   s.SubscriptionID,
		Question:         question,
		OriginalQuestion: question,
		History:          history,
	}

	rephrased, err := o.general.Rephrase(ctx, req)
	if err != nil {
		return err
	}
	req.Question = rephrased.Answer

	classified, err := o.general.ClassifyIntent(ctx, req)
	if err != nil {
		return err
	}
	upstream := model.AddUsage(rephrased.Usage(), classified.Usage())

	rt, intent := o.route(model.Intent(classified.Answer))
	req.Intent = intent
	op.Metadata["intent"] = string(intent)
	op.Metadata["router"] = string(rt.Name())
	logx.Debug().
		Str("operation_id", op.ID).
		Str("question", req.Question).
		Str("intent", string(intent)).
		Str("router", string(rt.Name())).
		Msg("question routed")

	if s.Streaming {
		return o.stream(ctx, rt, req, upstream, op)
	}

	turn, err := rt.Answer(ctx, req)
	if err != nil {
		return err
	}
	o.ui.Answer(turn.Answer)
	o.complete(op, upstream, *turn, question)
	return nil
}

func (o *Orchestrator) stream(ctx context.Context, rt router.Router, req router.Request, upstream schema.TokenUsage, op *model.OperationContext) error {
	state := &model.StreamingState{
		UserInput: req.OriginalQuestion,
		Upstream:  upstream,
		Operation: op,
	}
	sr := rt.StreamAnswer(ctx, req, state)
	defer sr.Close()
	defer o.ui.EndStream()

	for {
		res, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return errx.New(errStreamIncomplete, http.StatusInternalServerError, errx.SystemErrorMessage)
		}
		if err != nil {
			return err
		}
		switch {
		case res.IsFailure():
			return res.Err
		case res.IsTerminal():
			o.complete(op, state.Upstream, res.Turn, req.OriginalQuestion)
			return nil
		default:
			o.ui.Fragment(res.Turn.Answer)
		}
	}
}

// route picks the router for intent. General owns the top-level intents;
// anything else goes to the registered domain router, or to General as
// Other when there is none.
func (o *Orchestrator) route(intent model.Intent) (router.Router, model.Intent) {
	switch intent {
	case model.IntentAzure, model.IntentMultipleIntents, model.IntentUnclear,
		model.IntentOther, model.IntentInformation, model.IntentAbility:
		return o.general, intent
	}
	if rt, ok := o.registry.Lookup(intent); ok {
		return rt, intent
	}
	logx.Warn().Str("intent", string(intent)).Msg("no router registered, answering as Other")
	return o.general, model.IntentOther
}

// complete reports the exchange totals and records the turn.
func (o *Orchestrator) complete(op *model.OperationContext, upstream schema.TokenUsage, turn model.ChatTurn, question string) {
	total := model.AddUsage(&upstream, turn.Usage())
	_, _, cost := model.ComputeCost(&total, o.pricing)
	o.ui.Usage(total, cost)

	op.Metadata["prompt_tokens"] = total.PromptTokens
	op.Metadata["completion_tokens"] = total.CompletionTokens

	turn.OriginalQuestion = question
	o.audit.ChatTurn(op, turn)
}

func (o *Orchestrator) finish(op *model.OperationContext) {
	op.Finish()
	o.audit.Operation(op)
}

func subscriptionLabel(s *Session) string {
	return fmt.Sprintf("%s (%s)", s.SubscriptionName, s.SubscriptionID)
}
