package router

import (
	"context"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/gateway/prompts"
	"github.com/azure-sidekick/server/internal/agent/grounding"
	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/telemetry"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// plan is the outcome of a router's dispatch step. Either turn already holds
// a canned answer, or call names the prompt that produces it. usage counts
// the calls made while deciding.
type plan struct {
	turn    model.ChatTurn
	call    *model.CompletionRequest
	persist bool
	usage   schema.TokenUsage
}

type base struct {
	name    model.Intent
	plugin  string
	gateway model.LanguageModelGateway
	store   model.HistoryStore
	policy  grounding.Policy
	filter  grounding.Filter
	audit   telemetry.Logger
}

// Option configures a router.
type Option func(*base)

// WithTelemetry records every operation the router finishes.
func WithTelemetry(l telemetry.Logger) Option {
	return func(b *base) {
		b.audit = l
	}
}

func (b *base) apply(opts []Option) {
	for _, opt := range opts {
		opt(b)
	}
}

// start opens an operation named after the router, as a child of the one
// ctx carries.
func (b *base) start(ctx context.Context, name, message string) (context.Context, *model.OperationContext) {
	return model.StartOperation(ctx, string(b.name)+":"+name, message)
}

// startStream parents the operation on state.Operation when ctx has none.
func (b *base) startStream(ctx context.Context, req Request, state *model.StreamingState) (context.Context, *model.OperationContext) {
	if model.OperationFrom(ctx) == nil && state.Operation != nil {
		ctx = model.WithOperation(ctx, state.Operation)
	}
	return b.start(ctx, "StreamAnswer", req.Question)
}

// finish closes op. The failure itself is recorded by whoever reports it.
func (b *base) finish(op *model.OperationContext, err error) {
	op.Finish()
	if err != nil {
		op.Metadata["status"] = errx.StatusOf(err)
	}
	if b.audit != nil {
		b.audit.Operation(op)
	}
}

func (b *base) Name() model.Intent {
	return b.name
}

func (b *base) arguments(req Request) map[string]any {
	return b.policy.Arguments(req.History, b.filter)
}

func (b *base) newTurn(req Request, intent, function model.Intent) model.ChatTurn {
	t := model.NewChatTurn(req.Question, intent)
	t.OriginalQuestion = req.OriginalQuestion
	t.Function = function
	return t
}

func (b *base) cannedPlan(req Request, intent, function model.Intent, answer string, persist bool) plan {
	t := b.newTurn(req, intent, function)
	t.Answer = answer
	return plan{turn: t, persist: persist}
}

func (b *base) promptPlan(req Request, intent, function model.Intent, fn string, args map[string]any) plan {
	return plan{
		turn:    b.newTurn(req, intent, function),
		persist: true,
		call: &model.CompletionRequest{
			Plugin:    b.plugin,
			Function:  fn,
			Question:  req.Question,
			Arguments: args,
		},
	}
}

// classify runs the plugin's intent prompt. Labels outside known are kept
// verbatim so the caller can decide what to do with them.
func (b *base) classify(ctx context.Context, req Request, known []model.Intent) (_ *model.ChatTurn, err error) {
	ctx, op := b.start(ctx, "ClassifyIntent", req.Question)
	defer func() { b.finish(op, err) }()

	c, err := b.gateway.Complete(ctx, model.CompletionRequest{
		Plugin:    b.plugin,
		Function:  prompts.FunctionIntent,
		Question:  req.Question,
		Arguments: b.arguments(req),
	})
	if err != nil {
		return nil, b.fail(ctx, "ClassifyIntent", err)
	}

	intent, ok := model.ParseIntent(c.Text, known)
	if !ok {
		logx.Warn().Str("router", string(b.name)).Str("label", c.Text).Msg("unrecognised intent label")
	}
	op.Metadata["intent"] = string(intent)
	t := b.newTurn(req, b.name, "")
	t.Answer = string(intent)
	t = t.WithUsage(&c.Usage)
	return &t, nil
}

// answer executes p and persists the resulting turn when p asks for it.
func (b *base) answer(ctx context.Context, req Request, p plan) (*model.ChatTurn, error) {
	turn := p.turn.WithUsage(&p.usage)
	if p.call != nil {
		c, err := b.gateway.Complete(ctx, *p.call)
		if err != nil {
			return nil, b.fail(ctx, "Answer", err)
		}
		turn.Answer = c.Text
		turn = turn.WithUsage(&c.Usage)
	}
	turn.Persist = p.persist
	if p.persist {
		if err := b.store.Add(ctx, req.SessionKey, turn); err != nil {
			return nil, b.fail(ctx, "Answer", err)
		}
	}
	return &turn, nil
}

// stream executes p incrementally and finishes op once the last result is
// decided. The plan's usage moves into state so the aggregator can fold it
// into the terminal turn.
func (b *base) stream(ctx context.Context, req Request, p plan, state *model.StreamingState, op *model.OperationContext) *schema.StreamReader[model.Result] {
	state.AddPrior(&p.usage)
	turn := p.turn
	if state.UserInput != "" {
		turn.OriginalQuestion = state.UserInput
	}

	if p.call == nil {
		return b.streamCanned(ctx, req, turn, p.persist, state, op)
	}

	src, err := b.gateway.CompleteStreaming(ctx, *p.call)
	if err != nil {
		err = b.fail(ctx, "StreamAnswer", err)
		b.finish(op, err)
		return failed(err)
	}

	// Unbuffered: a fragment is handed over only when the consumer reads it,
	// so a consumer that stops early is noticed before the turn is persisted.
	sr, sw := schema.Pipe[model.Result](0)
	go func() {
		defer sw.Close()
		defer src.Close()
		last, ok := b.aggregate(ctx, req, turn, p.persist, state, src, sw)
		b.finish(op, last.Err)
		if ok {
			sw.Send(last, nil)
		}
	}()
	return sr
}

// streamCanned emits the canned answer once for display and once as the
// terminal record.
func (b *base) streamCanned(ctx context.Context, req Request, turn model.ChatTurn, persist bool, state *model.StreamingState, op *model.OperationContext) *schema.StreamReader[model.Result] {
	sr, sw := schema.Pipe[model.Result](0)
	go func() {
		defer sw.Close()
		if closed := sw.Send(model.Success(turn), nil); closed {
			op.Metadata["abandoned"] = true
			b.finish(op, nil)
			return
		}
		last := b.persistCanned(ctx, req, turn, persist, state)
		b.finish(op, last.Err)
		sw.Send(last, nil)
	}()
	return sr
}

func (b *base) persistCanned(ctx context.Context, req Request, turn model.ChatTurn, persist bool, state *model.StreamingState) model.Result {
	final := turn.WithUsage(&state.Prior)
	final.Persist = persist
	if persist {
		if err := b.store.Add(ctx, req.SessionKey, final); err != nil {
			err = b.fail(ctx, "StreamAnswer", err)
			return model.Failure(err, errx.StatusOf(err))
		}
	}
	return model.Terminal(final)
}

// fail logs errors that nothing below has classified yet and returns an
// *errx.AppError either way.
func (b *base) fail(ctx context.Context, op string, err error) error {
	if errx.IsAppError(err) {
		return err
	}
	ev := logx.Error().Err(err).Str("router", string(b.name)).Str("op", op)
	if o := model.OperationFrom(ctx); o != nil {
		ev = ev.Str("operation_id", o.ID)
	}
	ev.Msg("router operation failed")
	return errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
}

func failed(err error) *schema.StreamReader[model.Result] {
	return schema.StreamReaderFromArray([]model.Result{model.Failure(err, errx.StatusOf(err))})
}
