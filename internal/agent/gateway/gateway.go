package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/gateway/prompts"
	"github.com/azure-sidekick/server/internal/agent/grounding"
	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/observers"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

type runnable = compose.Runnable[map[string]any, *schema.Message]

// Gateway runs each prompt as a compiled chain of its chat template and the
// shared chat model. Chains are compiled on first use.
type Gateway struct {
	chatModel einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
	handler   einocb.Handler

	mu     sync.Mutex
	chains map[string]runnable
}

func New(chatModel einomodel.BaseChatModel, llm model.LLMConfig) *Gateway {
	return &Gateway{
		chatModel: chatModel,
		modelName: llm.Model,
		timeout:   llm.Timeout,
		handler:   observers.NewAllCallbacks(),
		chains:    make(map[string]runnable),
	}
}

func (g *Gateway) chain(ctx context.Context, plugin, function string) (runnable, error) {
	key := plugin + "/" + function

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.chains[key]; ok {
		return r, nil
	}

	tpl, err := prompts.Load(plugin, function)
	if err != nil {
		return nil, err
	}
	r, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(tpl, compose.WithNodeName(key+"/prompt")).
		AppendChatModel(g.chatModel, compose.WithNodeName(key+"/model")).
		Compile(ctx, compose.WithGraphName(key))
	if err != nil {
		return nil, fmt.Errorf("compile chain %s: %w", key, err)
	}
	g.chains[key] = r
	return r, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) Complete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	r, err := g.chain(ctx, req.Plugin, req.Function)
	if err != nil {
		logx.Error().Err(err).Str("plugin", req.Plugin).Str("function", req.Function).Msg("prompt chain unavailable")
		return nil, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	out, err := r.Invoke(ctx, arguments(req), compose.WithCallbacks(g.handler))
	if err != nil {
		logx.Error().Err(err).Str("plugin", req.Plugin).Str("function", req.Function).Msg("completion failed")
		return nil, errx.WrapGateway(err)
	}

	c := &model.Completion{Text: strings.TrimSpace(out.Content)}
	if u := usageOf(out); u != nil {
		c.Usage = *u
	}
	g.logUsage(req, &c.Usage)
	return c, nil
}

func (g *Gateway) CompleteStreaming(ctx context.Context, req model.CompletionRequest) (*schema.StreamReader[model.CompletionChunk], error) {
	r, err := g.chain(ctx, req.Plugin, req.Function)
	if err != nil {
		logx.Error().Err(err).Str("plugin", req.Plugin).Str("function", req.Function).Msg("prompt chain unavailable")
		return nil, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}

	ctx, cancel := g.withTimeout(ctx)
	src, err := r.Stream(ctx, arguments(req), compose.WithCallbacks(g.handler))
	if err != nil {
		cancel()
		logx.Error().Err(err).Str("plugin", req.Plugin).Str("function", req.Function).Msg("streaming completion failed")
		return nil, errx.WrapGateway(err)
	}

	sr, sw := schema.Pipe[model.CompletionChunk](1)
	go func() {
		defer cancel()
		defer src.Close()
		defer sw.Close()
		g.relay(req, src, sw)
	}()
	return sr, nil
}

// relay forwards text fragments and finishes with a Done chunk carrying the
// last usage the model reported.
func (g *Gateway) relay(req model.CompletionRequest, src *schema.StreamReader[*schema.Message], sw *schema.StreamWriter[model.CompletionChunk]) {
	var usage schema.TokenUsage
	var edges edgeTrimmer
	for {
		msg, err := src.Recv()
		if errors.Is(err, io.EOF) {
			g.logUsage(req, &usage)
			sw.Send(model.CompletionChunk{Done: true, Usage: usage}, nil)
			return
		}
		if err != nil {
			wrapped := errx.WrapGateway(err)
			if errx.StatusOf(wrapped) == errx.StatusClientClosed {
				logx.Debug().Str("plugin", req.Plugin).Str("function", req.Function).Msg("streaming completion cancelled")
			} else {
				logx.Error().Err(err).Str("plugin", req.Plugin).Str("function", req.Function).Msg("streaming completion failed")
			}
			sw.Send(model.CompletionChunk{}, wrapped)
			return
		}
		if u := usageOf(msg); u != nil {
			usage = *u
		}
		if msg == nil {
			continue
		}
		text := edges.next(msg.Content)
		if text == "" {
			continue
		}
		if closed := sw.Send(model.CompletionChunk{Text: text}, nil); closed {
			logx.Debug().Str("plugin", req.Plugin).Str("function", req.Function).Msg("stream consumer closed")
			return
		}
	}
}

// edgeTrimmer drops the leading whitespace of a streamed reply and holds
// trailing whitespace back until more text follows, so the joined fragments
// equal the trimmed buffered reply.
type edgeTrimmer struct {
	started bool
	pending string
}

func (t *edgeTrimmer) next(s string) string {
	if !t.started {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return ""
		}
		t.started = true
	}
	body := strings.TrimRightFunc(s, unicode.IsSpace)
	if body == "" {
		t.pending += s
		return ""
	}
	out := t.pending + body
	t.pending = s[len(body):]
	return out
}

func (g *Gateway) logUsage(req model.CompletionRequest, u *schema.TokenUsage) {
	_, _, total := model.ComputeCost(u, model.ResolvePricing(g.modelName))
	logx.Debug().
		Str("plugin", req.Plugin).
		Str("function", req.Function).
		Str("model", g.modelName).
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Float64("total_cost_usd", total).
		Msg("LLM usage")
}

// arguments fills the keys every template references so a missing one
// renders empty instead of failing.
func arguments(req model.CompletionRequest) map[string]any {
	vars := make(map[string]any, len(req.Arguments)+4)
	for _, k := range []string{grounding.ArgGroundingRules, grounding.ArgChatHistory, grounding.ArgContext} {
		vars[k] = ""
	}
	for k, v := range req.Arguments {
		vars[k] = v
	}
	vars[grounding.ArgQuestion] = req.Question
	return vars
}

func usageOf(m *schema.Message) *schema.TokenUsage {
	if m == nil || m.ResponseMeta == nil {
		return nil
	}
	return m.ResponseMeta.Usage
}

var _ model.LanguageModelGateway = (*Gateway)(nil)
