package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/model"
)

type script struct {
	fragments []string
	usage     schema.TokenUsage
	err       error
	// noDone ends the stream without the terminal chunk.
	noDone bool
}

// Gateway is a scripted LanguageModelGateway keyed by "Plugin/Function".
// Buffered calls return the fragments joined; streamed calls send them one
// by one over an unbuffered pipe, followed by the Done chunk.
type Gateway struct {
	mu      sync.Mutex
	scripts map[string]script
	calls   []model.CompletionRequest
	streams []chan struct{}
}

func NewGateway() *Gateway {
	return &Gateway{scripts: make(map[string]script)}
}

func key(plugin, function string) string {
	return plugin + "/" + function
}

// Reply scripts a single-fragment answer.
func (g *Gateway) Reply(plugin, function, text string, promptTokens, completionTokens int) *Gateway {
	return g.Stream(plugin, function, []string{text}, promptTokens, completionTokens)
}

// Stream scripts a multi-fragment answer.
func (g *Gateway) Stream(plugin, function string, fragments []string, promptTokens, completionTokens int) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripts[key(plugin, function)] = script{
		fragments: fragments,
		usage: schema.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
	return g
}

// Fail makes every call of plugin/function return err. For streams, err is
// delivered after the scripted fragments, if any.
func (g *Gateway) Fail(plugin, function string, err error) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.scripts[key(plugin, function)]
	s.err = err
	g.scripts[key(plugin, function)] = s
	return g
}

// Truncate makes the stream of plugin/function end without a Done chunk.
func (g *Gateway) Truncate(plugin, function string) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.scripts[key(plugin, function)]
	s.noDone = true
	g.scripts[key(plugin, function)] = s
	return g
}

func (g *Gateway) lookup(req model.CompletionRequest) (script, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	s, ok := g.scripts[key(req.Plugin, req.Function)]
	if !ok {
		return script{}, fmt.Errorf("no scripted reply for %s", key(req.Plugin, req.Function))
	}
	return s, nil
}

func (g *Gateway) Complete(_ context.Context, req model.CompletionRequest) (*model.Completion, error) {
	s, err := g.lookup(req)
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	var text string
	for _, f := range s.fragments {
		text += f
	}
	return &model.Completion{Text: text, Usage: s.usage}, nil
}

func (g *Gateway) CompleteStreaming(ctx context.Context, req model.CompletionRequest) (*schema.StreamReader[model.CompletionChunk], error) {
	s, err := g.lookup(req)
	if err != nil {
		return nil, err
	}
	if s.err != nil && len(s.fragments) == 0 {
		return nil, s.err
	}

	done := make(chan struct{})
	g.mu.Lock()
	g.streams = append(g.streams, done)
	g.mu.Unlock()

	sr, sw := schema.Pipe[model.CompletionChunk](0)
	go func() {
		defer close(done)
		defer sw.Close()
		for _, f := range s.fragments {
			if closed := sw.Send(model.CompletionChunk{Text: f}, nil); closed {
				return
			}
		}
		if s.err != nil {
			sw.Send(model.CompletionChunk{}, s.err)
			return
		}
		if s.noDone {
			return
		}
		sw.Send(model.CompletionChunk{Done: true, Usage: s.usage}, nil)
	}()
	return sr, nil
}

// Calls returns every request seen so far.
func (g *Gateway) Calls() []model.CompletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.CompletionRequest, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallCount returns how many calls were made to plugin/function, or to
// anything when both are empty.
func (g *Gateway) CallCount(plugin, function string) int {
	n := 0
	for _, c := range g.Calls() {
		if (plugin == "" && function == "") || (c.Plugin == plugin && c.Function == function) {
			n++
		}
	}
	return n
}

// WaitStreams blocks until every stream producer has exited.
func (g *Gateway) WaitStreams(timeout time.Duration) bool {
	g.mu.Lock()
	streams := append([]chan struct{}(nil), g.streams...)
	g.mu.Unlock()

	deadline := time.After(timeout)
	for _, done := range streams {
		select {
		case <-done:
		case <-deadline:
			return false
		}
	}
	return true
}

var _ model.LanguageModelGateway = (*Gateway)(nil)
