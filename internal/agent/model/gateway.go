package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// CompletionRequest names a prompt by plugin and function and supplies its
// template arguments.
type CompletionRequest struct {
	Plugin    string
	Function  string
	Question  string
	Arguments map[string]any
}

type Completion struct {
	Text  string
	Usage schema.TokenUsage
}

// CompletionChunk is one streamed fragment. The last chunk has Done set,
// no text and the usage of the whole call.
type CompletionChunk struct {
	Text  string
	Done  bool
	Usage schema.TokenUsage
}

type LanguageModelGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	CompleteStreaming(ctx context.Context, req CompletionRequest) (*schema.StreamReader[CompletionChunk], error)
}
