package router

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

var errNoTerminalChunk = errors.New("completion stream ended without a terminal chunk")

// aggregate relays fragments from src as they arrive and returns the result
// that ends the stream. On the Done chunk it folds state.Prior into the usage
// and persists the complete turn. Nothing is persisted on any other exit, and
// ok is false when the consumer stopped reading.
func (b *base) aggregate(ctx context.Context, req Request, turn model.ChatTurn, persist bool,
	state *model.StreamingState, src *schema.StreamReader[model.CompletionChunk], sw *schema.StreamWriter[model.Result]) (last model.Result, ok bool) {

	op := model.OperationFrom(ctx)
	var buf strings.Builder
	fragments := 0
	defer func() {
		if op != nil {
			op.Metadata["fragments"] = fragments
		}
	}()

	for {
		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			err = b.fail(ctx, "StreamAnswer", errNoTerminalChunk)
			return model.Failure(err, errx.StatusOf(err)), true
		}
		if err != nil {
			err = b.fail(ctx, "StreamAnswer", err)
			return model.Failure(err, errx.StatusOf(err)), true
		}

		if chunk.Done {
			if err := ctx.Err(); err != nil {
				err = errx.WrapGateway(err)
				return model.Failure(err, errx.StatusOf(err)), true
			}
			final := turn.WithUsage(&chunk.Usage).WithUsage(&state.Prior)
			final.Answer = strings.TrimSpace(buf.String())
			final.Persist = persist
			if persist {
				if err := b.store.Add(ctx, req.SessionKey, final); err != nil {
					err = b.fail(ctx, "StreamAnswer", err)
					return model.Failure(err, errx.StatusOf(err)), true
				}
			}
			return model.Terminal(final), true
		}

		if chunk.Text == "" {
			continue
		}
		buf.WriteString(chunk.Text)

		fragment := turn
		fragment.Answer = chunk.Text
		if closed := sw.Send(model.Success(fragment), nil); closed {
			logx.Debug().Str("router", string(b.name)).Str("session", req.SessionKey).Msg("answer stream abandoned by consumer")
			if op != nil {
				op.Metadata["abandoned"] = true
			}
			return model.Result{}, false
		}
		fragments++
	}
}
