package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// Logger records the audit trail of a session: finished operations,
// failures and answered turns.
type Logger interface {
	Operation(op *model.OperationContext)
	Error(op *model.OperationContext, err error)
	ChatTurn(op *model.OperationContext, turn model.ChatTurn)
}

// ZeroLogger writes each record kind to its own zerolog logger.
type ZeroLogger struct {
	ops     zerolog.Logger
	errs    zerolog.Logger
	turns   zerolog.Logger
	closers []io.Closer
}

// NewConsole sends every record to the process logger.
func NewConsole() *ZeroLogger {
	l := logx.Logger()
	return &ZeroLogger{
		ops:   l.With().Str("log", "operation").Logger(),
		errs:  l.With().Str("log", "error").Logger(),
		turns: l.With().Str("log", "chat_turn").Logger(),
	}
}

// NewWriters writes JSON lines to the given writers.
func NewWriters(ops, errs, turns io.Writer) *ZeroLogger {
	return &ZeroLogger{
		ops:   zerolog.New(ops).With().Timestamp().Logger(),
		errs:  zerolog.New(errs).With().Timestamp().Logger(),
		turns: zerolog.New(turns).With().Timestamp().Logger(),
	}
}

// NewFiles appends JSON lines to operations.log, errors.log and
// chat-turns.log under dir/<yyyy-mm-dd>.
func NewFiles(dir string, now time.Time) (*ZeroLogger, error) {
	day := filepath.Join(dir, now.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(day, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	var files []*os.File
	for _, name := range []string{"operations.log", "errors.log", "chat-turns.log"} {
		f, err := os.OpenFile(filepath.Join(day, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			for _, open := range files {
				_ = open.Close()
			}
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		files = append(files, f)
	}

	l := NewWriters(files[0], files[1], files[2])
	for _, f := range files {
		l.closers = append(l.closers, f)
	}
	return l, nil
}

func (l *ZeroLogger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (l *ZeroLogger) Operation(op *model.OperationContext) {
	if op == nil {
		return
	}
	ev := l.ops.Info().
		Str("operation_id", op.ID).
		Str("name", op.Name).
		Str("parent_id", op.ParentID).
		Str("user_id", op.UserID).
		Str("message", op.Message).
		Time("start", op.Start).
		Time("end", op.End).
		Dur("elapsed", op.Elapsed())
	if len(op.Metadata) > 0 {
		ev = ev.Interface("metadata", op.Metadata)
	}
	ev.Send()
}

func (l *ZeroLogger) Error(op *model.OperationContext, err error) {
	ev := l.errs.Error().Err(err).Int("status", errx.StatusOf(err))
	if op != nil {
		ev = ev.Str("operation_id", op.ID).Str("name", op.Name).Str("user_id", op.UserID)
	}
	ev.Send()
}

func (l *ZeroLogger) ChatTurn(op *model.OperationContext, turn model.ChatTurn) {
	ev := l.turns.Info().
		Str("turn_id", turn.ID).
		Str("original_question", turn.OriginalQuestion).
		Str("question", turn.Question).
		Str("intent", string(turn.Intent)).
		Str("function", string(turn.Function)).
		Str("answer", turn.Answer).
		Int("prompt_tokens", turn.PromptTokens).
		Int("completion_tokens", turn.CompletionTokens).
		Bool("persist", turn.Persist).
		Time("created_at", turn.CreatedAt)
	if op != nil {
		ev = ev.Str("operation_id", op.ID).Str("user_id", op.UserID)
	}
	ev.Send()
}

var _ Logger = (*ZeroLogger)(nil)
