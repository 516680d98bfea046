package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OperationContext describes one traced unit of work. Children inherit the
// parent id and user id from the context they were started in.
type OperationContext struct {
	ID       string
	Name     string
	ParentID string
	Message  string
	UserID   string
	Start    time.Time
	End      time.Time
	Metadata map[string]any
}

type operationKey struct{}
type userKey struct{}

// WithUserID attaches the acting user to ctx for operations started beneath it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// StartOperation creates an operation as a child of whatever operation ctx
// carries and returns a context carrying the new one.
func StartOperation(ctx context.Context, name, message string) (context.Context, *OperationContext) {
	op := &OperationContext{
		ID:       uuid.NewString(),
		Name:     name,
		Message:  message,
		Start:    time.Now().UTC(),
		Metadata: map[string]any{},
	}
	if parent := OperationFrom(ctx); parent != nil {
		op.ParentID = parent.ID
		op.UserID = parent.UserID
	} else if uid, ok := ctx.Value(userKey{}).(string); ok {
		op.UserID = uid
	}
	return context.WithValue(ctx, operationKey{}, op), op
}

// WithOperation returns a context carrying op, for work that continues an
// operation started elsewhere.
func WithOperation(ctx context.Context, op *OperationContext) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFrom returns the operation carried by ctx, if any.
func OperationFrom(ctx context.Context) *OperationContext {
	op, _ := ctx.Value(operationKey{}).(*OperationContext)
	return op
}

// Finish stamps the end time once.
func (o *OperationContext) Finish() {
	if o.End.IsZero() {
		o.End = time.Now().UTC()
	}
}

// Elapsed is the running duration until Finish, then the final one.
func (o *OperationContext) Elapsed() time.Duration {
	if o.End.IsZero() {
		return time.Since(o.Start)
	}
	return o.End.Sub(o.Start)
}
