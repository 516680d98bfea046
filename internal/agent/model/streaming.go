package model

import (
	"net/http"

	"github.com/cloudwego/eino/schema"
)

// StreamingState is shared by the stages of one streamed exchange. Router
// stages add to Prior before the stream starts; the aggregator folds it into
// the terminal turn.
type StreamingState struct {
	UserInput string
	// Prior counts router-stage calls made before streaming started.
	Prior schema.TokenUsage
	// Upstream counts the rephrase and classification calls.
	Upstream  schema.TokenUsage
	Operation *OperationContext
}

// AddPrior folds u into the preliminary counts.
func (s *StreamingState) AddPrior(u *schema.TokenUsage) {
	s.Prior = AddUsage(&s.Prior, u)
}

// Result is one item of a streamed answer.
type Result struct {
	Turn   ChatTurn
	Status int
	Err    error
}

// Success carries a display fragment.
func Success(turn ChatTurn) Result {
	return Result{Turn: turn, Status: http.StatusOK}
}

// Terminal carries the complete bookkeeping turn and ends the stream.
func Terminal(turn ChatTurn) Result {
	return Result{Turn: turn, Status: http.StatusNoContent}
}

// Failure ends the stream with err.
func Failure(err error, status int) Result {
	return Result{Err: err, Status: status}
}

func (r Result) IsTerminal() bool {
	return r.Err == nil && r.Status == http.StatusNoContent
}

func (r Result) IsFailure() bool {
	return r.Err != nil
}
