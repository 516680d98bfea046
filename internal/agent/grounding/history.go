package grounding

import (
	"github.com/azure-sidekick/server/internal/agent/model"
)

// DefaultMaxItems is the history window used when none is configured.
const DefaultMaxItems = 5

// Filter selects which turns count as relevant history.
type Filter func(model.ChatTurn) bool

// IntentFilter keeps turns classified as one of intents.
func IntentFilter(intents ...model.Intent) Filter {
	set := make(map[model.Intent]struct{}, len(intents))
	for _, i := range intents {
		set[i] = struct{}{}
	}
	return func(t model.ChatTurn) bool {
		_, ok := set[t.Intent]
		return ok
	}
}

// TrimHistory returns at most maxItems of the most recent turns that pass
// filter, oldest first. The input slice is never modified.
func TrimHistory(history []model.ChatTurn, maxItems int, filter Filter) []model.ChatTurn {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	kept := make([]model.ChatTurn, 0, min(len(history), maxItems))
	for i := len(history) - 1; i >= 0 && len(kept) < maxItems; i-- {
		if filter == nil || filter(history[i]) {
			kept = append(kept, history[i])
		}
	}
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	return kept
}
