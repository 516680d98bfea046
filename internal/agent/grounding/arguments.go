package grounding

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/azure-sidekick/server/internal/agent/model"
)

// Template argument keys shared by every prompt.
const (
	ArgQuestion       = "question"
	ArgGroundingRules = "grounding_rules"
	ArgChatHistory    = "chat_history"
	ArgContext        = "context"
)

// RecordSeparator divides serialized records inside a context block.
const RecordSeparator = "-------------------"

// Policy combines the grounding rules with the history window.
type Policy struct {
	MaxItems int
}

// Arguments builds the default argument bag for a prompt call: the rules,
// the trimmed history and an empty context.
func (p Policy) Arguments(history []model.ChatTurn, filter Filter) map[string]any {
	return map[string]any{
		ArgGroundingRules: strings.Join(Rules(), "\n"),
		ArgChatHistory:    FormatHistory(TrimHistory(history, p.MaxItems, filter)),
		ArgContext:        "",
	}
}

// FormatHistory renders turns as alternating question/answer lines.
func FormatHistory(turns []model.ChatTurn) string {
	var b strings.Builder
	for _, t := range turns {
		q := t.OriginalQuestion
		if q == "" {
			q = t.Question
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", q, t.Answer)
	}
	return b.String()
}

// RenderResources serializes records to YAML, one document per record,
// joined by RecordSeparator.
func RenderResources(records []model.Resource) (string, error) {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		b, err := yaml.Marshal(map[string]any(r))
		if err != nil {
			return "", fmt.Errorf("marshal resource %q: %w", r.Name(), err)
		}
		parts = append(parts, strings.TrimRight(string(b), "\n"))
	}
	return strings.Join(parts, "\n"+RecordSeparator+"\n"), nil
}
