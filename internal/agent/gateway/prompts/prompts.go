package prompts

import (
	"context"
	"embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Prompt families and functions shipped with the assistant.
const (
	PluginGeneral = "General"
	PluginStorage = "Storage"

	FunctionRephrase          = "Rephrase"
	FunctionIntent            = "Intent"
	FunctionEntityRecognition = "EntityRecognition"
)

//go:embed template
var templates embed.FS

// Load returns the chat template for plugin/function: the embedded system
// prompt followed by the question as the user message.
func Load(plugin, function string) (prompt.ChatTemplate, error) {
	b, err := templates.ReadFile(fmt.Sprintf("template/%s/%s.tmpl", plugin, function))
	if err != nil {
		return nil, fmt.Errorf("prompt %s/%s: %w", plugin, function, err)
	}
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(string(b)),
		schema.UserMessage("{{.question}}"),
	), nil
}

// Render formats a prompt outside of a chain.
func Render(ctx context.Context, plugin, function string, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := Load(plugin, function)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("prompt %s/%s render: %w", plugin, function, err)
	}
	return msgs, nil
}
