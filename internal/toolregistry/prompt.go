package toolregistry

import "context"

// PromptArgument describes one named argument a prompt template accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptInfo describes a prompt in prompts/list.
type PromptInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptMessage is one role-tagged message produced by prompts/get.
type PromptMessage struct {
	Role    string `json:"role"`
	Content struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewPromptMessage builds a text-content prompt message.
func NewPromptMessage(role, text string) PromptMessage {
	m := PromptMessage{Role: role}
	m.Content.Type = "text"
	m.Content.Text = text
	return m
}

// PromptProvider exposes named, parameterized prompt templates. Ctx is
// the shared application context type.
type PromptProvider[Ctx any] interface {
	ListPrompts(ctx context.Context, appCtx Ctx) ([]PromptInfo, error)
	GetPrompt(ctx context.Context, appCtx Ctx, name string, arguments map[string]string) ([]PromptMessage, error)
}

// RegisterPromptProvider attaches a prompt provider to the registry.
func RegisterPromptProvider[Ctx any](r *Builder[Ctx], p PromptProvider[Ctx]) error {
	return r.addPromptProvider(p)
}
