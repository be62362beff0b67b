package mcpserver

import (
	"context"

	"github.com/fyrsmithlabs/mcpserver/internal/envelope"
	"github.com/fyrsmithlabs/mcpserver/internal/toolregistry"
)

// Type and function re-exports so an embedder only needs to import
// github.com/fyrsmithlabs/mcpserver (this package) to register tools,
// resources, and prompts, without reaching into internal/.

type (
	// Envelope is a tool result: a content array for display plus an
	// optional structured Data payload (spec.md §4.3's content envelope
	// invariant).
	Envelope = envelope.Envelope
	// ContentItem is one entry of an Envelope's content array.
	ContentItem = envelope.ContentItem

	// NotificationCtx lets a tool handler push log notifications back to
	// its calling session.
	NotificationCtx = toolregistry.NotificationCtx
	// ToolAnnotations are optional behavioral hints surfaced in tools/list.
	ToolAnnotations = toolregistry.ToolAnnotations

	// ResourceInfo describes one entry of resources/list.
	ResourceInfo = toolregistry.ResourceInfo
	// ResourceContentItem is one entry of resources/read's contents array.
	ResourceContentItem = toolregistry.ResourceContentItem
	// ResourceProvider exposes a family of URI-addressed resources.
	ResourceProvider[Ctx any] = toolregistry.ResourceProvider[Ctx]

	// PromptArgument describes one prompt template argument.
	PromptArgument = toolregistry.PromptArgument
	// PromptInfo describes one entry of prompts/list.
	PromptInfo = toolregistry.PromptInfo
	// PromptMessage is one role-tagged message returned by prompts/get.
	PromptMessage = toolregistry.PromptMessage
	// PromptProvider exposes named, parameterized prompt templates.
	PromptProvider[Ctx any] = toolregistry.PromptProvider[Ctx]
)

// NewPromptMessage builds a text-content prompt message.
func NewPromptMessage(role, text string) PromptMessage {
	return toolregistry.NewPromptMessage(role, text)
}

// SuccessEnvelope builds a successful tool result carrying data verbatim
// in its Data field, with a human-readable summary as the text content.
func SuccessEnvelope(summary string, data []byte) Envelope {
	return envelope.Success(summary, data)
}

// FailureEnvelope builds a failed tool result (is_error: true).
func FailureEnvelope(message string) Envelope {
	return envelope.Failure(message)
}

// RegisterTool registers a tool with a reflection-derived input and
// output schema.
func RegisterTool[Ctx, In, Out any](b *Builder[Ctx], name, description string, annotations *ToolAnnotations, handler func(context.Context, Ctx, NotificationCtx, In) (Out, error)) error {
	return toolregistry.RegisterTool(b, name, description, annotations, handler)
}

// RegisterUntypedTool registers a tool whose handler builds its own
// Envelope, for callers that need explicit control over is_error.
func RegisterUntypedTool[Ctx, In any](b *Builder[Ctx], name, description string, annotations *ToolAnnotations, handler func(context.Context, Ctx, NotificationCtx, In) (Envelope, error)) error {
	return toolregistry.RegisterUntypedTool(b, name, description, annotations, handler)
}

// RegisterResourceProvider attaches a resource provider to the builder.
func RegisterResourceProvider[Ctx any](b *Builder[Ctx], p ResourceProvider[Ctx]) error {
	return toolregistry.RegisterResourceProvider[Ctx](b, p)
}

// RegisterPromptProvider attaches a prompt provider to the builder.
func RegisterPromptProvider[Ctx any](b *Builder[Ctx], p PromptProvider[Ctx]) error {
	return toolregistry.RegisterPromptProvider[Ctx](b, p)
}
