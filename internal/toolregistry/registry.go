// Package toolregistry implements the typed tool/resource/prompt registry
// (spec.md §4.3): schema derivation at registration time, argument
// validation, and dispatch to user handlers through a uniform boxed
// adapter. Registration only happens during server construction; the
// built Registry is immutable and freely shared across sessions and
// goroutines, generalizing original_source/src/framework/registry/mod.rs's
// ToolRegistry<C> to Go.
package toolregistry

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/mcpserver/internal/envelope"
	"github.com/fyrsmithlabs/mcpserver/internal/limits"
	"github.com/fyrsmithlabs/mcpserver/internal/protocolerr"
)

// Builder accumulates tools, resources, and prompts before Build() freezes
// them into an immutable Registry. Not safe for concurrent registration;
// embedders register everything from a single goroutine during startup.
type Builder[Ctx any] struct {
	limits    limits.Limits
	tools     map[string]Tool
	toolOrder []string
	resources []ResourceProvider[Ctx]
	prompts   []PromptProvider[Ctx]
}

// NewBuilder creates an empty builder with the given registration limits.
func NewBuilder[Ctx any](l limits.Limits) *Builder[Ctx] {
	return &Builder[Ctx]{
		limits: l,
		tools:  make(map[string]Tool),
	}
}

func (b *Builder[Ctx]) addTool(t Tool) error {
	if _, exists := b.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	if !limits.Allows(len(b.tools), b.limits.MaxTools) {
		return fmt.Errorf("tool registration limit (%d) reached", b.limits.MaxTools)
	}
	b.tools[t.Name] = t
	b.toolOrder = append(b.toolOrder, t.Name)
	return nil
}

func (b *Builder[Ctx]) addResourceProvider(p ResourceProvider[Ctx]) error {
	if !limits.Allows(len(b.resources), b.limits.MaxResources) {
		return fmt.Errorf("resource provider limit (%d) reached", b.limits.MaxResources)
	}
	b.resources = append(b.resources, p)
	return nil
}

func (b *Builder[Ctx]) addPromptProvider(p PromptProvider[Ctx]) error {
	if !limits.Allows(len(b.prompts), b.limits.MaxPrompts) {
		return fmt.Errorf("prompt provider limit (%d) reached", b.limits.MaxPrompts)
	}
	b.prompts = append(b.prompts, p)
	return nil
}

// Build freezes the builder into an immutable Registry.
func (b *Builder[Ctx]) Build() *Registry[Ctx] {
	tools := make(map[string]Tool, len(b.tools))
	for k, v := range b.tools {
		tools[k] = v
	}
	order := make([]string, len(b.toolOrder))
	copy(order, b.toolOrder)
	return &Registry[Ctx]{
		tools:     tools,
		toolOrder: order,
		resources: append([]ResourceProvider[Ctx]{}, b.resources...),
		prompts:   append([]PromptProvider[Ctx]{}, b.prompts...),
	}
}

// Registry is the immutable, concurrency-safe result of a Builder's
// registrations. A nil-or-empty field means that capability surface is
// absent entirely (tools/resources/prompts are omitted from the
// initialize response's capabilities object, §4.1.1).
type Registry[Ctx any] struct {
	tools     map[string]Tool
	toolOrder []string
	resources []ResourceProvider[Ctx]
	prompts   []PromptProvider[Ctx]
}

func (r *Registry[Ctx]) HasTools() bool     { return len(r.tools) > 0 }
func (r *Registry[Ctx]) HasResources() bool { return len(r.resources) > 0 }
func (r *Registry[Ctx]) HasPrompts() bool   { return len(r.prompts) > 0 }

// ListTools returns tool descriptors in registration order.
func (r *Registry[Ctx]) ListTools() []Tool {
	out := make([]Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name])
	}
	return out
}

// CallTool invokes a registered tool's boxed handler.
func (r *Registry[Ctx]) CallTool(ctx context.Context, appCtx Ctx, notify NotificationCtx, name string, args []byte) (envelope.Envelope, *protocolerr.Error) {
	t, ok := r.tools[name]
	if !ok {
		return envelope.Envelope{}, protocolerr.New(protocolerr.CodeMethodNotFound, "unknown_tool", fmt.Sprintf("unknown tool: %s", name), "")
	}
	return t.handler(ctx, appCtx, notify, args)
}

// ListResources aggregates every provider's resource list.
func (r *Registry[Ctx]) ListResources(ctx context.Context, appCtx Ctx) ([]ResourceInfo, error) {
	var out []ResourceInfo
	for _, p := range r.resources {
		infos, err := p.ListResources(ctx, appCtx)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

// ReadResource tries each provider in registration order until one
// recognizes the uri.
func (r *Registry[Ctx]) ReadResource(ctx context.Context, appCtx Ctx, uri string) (ResourceContentItem, error) {
	for _, p := range r.resources {
		item, err := p.ReadResource(ctx, appCtx, uri)
		if err == nil {
			return item, nil
		}
	}
	return ResourceContentItem{}, fmt.Errorf("resource not found: %s", uri)
}

// HasSubscribableResources reports whether any registered resource
// provider opts into Subscribable, gating the
// capabilities.resources.subscribe bit (§4.1).
func (r *Registry[Ctx]) HasSubscribableResources() bool {
	for _, p := range r.resources {
		if _, ok := any(p).(Subscribable); ok {
			return true
		}
	}
	return false
}

// IsSubscribable reports whether uri is subscribable according to any
// registered provider.
func (r *Registry[Ctx]) IsSubscribable(uri string) bool {
	for _, p := range r.resources {
		if s, ok := any(p).(Subscribable); ok && s.IsSubscribable(uri) {
			return true
		}
	}
	return false
}

// ListPrompts aggregates every provider's prompt list.
func (r *Registry[Ctx]) ListPrompts(ctx context.Context, appCtx Ctx) ([]PromptInfo, error) {
	var out []PromptInfo
	for _, p := range r.prompts {
		infos, err := p.ListPrompts(ctx, appCtx)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

// GetPrompt tries each provider in registration order until one
// recognizes name.
func (r *Registry[Ctx]) GetPrompt(ctx context.Context, appCtx Ctx, name string, arguments map[string]string) ([]PromptMessage, error) {
	var lastErr error
	for _, p := range r.prompts {
		msgs, err := p.GetPrompt(ctx, appCtx, name, arguments)
		if err == nil {
			return msgs, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("prompt not found: %s", name)
	}
	return nil, lastErr
}
