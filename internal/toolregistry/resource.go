package toolregistry

import "context"

// ResourceInfo describes a resource in resources/list.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContentItem is one entry of resources/read's "contents" array.
type ResourceContentItem struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ResourceProvider exposes a family of read-only, URI-addressed data to
// MCP clients. Ctx is the shared application context type.
type ResourceProvider[Ctx any] interface {
	ListResources(ctx context.Context, appCtx Ctx) ([]ResourceInfo, error)
	ReadResource(ctx context.Context, appCtx Ctx, uri string) (ResourceContentItem, error)
}

// RegisterResourceProvider attaches a resource provider to the registry.
// Uniqueness of URIs across registered providers is the providers'
// responsibility (§3 Resource).
func RegisterResourceProvider[Ctx any](r *Builder[Ctx], p ResourceProvider[Ctx]) error {
	return r.addResourceProvider(p)
}

// Subscribable is an optional capability a ResourceProvider implements to
// opt into resources/subscribe and resources/unsubscribe (SPEC_FULL.md
// §4.1 supplemented feature). A provider that doesn't implement it simply
// has no subscribable resources; the capabilities.resources.subscribe bit
// is only advertised once at least one registered provider does.
type Subscribable interface {
	// IsSubscribable reports whether uri is a resource this provider
	// will push notifications/resources/updated for.
	IsSubscribable(uri string) bool
}
