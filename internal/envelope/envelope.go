// Package envelope implements the MCP content envelope: the shape a tool
// handler's result is wrapped in before it crosses the wire.
package envelope

import "encoding/json"

// ContentItem is a tagged union over the content kinds MCP tool results
// can carry. Exactly one of the type-specific fields is populated,
// matching the "type" discriminator.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`     // base64 image payload
	MimeType string `json:"mimeType,omitempty"` // image or resource reference
	URI      string `json:"uri,omitempty"`      // resource reference
}

// TextContent builds a text content item.
func TextContent(text string) ContentItem {
	return ContentItem{Type: "text", Text: text}
}

// ImageContent builds an image content item. data is the base64-encoded
// image payload.
func ImageContent(data, mimeType string) ContentItem {
	return ContentItem{Type: "image", Data: data, MimeType: mimeType}
}

// ResourceContent builds a resource-reference content item.
func ResourceContent(uri, mimeType, text string) ContentItem {
	return ContentItem{Type: "resource", URI: uri, MimeType: mimeType, Text: text}
}

// Envelope is what a tool returns on success. Data is the normative
// channel for structured output: when a handler declares a typed output,
// its JSON form MUST appear verbatim here, never only stringified inside
// Content. Content carries a human-readable rendering and MAY duplicate
// Data as text for clients that don't read structured output.
type Envelope struct {
	Content []ContentItem   `json:"content"`
	Data    json.RawMessage `json:"data,omitempty"`
	IsError bool            `json:"is_error"`
}

// Success builds a successful envelope from a human-readable summary and
// the raw JSON form of the handler's typed output. data may be nil when
// the tool has no typed output.
func Success(summary string, data json.RawMessage) Envelope {
	return Envelope{
		Content: []ContentItem{TextContent(summary)},
		Data:    data,
		IsError: false,
	}
}

// Failure builds an envelope representing a domain-level failure: the
// tool ran but wants to report an error to the client as content rather
// than as a JSON-RPC error. Distinct from protocol/invocation errors,
// which never reach this type.
func Failure(message string) Envelope {
	return Envelope{
		Content: []ContentItem{TextContent(message)},
		IsError: true,
	}
}
