// Package protocol implements the JSON-RPC 2.0 framing and MCP method
// dispatch (spec.md §4.1): parsing, the initialize handshake with version
// negotiation, capability advertisement, and routing to the registry.
// Transport-agnostic: both internal/httptransport and internal/wstransport
// call Engine.Dispatch with a raw message and get back a raw response (or
// nil for a notification). Grounded on pkg/mcp/protocol.go's
// handleMCPRequest switch and other_examples/.../streamable_server.go's
// processMessage switch, merged into one transport-agnostic dispatcher.
package protocol

import (
	"context"
	"encoding/json"

	"github.com/fyrsmithlabs/mcpserver/internal/metrics"
	"github.com/fyrsmithlabs/mcpserver/internal/protocolerr"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
	"github.com/fyrsmithlabs/mcpserver/internal/toolregistry"
)

// SupportedVersions is the closed set of negotiable MCP protocol
// versions (spec.md §3 ProtocolVersion), newest first.
var SupportedVersions = []string{"2025-06-18", "2025-03-26"}

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Request is a parsed JSON-RPC 2.0 request. ID is kept as raw JSON so a
// response can echo it byte-for-byte, including the string/number/null
// distinction (spec.md §3 invariant); a nil ID means the field was
// entirely absent (a notification).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether this request has no id and therefore
// expects no response.
func (r Request) IsNotification() bool { return r.ID == nil }

// Response is a JSON-RPC 2.0 response. Exactly one of Result/Error is set.
type Response struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      json.RawMessage    `json:"id"`
	Result  any                `json:"result,omitempty"`
	Error   *protocolerr.Error `json:"error,omitempty"`
}

var nullID = json.RawMessage("null")

func errorResponse(id json.RawMessage, err *protocolerr.Error) *Response {
	if id == nil {
		id = nullID
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: err}
}

func successResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}

// metaParams is the subset of params used to detect a progress token
// ahead of dispatch, so the HTTP transport can decide its header
// discipline (spec.md §4.4.2) before the response body exists.
type metaParams struct {
	Meta struct {
		ProgressToken json.RawMessage `json:"progressToken"`
	} `json:"_meta"`
}

// ExtractProgressToken reports whether raw's params._meta.progressToken
// is present, without fully dispatching the request.
func ExtractProgressToken(raw []byte) (present bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil || len(req.Params) == 0 {
		return false
	}
	var m metaParams
	if err := json.Unmarshal(req.Params, &m); err != nil {
		return false
	}
	return len(m.Meta.ProgressToken) > 0
}

// Engine ties the registry and session store into request handling. Ctx
// is the shared application context type, threaded unchanged to every
// handler.
type Engine[Ctx any] struct {
	registry *toolregistry.Registry[Ctx]
	appCtx   Ctx
	info     ServerInfo
	metrics  *metrics.Metrics
}

// NewEngine builds an Engine over a built registry and shared app context.
func NewEngine[Ctx any](reg *toolregistry.Registry[Ctx], appCtx Ctx, info ServerInfo) *Engine[Ctx] {
	return &Engine[Ctx]{registry: reg, appCtx: appCtx, info: info}
}

// SetMetrics attaches a metrics sink; every dispatched method and every
// tools/call invocation is recorded against it from then on. A nil
// *Metrics (the default) makes recording a no-op, so this is optional.
func (e *Engine[Ctx]) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// Dispatch parses and handles one message. Returns nil when the message
// was a notification (no response should be written) and a parse/framing
// failure is itself reported as an error Response with id:null per
// spec.md §4.1's framing contract, never as a Go error to the caller.
func (e *Engine[Ctx]) Dispatch(ctx context.Context, sess *session.Session, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		if json.Valid(raw) {
			// Well-formed JSON that is not a request object, e.g. a batch array.
			resp := errorResponse(nullID, protocolerr.InvalidRequest("request must be a single JSON-RPC object", ""))
			e.metrics.RecordRequest("invalid_request", resp.Error.Code)
			return resp
		}
		resp := errorResponse(nullID, protocolerr.ParseError(err, ""))
		e.metrics.RecordRequest("parse_error", resp.Error.Code)
		return resp
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		resp := errorResponse(req.ID, protocolerr.InvalidRequest("jsonrpc must be \"2.0\" and method must be set", ""))
		e.metrics.RecordRequest("invalid_request", resp.Error.Code)
		return resp
	}

	resp := e.route(ctx, sess, req)
	code := 0
	if resp != nil && resp.Error != nil {
		code = resp.Error.Code
	}
	e.metrics.RecordRequest(req.Method, code)

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (e *Engine[Ctx]) route(ctx context.Context, sess *session.Session, req Request) *Response {
	switch req.Method {
	case "initialize":
		return e.handleInitialize(sess, req)
	case "notifications/initialized":
		sess.Touch()
		return successResponse(req.ID, struct{}{})
	}

	if !sess.IsInitialized() {
		return errorResponse(req.ID, protocolerr.NotInitialized(""))
	}

	switch req.Method {
	case "notifications/cancel":
		return successResponse(req.ID, struct{}{})
	case "tools/list":
		return e.handleToolsList(req)
	case "tools/call":
		return e.handleToolsCall(ctx, sess, req)
	case "resources/list":
		return e.handleResourcesList(ctx, req)
	case "resources/read":
		return e.handleResourcesRead(ctx, req)
	case "resources/subscribe":
		return e.handleResourcesSubscribe(sess, req)
	case "resources/unsubscribe":
		return e.handleResourcesUnsubscribe(sess, req)
	case "prompts/list":
		return e.handlePromptsList(ctx, req)
	case "prompts/get":
		return e.handlePromptsGet(ctx, req)
	case "logging/setLevel":
		return e.handleLoggingSetLevel(sess, req)
	default:
		return errorResponse(req.ID, protocolerr.MethodNotFound(req.Method, ""))
	}
}
