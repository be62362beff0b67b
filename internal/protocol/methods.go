package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/mcpserver/internal/protocolerr"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
	"github.com/fyrsmithlabs/mcpserver/internal/toolregistry"
)

// InitializeParams is the initialize method's params object.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    map[string]any     `json:"capabilities"`
	ClientInfo      session.ClientInfo `json:"clientInfo"`
}

// ServerCapabilities describes which surfaces the server exposes. Each
// non-nil field is present (possibly empty) in the wire response; a nil
// field is omitted entirely (spec.md §4.1.1).
type ServerCapabilities struct {
	Tools     map[string]any `json:"tools,omitempty"`
	Resources map[string]any `json:"resources,omitempty"`
	Prompts   map[string]any `json:"prompts,omitempty"`
	Logging   map[string]any `json:"logging,omitempty"`
}

// InitializeResult is the initialize method's result object.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// negotiateVersion implements §4.1.1: echo the requested version if it's
// in the supported set, otherwise fall back to the latest supported
// version. We never reject on mismatch (see DESIGN.md Open Question 1).
func negotiateVersion(requested string) string {
	for _, v := range SupportedVersions {
		if v == requested {
			return v
		}
	}
	return SupportedVersions[0]
}

func (e *Engine[Ctx]) handleInitialize(sess *session.Session, req Request) *Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, protocolerr.InvalidParams(err.Error(), ""))
		}
	}

	version := negotiateVersion(params.ProtocolVersion)
	sess.ReInitialize(version, params.ClientInfo, params.Capabilities)

	caps := ServerCapabilities{Logging: map[string]any{}}
	if e.registry.HasTools() {
		caps.Tools = map[string]any{"listChanged": false}
	}
	if e.registry.HasResources() {
		caps.Resources = map[string]any{"listChanged": false, "subscribe": e.registry.HasSubscribableResources()}
	}
	if e.registry.HasPrompts() {
		caps.Prompts = map[string]any{"listChanged": false}
	}

	return successResponse(req.ID, InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      e.info,
	})
}

// toolListEntry is one tools/list array element (camelCase wire fields,
// spec.md §6).
type toolListEntry struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema,omitempty"`
	Annotations  *toolregistry.ToolAnnotations `json:"annotations,omitempty"`
}

func (e *Engine[Ctx]) handleToolsList(req Request) *Response {
	tools := e.registry.ListTools()
	entries := make([]toolListEntry, 0, len(tools))
	for _, t := range tools {
		entries = append(entries, toolListEntry{
			Name:         t.Name,
			Description:  t.Description,
			InputSchema:  t.InputSchema,
			OutputSchema: t.OutputSchema,
			Annotations:  t.Annotations,
		})
	}
	return successResponse(req.ID, map[string]any{"tools": entries})
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (e *Engine[Ctx]) handleToolsCall(ctx context.Context, sess *session.Session, req Request) *Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, protocolerr.InvalidParams("tools/call requires {name, arguments?}", ""))
	}
	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	start := time.Now()
	env, callErr := e.registry.CallTool(ctx, e.appCtx, sess, params.Name, args)
	e.metrics.RecordToolInvocation(params.Name, time.Since(start))
	if callErr != nil {
		return errorResponse(req.ID, callErr)
	}
	return successResponse(req.ID, env)
}

func (e *Engine[Ctx]) handleResourcesList(ctx context.Context, req Request) *Response {
	list, err := e.registry.ListResources(ctx, e.appCtx)
	if err != nil {
		return errorResponse(req.ID, protocolerr.Internal(err, ""))
	}
	return successResponse(req.ID, map[string]any{"resources": list})
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func (e *Engine[Ctx]) handleResourcesRead(ctx context.Context, req Request) *Response {
	var params resourcesReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(req.ID, protocolerr.InvalidParams("resources/read requires {uri}", ""))
	}
	content, err := e.registry.ReadResource(ctx, e.appCtx, params.URI)
	if err != nil {
		return errorResponse(req.ID, protocolerr.New(protocolerr.CodeInvalidParams, "resource_not_found", err.Error(), ""))
	}
	return successResponse(req.ID, map[string]any{"contents": []any{content}})
}

// resourcesSubscribeParams is the params object for both resources/
// subscribe and resources/unsubscribe (spec.md §4.1 supplemented feature,
// SPEC_FULL.md §4.1): a single uri per call.
type resourcesSubscribeParams struct {
	URI string `json:"uri"`
}

func (e *Engine[Ctx]) handleResourcesSubscribe(sess *session.Session, req Request) *Response {
	var params resourcesSubscribeParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(req.ID, protocolerr.InvalidParams("resources/subscribe requires {uri}", ""))
	}
	if !e.registry.IsSubscribable(params.URI) {
		return errorResponse(req.ID, protocolerr.New(protocolerr.CodeInvalidParams, "resource_not_subscribable",
			fmt.Sprintf("resource not subscribable: %s", params.URI), ""))
	}
	sess.Subscribe(params.URI)
	return successResponse(req.ID, struct{}{})
}

func (e *Engine[Ctx]) handleResourcesUnsubscribe(sess *session.Session, req Request) *Response {
	var params resourcesSubscribeParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(req.ID, protocolerr.InvalidParams("resources/unsubscribe requires {uri}", ""))
	}
	sess.Unsubscribe(params.URI)
	return successResponse(req.ID, struct{}{})
}

func (e *Engine[Ctx]) handlePromptsList(ctx context.Context, req Request) *Response {
	list, err := e.registry.ListPrompts(ctx, e.appCtx)
	if err != nil {
		return errorResponse(req.ID, protocolerr.Internal(err, ""))
	}
	return successResponse(req.ID, map[string]any{"prompts": list})
}

type promptsGetParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

func (e *Engine[Ctx]) handlePromptsGet(ctx context.Context, req Request) *Response {
	var params promptsGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, protocolerr.InvalidParams("prompts/get requires {name, arguments?}", ""))
	}
	messages, err := e.registry.GetPrompt(ctx, e.appCtx, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, protocolerr.InvalidParams(err.Error(), ""))
	}
	return successResponse(req.ID, map[string]any{"messages": messages})
}

// loggingSetLevelParams is the params object for the client-initiated
// logging/setLevel method, supplemented from the wider MCP pack's
// ServerCapabilities.Logging shape (see SPEC_FULL.md §4.1).
type loggingSetLevelParams struct {
	Level string `json:"level"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warning": true, "error": true}

func (e *Engine[Ctx]) handleLoggingSetLevel(sess *session.Session, req Request) *Response {
	var params loggingSetLevelParams
	if err := json.Unmarshal(req.Params, &params); err != nil || !validLogLevels[params.Level] {
		return errorResponse(req.ID, protocolerr.InvalidParams("level must be one of debug|info|warning|error", ""))
	}
	sess.SetMinLogLevel(params.Level)
	sess.Touch()
	return successResponse(req.ID, struct{}{})
}
