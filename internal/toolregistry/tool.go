package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/mcpserver/internal/envelope"
	"github.com/fyrsmithlabs/mcpserver/internal/protocolerr"
)

var toolNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// NotificationCtx lets a handler push server-initiated notifications back
// to its session without knowing which transport the session lives on.
// Implemented by *session.Session; defined here as an interface so the
// registry package has no dependency on session.
type NotificationCtx interface {
	Info(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)
}

// ToolAnnotations are optional hints describing a tool's side effects,
// surfaced in tools/list for clients that want to gate destructive
// operations behind confirmation. Supplemented from the pack's
// AreumTech-Chubby.fyi mcp-server-go, absent from spec.md's Tool record.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint,omitempty"`
	DestructiveHint bool `json:"destructiveHint,omitempty"`
	OpenWorldHint   bool `json:"openWorldHint,omitempty"`
}

// toolHandler is the uniform boxed adapter every typed registration is
// compiled down to.
type toolHandler func(ctx context.Context, appCtx any, notify NotificationCtx, args json.RawMessage) (envelope.Envelope, *protocolerr.Error)

// Tool is a registered entry as exposed by tools/list and invoked by
// tools/call.
type Tool struct {
	Name          string
	Description   string
	InputSchema   json.RawMessage
	OutputSchema  json.RawMessage // optional; present iff registered with RegisterTool
	Annotations   *ToolAnnotations
	handler       toolHandler
}

// RegisterTool registers a tool whose handler declares both a typed input
// and a typed output. Input/Output schemas are derived by reflection at
// registration time (§4.3) and stored on the Tool record; the handler is
// boxed behind the uniform adapter.
//
// Ctx is the shared application context type threaded to every handler in
// this registry, generalizing the source's Box<dyn Provider<Ctx>> pattern
// (see DESIGN.md) to Go generics.
func RegisterTool[Ctx, In, Out any](r *Builder[Ctx], name, description string, annotations *ToolAnnotations, handler func(context.Context, Ctx, NotificationCtx, In) (Out, error)) error {
	if err := validateToolName(name); err != nil {
		return err
	}
	inSchema, err := deriveSchema[In]()
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}
	outSchema, err := deriveSchema[Out]()
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	boxed := func(ctx context.Context, appCtx any, notify NotificationCtx, args json.RawMessage) (envelope.Envelope, *protocolerr.Error) {
		in, err := validateAgainst[In](args)
		if err != nil {
			return envelope.Envelope{}, protocolerr.InvalidParams(err.Error(), "")
		}
		typedCtx, _ := appCtx.(Ctx)
		out, err := handler(ctx, typedCtx, notify, in)
		if err != nil {
			return envelope.Envelope{}, protocolerr.Internal(err, "")
		}
		data, err := json.Marshal(out)
		if err != nil {
			return envelope.Envelope{}, protocolerr.Internal(fmt.Errorf("marshal tool output: %w", err), "")
		}
		return envelope.Success(fmt.Sprintf("%s completed", name), data), nil
	}

	return r.addTool(Tool{
		Name:         name,
		Description:  description,
		InputSchema:  mustMarshalSchema(inSchema),
		OutputSchema: mustMarshalSchema(outSchema),
		Annotations:  annotations,
		handler:      boxed,
	})
}

// RegisterUntypedTool registers a tool with a typed input but no declared
// output schema; the handler returns a pre-built envelope.Envelope to
// control content/is_error directly (the spec's (a)/(b) domain-failure distinction, §4.3 item 5).
func RegisterUntypedTool[Ctx, In any](r *Builder[Ctx], name, description string, annotations *ToolAnnotations, handler func(context.Context, Ctx, NotificationCtx, In) (envelope.Envelope, error)) error {
	if err := validateToolName(name); err != nil {
		return err
	}
	inSchema, err := deriveSchema[In]()
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	boxed := func(ctx context.Context, appCtx any, notify NotificationCtx, args json.RawMessage) (envelope.Envelope, *protocolerr.Error) {
		in, err := validateAgainst[In](args)
		if err != nil {
			return envelope.Envelope{}, protocolerr.InvalidParams(err.Error(), "")
		}
		typedCtx, _ := appCtx.(Ctx)
		env, err := handler(ctx, typedCtx, notify, in)
		if err != nil {
			return envelope.Envelope{}, protocolerr.Internal(err, "")
		}
		return env, nil
	}

	return r.addTool(Tool{
		Name:        name,
		Description: description,
		InputSchema: mustMarshalSchema(inSchema),
		Annotations: annotations,
		handler:     boxed,
	})
}

func validateToolName(name string) error {
	if !toolNamePattern.MatchString(name) {
		return fmt.Errorf("invalid tool name %q: must match %s", name, toolNamePattern.String())
	}
	return nil
}
