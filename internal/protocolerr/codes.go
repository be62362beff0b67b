// Package protocolerr defines the JSON-RPC 2.0 / MCP error taxonomy shared
// by the protocol engine, registry, and transport adapters.
package protocolerr

import (
	"errors"
	"fmt"
	"time"
)

// Standard JSON-RPC 2.0 error codes, plus the MCP-specific extension used
// for the "not initialized" gate.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotInitialized = -32002
)

// Sentinel errors for validation classes that callers commonly need to
// distinguish with errors.Is.
var (
	ErrNotInitialized = errors.New("session not initialized")
	ErrUnknownMethod  = errors.New("unknown method")
	ErrUnknownTool    = errors.New("unknown tool")
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownPrompt  = errors.New("unknown prompt")
)

// Detail carries debugging context alongside a JSON-RPC error: a trace id
// for correlating with server-side logs, a coarse error classification,
// and the time the error was produced. Mirrors the ErrorDetail.Data bag
// the teacher attaches to every error response.
type Detail struct {
	TraceID   string    `json:"trace_id,omitempty"`
	ErrorType string    `json:"error_type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Extra     map[string]any `json:"-"`
}

// Error is a JSON-RPC 2.0 error object, the value of a response's "error"
// field.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// New builds an Error with a Detail attached as Data. traceID may be empty.
func New(code int, errType, message, traceID string) *Error {
	data := Detail{
		TraceID:   traceID,
		ErrorType: errType,
		Timestamp: time.Now(),
	}
	return &Error{Code: code, Message: message, Data: data}
}

// Wrap converts an arbitrary Go error into an Error at the given code,
// preserving its message text.
func Wrap(code int, errType string, err error, traceID string) *Error {
	return New(code, errType, err.Error(), traceID)
}

func ParseError(err error, traceID string) *Error {
	return Wrap(CodeParseError, "parse_error", err, traceID)
}

func InvalidRequest(message, traceID string) *Error {
	return New(CodeInvalidRequest, "invalid_request", message, traceID)
}

func MethodNotFound(method, traceID string) *Error {
	return New(CodeMethodNotFound, "method_not_found", fmt.Sprintf("unknown method: %s", method), traceID)
}

func InvalidParams(message, traceID string) *Error {
	return New(CodeInvalidParams, "invalid_params", message, traceID)
}

func Internal(err error, traceID string) *Error {
	return Wrap(CodeInternalError, "internal_error", err, traceID)
}

func NotInitialized(traceID string) *Error {
	return New(CodeNotInitialized, "not_initialized", "session has not completed initialize", traceID)
}
