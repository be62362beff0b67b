// Package httptransport serves the stateless HTTP/1.1 half of the /mcp
// endpoint: POST for request/response JSON-RPC, GET for an info document
// or a WebSocket upgrade, OPTIONS for CORS preflight, plus GET /health.
// Grounded on pkg/mcp/protocol.go's handleMCPRequest Accept-header/
// session-cookie discipline and internal/http/server.go's handleHealth
// shape, both rebuilt on github.com/labstack/echo/v4 per the teacher's
// router choice.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcpserver/internal/limits"
	"github.com/fyrsmithlabs/mcpserver/internal/logging"
	"github.com/fyrsmithlabs/mcpserver/internal/protocol"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
	"github.com/fyrsmithlabs/mcpserver/internal/wstransport"
)

// SessionCookieName is the cookie the HTTP transport uses to key a
// caller's session across requests (spec.md §3 SessionKey).
const SessionCookieName = "mcp_session"

// Dispatcher is the subset of *protocol.Engine[Ctx] the HTTP transport
// needs, named here so the transport package stays independent of the
// Ctx type parameter.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, raw []byte) *protocol.Response
}

// Handler wires the MCP HTTP surface onto an echo.Echo. startedAt powers
// the /health uptime field.
type Handler struct {
	engine    Dispatcher
	sessions  *session.Store
	upgrader  *wstransport.Handler
	logger    *logging.Logger
	limits    limits.Limits
	name      string
	version   string
	startedAt time.Time
}

// New builds an HTTP transport handler. logger may be nil/uninstrumented.
// name/version are reported in GET /health's body. Per-method/per-tool
// metrics are recorded by the engine and session store directly (see
// Engine.SetMetrics/Store.SetMetrics), not by this transport.
func New(engine Dispatcher, sessions *session.Store, upgrader *wstransport.Handler, logger *logging.Logger, l limits.Limits, name, version string) *Handler {
	if logger == nil {
		logger = logging.FromContext(context.Background())
	}
	return &Handler{
		engine:    engine,
		sessions:  sessions,
		upgrader:  upgrader,
		logger:    logger,
		limits:    l,
		name:      name,
		version:   version,
		startedAt: time.Now(),
	}
}

// Register mounts the /mcp and /health routes onto e.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/mcp", h.handlePost)
	e.GET("/mcp", h.handleGet)
	e.OPTIONS("/mcp", h.handleOptions)
	e.GET("/health", h.handleHealth)
}

func (h *Handler) handleOptions(c echo.Context) error {
	setCORSHeaders(c)
	return c.NoContent(http.StatusNoContent)
}

// handleGet upgrades to a WebSocket when the request carries the
// upgrade headers, otherwise returns a small info document describing
// the endpoint (spec.md §4.4.1).
func (h *Handler) handleGet(c echo.Context) error {
	if c.Request().Header.Get("Upgrade") == "websocket" {
		return h.upgrader.Upgrade(c)
	}
	setCORSHeaders(c)
	return c.JSON(http.StatusOK, map[string]any{
		"protocol": "mcp",
		"transports": []string{"http", "websocket"},
		"endpoint": "/mcp",
	})
}

func (h *Handler) handlePost(c echo.Context) error {
	setCORSHeaders(c)

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, int64(maxBodySize(h.limits))+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "failed to read request body"})
	}
	if h.limits.MaxMessageSize != 0 && len(body) > h.limits.MaxMessageSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]any{"error": "request body exceeds max_message_size"})
	}

	cookie, _ := c.Cookie(SessionCookieName)
	cookieValue := ""
	if cookie != nil {
		cookieValue = cookie.Value
	}
	sess, err := h.sessions.ResolveHTTP(cookieValue)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
	}
	if cookie == nil {
		c.SetCookie(&http.Cookie{Name: SessionCookieName, Value: sess.ID, Path: "/", HttpOnly: true})
	}

	streaming := protocol.ExtractProgressToken(body)

	ctx := logging.WithSessionID(c.Request().Context(), sess.ID)
	h.logger.Debug(ctx, "dispatching mcp request", zap.String("body", string(body)))

	resp := h.engine.Dispatch(ctx, sess, body)
	if resp == nil {
		// Notification: no body, 202 Accepted.
		return c.NoContent(http.StatusAccepted)
	}

	if streaming {
		return h.writeChunked(c, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// writeChunked streams the response with Transfer-Encoding: chunked,
// never setting Content-Length, per spec.md §4.4.2's progress-token
// streaming contract.
func (h *Handler) writeChunked(c echo.Context, resp *protocol.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error(c.Request().Context(), "marshal chunked response", zap.Error(err))
		return err
	}
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.Header().Set("Transfer-Encoding", "chunked")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(payload)
	w.Flush()
	return err
}

func maxBodySize(l limits.Limits) int {
	if l.MaxMessageSize == 0 {
		return 64 * 1024 * 1024 // generous cap even when "unlimited"
	}
	return l.MaxMessageSize
}

func setCORSHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Mcp-Session-Id")
}

// HealthResponse is the GET /health body. Richer than spec.md's bare
// liveness check, shaped after original_source/src/health.rs's
// HealthChecker response (SPEC_FULL.md §4.1 supplemented feature).
type HealthResponse struct {
	Status       string         `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	SessionCount int            `json:"session_count"`
	Uptime       int64          `json:"uptime_seconds"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		SessionCount: h.sessions.Count(),
		Uptime:       int64(time.Since(h.startedAt).Seconds()),
		Metadata: map[string]any{
			"server_name":      h.name,
			"protocol_version": protocol.SupportedVersions[0],
		},
	})
}
