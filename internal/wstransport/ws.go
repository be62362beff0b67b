// Package wstransport serves the full-duplex WebSocket half of the /mcp
// endpoint: one session per connection, a read loop dispatching inbound
// JSON-RPC frames, and a writer goroutine draining the session's
// notification outbox onto the same socket. Grounded on the gorilla/
// websocket upgrade/read/write-loop shape used throughout the pack's
// other_examples/ MCP transports (e.g. standardbeagle-brummer's
// streamable_server.go, acadiaai-tns's transport.go), since the teacher
// itself has no WebSocket transport of its own.
package wstransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcpserver/internal/logging"
	"github.com/fyrsmithlabs/mcpserver/internal/protocol"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2 * 1024 * 1024
)

// Dispatcher mirrors httptransport.Dispatcher so this package stays
// independent of the Ctx type parameter.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, raw []byte) *protocol.Response
}

// SessionFactory creates a fresh session for a new connection, closing
// over the shared *session.Store so wstransport need not depend on it by
// name.
type SessionFactory func() (*session.Session, error)

// SessionRemover removes a session on connection close.
type SessionRemover func(id string)

// Handler upgrades HTTP connections to WebSocket and runs the
// request/notification loop for their lifetime.
type Handler struct {
	engine   Dispatcher
	newSess  SessionFactory
	dropSess SessionRemover
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// New builds a WebSocket transport handler.
func New(engine Dispatcher, newSess SessionFactory, dropSess SessionRemover, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.FromContext(context.Background())
	}
	return &Handler{
		engine:   engine,
		newSess:  newSess,
		dropSess: dropSess,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Upgrade promotes c's connection to a WebSocket and blocks running the
// session's read/write loops until the connection closes. gorilla/
// websocket permits only one concurrent writer per *websocket.Conn
// (spec.md §4.4.1), so writeLoop is the connection's sole writer:
// readLoop hands dispatched responses to it over outbound instead of
// calling conn.WriteMessage itself.
func (h *Handler) Upgrade(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess, err := h.newSess()
	if err != nil {
		h.logger.Warn(c.Request().Context(), "reject websocket connection", zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		return nil
	}
	defer h.dropSess(sess.ID)

	ctx, cancel := context.WithCancel(logging.WithSessionID(c.Request().Context(), sess.ID))
	defer cancel()

	outbound := make(chan []byte, 16)
	writeDone := make(chan struct{})
	go h.writeLoop(ctx, conn, sess, outbound, writeDone)
	h.readLoop(ctx, cancel, conn, sess, outbound)
	<-writeDone
	return nil
}

// readLoop dispatches inbound frames one at a time and hands responses to
// writeLoop over outbound; cancel stops the writer goroutine once the
// connection is no longer readable.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session.Session, outbound chan<- []byte) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		resp := h.engine.Dispatch(ctx, sess, raw)
		if resp == nil {
			continue
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error(ctx, "marshal websocket response", zap.Error(err))
			continue
		}
		select {
		case outbound <- payload:
		case <-ctx.Done():
			return
		}
	}
}

// writeLoop is the connection's single writer: it drains dispatched
// responses from outbound, the session's notification outbox, and
// periodic pings onto the socket, one frame at a time. A write failure
// closes the connection, which unblocks readLoop's pending ReadMessage.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, outbound <-chan []byte, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	outbox := sess.Outbox()
	var notifications <-chan session.Notification
	if outbox != nil {
		notifications = outbox.C()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case payload, ok := <-outbound:
			if !ok {
				outbound = nil
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = conn.Close()
				return
			}
		case n, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			payload, err := json.Marshal(map[string]any{
				"jsonrpc": "2.0",
				"method":  n.Method,
				"params":  n.Params,
			})
			if err != nil {
				h.logger.Error(ctx, "marshal notification", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
