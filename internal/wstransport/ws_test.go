package wstransport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mcpserver/internal/protocol"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
)

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(ctx context.Context, sess *session.Session, raw []byte) *protocol.Response {
	var req protocol.Request
	_ = json.Unmarshal(raw, &req)
	return &protocol.Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"echoed": req.Method}}
}

func TestUpgradeEchoesDispatchedResponse(t *testing.T) {
	h := New(echoDispatcher{}, func() (*session.Session, error) { return &session.Session{ID: "s1"}, nil }, func(string) {}, nil)

	e := echo.New()
	e.GET("/mcp", func(c echo.Context) error { return h.Upgrade(c) })
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/mcp"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"ping"`)
}

func TestUpgradeRejectsWhenSessionFactoryFails(t *testing.T) {
	h := New(echoDispatcher{}, func() (*session.Session, error) { return nil, assertErr("too many sessions") }, func(string) {}, nil)

	e := echo.New()
	e.GET("/mcp", func(c echo.Context) error { return h.Upgrade(c) })
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/mcp"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err) // connection closed by the server
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
