package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mcpserver/internal/limits"
	"github.com/fyrsmithlabs/mcpserver/internal/protocol"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
	"github.com/fyrsmithlabs/mcpserver/internal/wstransport"
)

type fakeDispatcher struct {
	resp *protocol.Response
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, sess *session.Session, raw []byte) *protocol.Response {
	return f.resp
}

func newTestHandler(resp *protocol.Response) (*Handler, *echo.Echo) {
	e := echo.New()
	stores := session.NewStore(limits.Default(), nil)
	ws := wstransport.New(&fakeDispatcher{}, func() (*session.Session, error) { return nil, nil }, func(string) {}, nil)
	h := New(&fakeDispatcher{resp: resp}, stores, ws, nil, limits.Default(), "test-server", "test")
	h.Register(e)
	return h, e
}

func TestHandlePostReturnsDispatchedResponse(t *testing.T) {
	resp := &protocol.Response{JSONRPC: "2.0", Result: map[string]any{"ok": true}}
	_, e := newTestHandler(resp)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestHandlePostSetsSessionCookieOnFirstRequest(t *testing.T) {
	resp := &protocol.Response{JSONRPC: "2.0", Result: map[string]any{}}
	_, e := newTestHandler(resp)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"x"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
}

func TestHandlePostReturns202ForNotification(t *testing.T) {
	_, e := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleOptionsSetsCORSHeaders(t *testing.T) {
	_, e := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleGetReturnsInfoDocument(t *testing.T) {
	_, e := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mcp")
}

func TestHandleHealthReportsOK(t *testing.T) {
	_, e := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"server_name":"test-server"`)
}

func TestHandlePostRejectsOversizedBody(t *testing.T) {
	resp := &protocol.Response{JSONRPC: "2.0", Result: map[string]any{}}
	e := echo.New()
	stores := session.NewStore(limits.Default(), nil)
	ws := wstransport.New(&fakeDispatcher{}, func() (*session.Session, error) { return nil, nil }, func(string) {}, nil)
	h := New(&fakeDispatcher{resp: resp}, stores, ws, nil, limits.Limits{MaxMessageSize: 8}, "test-server", "test")
	h.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list_but_longer_than_8_bytes"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
