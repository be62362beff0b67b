package protocol

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fyrsmithlabs/mcpserver/internal/envelope"
	"github.com/fyrsmithlabs/mcpserver/internal/limits"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
	"github.com/fyrsmithlabs/mcpserver/internal/toolregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appCtx struct{}

type echoIn struct {
	Text string `json:"text"`
}

type echoOut struct {
	Text string `json:"text"`
}

func newTestEngine(t *testing.T) (*Engine[appCtx], *session.Session) {
	t.Helper()
	b := toolregistry.NewBuilder[appCtx](limits.Default())
	err := toolregistry.RegisterTool(b, "echo", "Echoes the input text", nil,
		func(ctx context.Context, ac appCtx, n toolregistry.NotificationCtx, in echoIn) (echoOut, error) {
			return echoOut{Text: in.Text}, nil
		})
	require.NoError(t, err)
	reg := b.Build()
	eng := NewEngine[appCtx](reg, appCtx{}, ServerInfo{Name: "test-server", Version: "0.0.1"})
	return eng, &session.Session{}
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDispatchRejectsMethodsBeforeInitialize(t *testing.T) {
	eng, sess := newTestEngine(t)
	req := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	resp := eng.Dispatch(context.Background(), sess, []byte(req))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32002, resp.Error.Code)
}

func TestInitializeNegotiatesSupportedVersion(t *testing.T) {
	eng, sess := newTestEngine(t)
	params := mustRaw(t, InitializeParams{ProtocolVersion: "2025-06-18", ClientInfo: session.ClientInfo{Name: "c"}})
	req, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "initialize", Params: params})

	resp := eng.Dispatch(context.Background(), sess, req)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(InitializeResult)
	require.True(t, ok)
	assert.Equal(t, "2025-06-18", result.ProtocolVersion)
	assert.True(t, sess.IsInitialized())
}

func TestInitializeFallsBackOnUnsupportedVersion(t *testing.T) {
	eng, sess := newTestEngine(t)
	params := mustRaw(t, InitializeParams{ProtocolVersion: "1999-01-01"})
	req, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "initialize", Params: params})

	resp := eng.Dispatch(context.Background(), sess, req)
	result := resp.Result.(InitializeResult)
	assert.Equal(t, SupportedVersions[0], result.ProtocolVersion)
}

func TestToolsCallRoundTrip(t *testing.T) {
	eng, sess := newTestEngine(t)
	sess.ReInitialize("2025-06-18", session.ClientInfo{}, nil)

	params := mustRaw(t, toolsCallParams{Name: "echo", Arguments: mustRaw(t, echoIn{Text: "hi"})})
	req, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("2"), Method: "tools/call", Params: params})

	resp := eng.Dispatch(context.Background(), sess, req)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	env, ok := resp.Result.(envelope.Envelope)
	require.True(t, ok)
	assert.False(t, env.IsError)
}

func TestToolsCallUnknownToolReturnsMethodNotFound(t *testing.T) {
	eng, sess := newTestEngine(t)
	sess.ReInitialize("2025-06-18", session.ClientInfo{}, nil)

	params := mustRaw(t, toolsCallParams{Name: "nope", Arguments: json.RawMessage("{}")})
	req, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("3"), Method: "tools/call", Params: params})

	resp := eng.Dispatch(context.Background(), sess, req)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestNotificationGetsNoResponse(t *testing.T) {
	eng, sess := newTestEngine(t)
	req := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	resp := eng.Dispatch(context.Background(), sess, []byte(req))
	assert.Nil(t, resp)
	assert.True(t, sess.IsInitialized() == false) // initialized flag unaffected by this notification
}

func TestMalformedJSONProducesParseError(t *testing.T) {
	eng, sess := newTestEngine(t)
	resp := eng.Dispatch(context.Background(), sess, []byte("{not json"))
	require.NotNil(t, resp)
	assert.Equal(t, -32700, resp.Error.Code)
	assert.Equal(t, "null", string(resp.ID))
}

type fakeResourceProvider struct {
	uri string
}

func (p *fakeResourceProvider) ListResources(ctx context.Context, ac appCtx) ([]toolregistry.ResourceInfo, error) {
	return []toolregistry.ResourceInfo{{URI: p.uri, Name: "fake"}}, nil
}

func (p *fakeResourceProvider) ReadResource(ctx context.Context, ac appCtx, uri string) (toolregistry.ResourceContentItem, error) {
	if uri != p.uri {
		return toolregistry.ResourceContentItem{}, assert.AnError
	}
	return toolregistry.ResourceContentItem{URI: uri, Text: "content"}, nil
}

func (p *fakeResourceProvider) IsSubscribable(uri string) bool {
	return uri == p.uri
}

func newTestEngineWithSubscribableResource(t *testing.T) (*Engine[appCtx], *session.Session) {
	t.Helper()
	b := toolregistry.NewBuilder[appCtx](limits.Default())
	require.NoError(t, toolregistry.RegisterResourceProvider[appCtx](b, &fakeResourceProvider{uri: "res://one"}))
	reg := b.Build()
	eng := NewEngine[appCtx](reg, appCtx{}, ServerInfo{Name: "test-server", Version: "0.0.1"})
	return eng, &session.Session{}
}

func TestInitializeAdvertisesSubscribeWhenProviderOptsIn(t *testing.T) {
	eng, sess := newTestEngineWithSubscribableResource(t)
	params := mustRaw(t, InitializeParams{ProtocolVersion: "2025-06-18"})
	req, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "initialize", Params: params})

	resp := eng.Dispatch(context.Background(), sess, req)
	result := resp.Result.(InitializeResult)
	assert.Equal(t, map[string]any{"listChanged": false, "subscribe": true}, result.Capabilities.Resources)
}

func TestResourcesSubscribeAndUnsubscribe(t *testing.T) {
	eng, sess := newTestEngineWithSubscribableResource(t)
	sess.ReInitialize("2025-06-18", session.ClientInfo{}, nil)

	subscribeReq, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "resources/subscribe",
		Params: mustRaw(t, resourcesSubscribeParams{URI: "res://one"})})
	resp := eng.Dispatch(context.Background(), sess, subscribeReq)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.True(t, sess.IsSubscribed("res://one"))

	unsubscribeReq, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("2"), Method: "resources/unsubscribe",
		Params: mustRaw(t, resourcesSubscribeParams{URI: "res://one"})})
	resp = eng.Dispatch(context.Background(), sess, unsubscribeReq)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.False(t, sess.IsSubscribed("res://one"))
}

func TestResourcesSubscribeRejectsNonSubscribableURI(t *testing.T) {
	eng, sess := newTestEngineWithSubscribableResource(t)
	sess.ReInitialize("2025-06-18", session.ClientInfo{}, nil)

	req, _ := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "resources/subscribe",
		Params: mustRaw(t, resourcesSubscribeParams{URI: "res://other"})})
	resp := eng.Dispatch(context.Background(), sess, req)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestExtractProgressToken(t *testing.T) {
	withToken := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"_meta":{"progressToken":"abc"}}}`
	assert.True(t, ExtractProgressToken([]byte(withToken)))

	withoutToken := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`
	assert.False(t, ExtractProgressToken([]byte(withoutToken)))
}
