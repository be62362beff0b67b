package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcpserver/internal/serverconfig"
)

type appCtx struct{}

func TestBuildAndStartServesHealth(t *testing.T) {
	b := NewBuilder[appCtx](serverconfig.Default())

	cfg := serverconfig.Default()
	cfg.HTTPAddr = ":18099"

	srv, err := Build[appCtx](b, appCtx{}, ServerInfo{Name: "test", Version: "0.0.1"}, cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()
	defer cancel()

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:18099/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestStartDynamicBindsEphemeralPort(t *testing.T) {
	b := NewBuilder[appCtx](serverconfig.Default())
	cfg := serverconfig.Default()

	srv, err := Build[appCtx](b, appCtx{}, ServerInfo{Name: "test", Version: "0.0.1"}, cfg, zap.NewNop())
	require.NoError(t, err)

	handle, port, err := srv.StartDynamic()
	require.NoError(t, err)
	assert.NotZero(t, port)

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, handle.Stop())
}
