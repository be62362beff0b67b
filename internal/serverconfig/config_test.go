package serverconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoEnv(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("MCPSERVER_HTTP_ADDR", ":9999")
	t.Setenv("MCPSERVER_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsEmptyAddr(t *testing.T) {
	cfg := Default()
	cfg.HTTPAddr = ""
	assert.Error(t, cfg.Validate())
}
