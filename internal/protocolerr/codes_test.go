package protocolerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodNotFound(t *testing.T) {
	err := MethodNotFound("foo/bar", "trace-1")
	require.NotNil(t, err)
	assert.Equal(t, CodeMethodNotFound, err.Code)
	assert.Contains(t, err.Message, "foo/bar")
	detail, ok := err.Data.(Detail)
	require.True(t, ok)
	assert.Equal(t, "trace-1", detail.TraceID)
}

func TestInternalWrapsUnderlyingMessage(t *testing.T) {
	underlying := errors.New("boom")
	err := Internal(underlying, "")
	assert.Equal(t, CodeInternalError, err.Code)
	assert.Equal(t, "boom", err.Message)
}

func TestErrorStringer(t *testing.T) {
	err := NotInitialized("")
	assert.Contains(t, err.Error(), "-32002")
}
