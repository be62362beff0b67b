package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextFields_Empty(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}

func TestContextFields_SessionAndRequestID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess_abc")
	ctx = WithRequestID(ctx, "req_123")

	fields := ContextFields(ctx)
	require := map[string]bool{"session.id": false, "request.id": false}
	for _, f := range fields {
		if _, ok := require[f.Key]; ok {
			require[f.Key] = true
		}
	}
	for k, found := range require {
		assert.True(t, found, "missing field %q", k)
	}
}

func TestWithSessionID_RejectsInvalid(t *testing.T) {
	assert.Panics(t, func() {
		WithSessionID(context.Background(), "")
	})
	assert.Panics(t, func() {
		WithSessionID(context.Background(), "has a space")
	})
}

func TestWithRequestID_RejectsTooLong(t *testing.T) {
	long := make([]byte, maxIDLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Panics(t, func() {
		WithRequestID(context.Background(), string(long))
	})
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
	assert.NoError(t, l.Sync())
}

func TestWithLogger_RoundTrip(t *testing.T) {
	cfg := NewDefaultConfig()
	logger, err := NewLogger(cfg)
	assert.NoError(t, err)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
