// Package logging provides structured logging for the MCP server and
// its embedders.
//
// # Overview
//
// The package wraps Zap with:
//   - A custom Trace level (-2, below Debug)
//   - Automatic context field injection (session id, request id)
//   - Defense-in-depth secret redaction of tool arguments and request
//     bodies
//   - Sampling of entries below Error (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx := logging.WithSessionID(ctx, sess.ID)
//	logger.Info(ctx, "tool invoked", zap.String("tool", name))
//
// # Secret Redaction
//
// Sensitive field names (password, token, api_key, ...) are replaced
// with "[REDACTED]" and values matching bearer-token/API-key shaped
// patterns are redacted regardless of field name, so a tool handler
// that logs a raw argument blob doesn't leak credentials embedded in
// it.
//
// # Sampling
//
// Sampling prevents log floods from noisy tools. Every level below Error
// shares one sampler configured from the Info entry of
// SamplingConfig.Levels (default: first 100 per message per tick, then
// 1 in 10); the Trace, Debug and Warn entries are not consulted. Error
// and above are never sampled.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
package logging
