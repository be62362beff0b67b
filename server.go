// Package mcpserver composes the protocol engine, session store, and
// both transports into a single embeddable MCP server (spec.md §1, §9
// Design Notes). Grounded on pkg/server/server.go's NewServer/Start
// graceful-shutdown lifecycle and pkg/mcp/server.go's NewServer/
// RegisterRoutes composition, merged into one generic entry point.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mcpserver/internal/httptransport"
	"github.com/fyrsmithlabs/mcpserver/internal/logging"
	"github.com/fyrsmithlabs/mcpserver/internal/metrics"
	"github.com/fyrsmithlabs/mcpserver/internal/protocol"
	"github.com/fyrsmithlabs/mcpserver/internal/serverconfig"
	"github.com/fyrsmithlabs/mcpserver/internal/session"
	"github.com/fyrsmithlabs/mcpserver/internal/toolregistry"
	"github.com/fyrsmithlabs/mcpserver/internal/wstransport"
)

// Builder re-exports the typed registration builder so embedders only
// need to import this package plus the registration functions
// (RegisterTool, RegisterResourceProvider, RegisterPromptProvider).
type Builder[Ctx any] = toolregistry.Builder[Ctx]

// NewBuilder creates an empty tool/resource/prompt registration builder.
func NewBuilder[Ctx any](cfg serverconfig.Config) *Builder[Ctx] {
	return toolregistry.NewBuilder[Ctx](cfg.Limits)
}

// ServerInfo identifies the embedding application in the initialize
// handshake.
type ServerInfo = protocol.ServerInfo

// Server is a fully wired, embeddable MCP server: one protocol engine,
// one session store, both transports, mounted on its own *echo.Echo.
type Server[Ctx any] struct {
	echo     *echo.Echo
	cfg      serverconfig.Config
	sessions *session.Store
	logger   *zap.Logger
	nc       *nats.Conn
}

// Build wires a registry, application context, and configuration into a
// ready-to-start Server. Registration must be complete before calling
// Build; the resulting registry is immutable.
func Build[Ctx any](b *Builder[Ctx], appCtx Ctx, info ServerInfo, cfg serverconfig.Config, logger *zap.Logger) (*Server[Ctx], error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("connect to nats at %s: %w", cfg.NATSURL, err)
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	registry := b.Build()
	sessions := session.NewStore(cfg.Limits, nc)
	sessions.SetMetrics(m)
	engine := protocol.NewEngine[Ctx](registry, appCtx, info)
	engine.SetMetrics(m)

	logCfg := logging.NewDefaultConfig()
	logCfg.Level = logLevelFromString(cfg.LogLevel)
	structuredLogger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("build structured logger: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	ws := wstransport.New(engine,
		func() (*session.Session, error) { return sessions.CreateWebSocket() },
		func(id string) { sessions.Delete(id) },
		structuredLogger,
	)
	httpHandler := httptransport.New(engine, sessions, ws, structuredLogger, cfg.Limits, info.Name, info.Version)
	httpHandler.Register(e)

	return &Server[Ctx]{echo: e, cfg: cfg, sessions: sessions, logger: logger, nc: nc}, nil
}

// Start runs the server and blocks until ctx is cancelled, then performs
// graceful shutdown within the configured timeout. Returns
// http.ErrServerClosed on a clean shutdown.
func (s *Server[Ctx]) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if s.nc != nil {
			s.nc.Close()
		}
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// logLevelFromString maps serverconfig's RFC5424-flavored log_level
// values (matching the logging/setLevel method, spec.md §4) onto a
// zapcore.Level.
func logLevelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Handle is a running server started with StartDynamic. The server keeps
// running until Stop is called; dropping the Handle without calling Stop
// neither stops the server nor aborts its in-flight requests.
type Handle struct {
	cancel context.CancelFunc
	done   chan error
}

// Stop cancels the server and waits for it to finish shutting down. A
// clean shutdown is reported as nil, not http.ErrServerClosed.
func (h *Handle) Stop() error {
	h.cancel()
	if err := <-h.done; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartDynamic binds an OS-chosen TCP port and runs the server in the
// background, returning a Handle and the bound port (spec.md §4.5's
// `start_dynamic() -> (handle, port)`). Useful for tests and embedders
// that don't want to hardcode a port.
func (s *Server[Ctx]) StartDynamic() (*Handle, int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("listen on ephemeral port: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	s.echo.Listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	return &Handle{cancel: cancel, done: done}, port, nil
}

// Echo returns the underlying Echo instance so an embedder can mount
// additional routes alongside /mcp.
func (s *Server[Ctx]) Echo() *echo.Echo {
	return s.echo
}

// Sessions returns the session store, mainly for tests and
// introspection; embedders should not normally need it.
func (s *Server[Ctx]) Sessions() *session.Store {
	return s.sessions
}
