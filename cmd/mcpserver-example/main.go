// Command mcpserver-example runs the echotool demonstration server, a
// worked example of embedding github.com/fyrsmithlabs/mcpserver. Grounded
// on cmd/ctxd/main.go's cobra root-command-plus-flags shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/fyrsmithlabs/mcpserver"
	"github.com/fyrsmithlabs/mcpserver/examples/echotool"
	"github.com/fyrsmithlabs/mcpserver/internal/serverconfig"
)

var httpAddr string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mcpserver-example",
	Short:   "Runs the echotool demonstration MCP server",
	Version: "dev",
	RunE:    runServe,
}

func init() {
	rootCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address, overrides MCPSERVER_HTTP_ADDR")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := serverconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	b := mcpserver.NewBuilder[echotool.AppContext](cfg)
	if err := echotool.Register(b); err != nil {
		return fmt.Errorf("register echotool: %w", err)
	}

	appCtx := echotool.AppContext{StartedAt: time.Now()}
	info := mcpserver.ServerInfo{Name: "echotool-example", Version: "0.1.0"}

	srv, err := mcpserver.Build(b, appCtx, info, cfg, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting echotool example server", zap.String("addr", cfg.HTTPAddr))
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
