// Command relay serves the request bridge as an MCP stdio server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaymind/relay"
	"github.com/relaymind/relay/claude"
	"github.com/relaymind/relay/internal/config"
	"github.com/relaymind/relay/internal/logging"
	"github.com/relaymind/relay/internal/mcpserver"
	"github.com/relaymind/relay/permission"
	"github.com/relaymind/relay/runtime"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level)
	for _, warning := range cfg.Normalize() {
		logger.Warn(warning)
	}

	handle := runtime.NewHandle(func(ctx context.Context) (runtime.Client, error) {
		return claude.Start(ctx, logger)
	}, logger)

	bridge := relay.NewBridge(handle, bridgeOptions(cfg), logger)
	server := mcpserver.New(bridge, cfg, logger, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("relay ready",
		"version", version,
		"model", cfg.Model.Default,
		"scout", cfg.Scout.Model)

	err = server.Listen(ctx, os.Stdin, os.Stdout)

	// Signal or stdin close: stop taking requests, then tear the
	// runtime down. Shutdown never fails the exit path.
	stop()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	handle.Shutdown(sctx)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("relay stopped")
	return nil
}

func bridgeOptions(cfg *config.Config) relay.Options {
	effort, _ := relay.ParseEffort(cfg.Model.Effort)
	opts := relay.Options{
		DefaultModel:   cfg.Model.Default,
		DefaultEffort:  effort,
		DefaultTimeout: cfg.Bridge.Timeout,
		ScoutModel:     cfg.Scout.Model,
		WorkDir:        cfg.Bridge.WorkDir,
		MaxTurns:       cfg.Bridge.MaxTurns,
	}
	// An empty allowlist leaves scout unreachable rather than
	// launching a server with every tool exposed.
	if cfg.Scout.Command != "" && len(cfg.Scout.AllowedTools) > 0 {
		opts.ScoutCommand = cfg.Scout.Command
		opts.ScoutArgs = cfg.Scout.Args
		opts.ScoutAllowedTools = permission.Allowlist(cfg.Scout.AllowedTools)
	}
	return opts
}
