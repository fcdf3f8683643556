// Package mcpserver exposes the bridge to callers as an MCP stdio
// server with a single "delegate" tool.
package mcpserver

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpgo "github.com/mark3labs/mcp-go/server"

	"github.com/relaymind/relay"
	"github.com/relaymind/relay/internal/config"
)

// Runner bridges one request; *relay.Bridge is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, req relay.Request) (*relay.Result, error)
}

// Server is the caller-facing MCP stdio front end.
type Server struct {
	runner Runner
	cfg    *config.Config
	logger *log.Logger
	mcp    *mcpgo.MCPServer
}

// New wires the delegate tool onto a fresh MCP server.
func New(runner Runner, cfg *config.Config, logger *log.Logger, version string) *Server {
	s := &Server{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
	s.mcp = mcpgo.NewMCPServer(
		"relay",
		version,
		mcpgo.WithToolCapabilities(true),
		mcpgo.WithRecovery(),
	)
	s.mcp.AddTools(s.delegateTool())
	return s
}

// Listen serves MCP over the given streams until ctx is cancelled or
// the input stream closes.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpgo.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog())
	return stdio.Listen(ctx, in, out)
}

func (s *Server) delegateTool() mcpgo.ServerTool {
	tool := mcplib.NewTool("delegate",
		mcplib.WithDescription("Send a task to the primary reasoning agent. The agent can read the workspace, fetch URLs, and offload bulk analysis to a fast secondary agent; writes and shell execution require write_access."),
		mcplib.WithString("prompt",
			mcplib.Required(),
			mcplib.Description("The task to perform"),
		),
		mcplib.WithString("context",
			mcplib.Description("Supporting material appended to the prompt"),
		),
		mcplib.WithString("model",
			mcplib.Description("Primary agent model override"),
		),
		mcplib.WithString("effort",
			mcplib.Description("Reasoning effort: low, medium, high, or xhigh"),
		),
		mcplib.WithString("scout_model",
			mcplib.Description("Secondary agent model override"),
		),
		mcplib.WithNumber("timeout_ms",
			mcplib.Description("Request timeout in milliseconds"),
		),
		mcplib.WithBoolean("write_access",
			mcplib.Description("Permit file writes and shell execution"),
		),
	)
	return mcpgo.ServerTool{Tool: tool, Handler: s.handleDelegate}
}
