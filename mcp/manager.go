package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/relaymind/relay/toolkit"
)

// conn abstracts the wire client so the Manager can be tested without
// spawning subprocesses.
type conn interface {
	ListTools(ctx context.Context) ([]mcplib.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error)
	Close() error
}

// DialFunc establishes a connection to a sub-tool server.
type DialFunc func(ctx context.Context, cfg ServerConfig) (conn, error)

// Manager owns the connection to one sub-tool server for the lifetime of a
// session. It is created per session and closed when the session is destroyed.
type Manager struct {
	name string
	cfg  ServerConfig
	dial DialFunc
	conn conn
}

// NewManager creates a Manager for the named server. The connection is not
// established until Connect.
func NewManager(name string, cfg ServerConfig) *Manager {
	return &Manager{name: name, cfg: cfg, dial: dialStdio}
}

// newManagerWithDial is the test seam.
func newManagerWithDial(name string, cfg ServerConfig, dial DialFunc) *Manager {
	return &Manager{name: name, cfg: cfg, dial: dial}
}

// Name returns the server name used in bridged tool names.
func (m *Manager) Name() string { return m.name }

// Connect launches the server subprocess and performs the MCP handshake.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	c, err := m.dial(ctx, m.cfg)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrConnect, m.name, err.Error())
	}
	m.conn = c
	return nil
}

// RegisterInto bridges the server's allowlisted tools into the registry under
// mcp__{server}__{tool} names. Returns the bridged tool count. Tools outside
// the allowlist are not registered and therefore unreachable.
func (m *Manager) RegisterInto(ctx context.Context, registry *toolkit.Registry) (int, error) {
	if m.conn == nil {
		return 0, fmt.Errorf("%w: %s: not connected", ErrConnect, m.name)
	}

	remote, err := m.conn.ListTools(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: list tools: %s", ErrConnect, m.name, err.Error())
	}

	count := 0
	for _, tool := range remote {
		if !m.cfg.AllowedTools.Allows(tool.Name) {
			continue
		}
		bridged := BridgeToolName(m.name, tool.Name)
		remoteName := tool.Name
		registry.RegisterRaw(bridged, tool.Description, toSchemaParam(tool.InputSchema),
			func(callCtx context.Context, raw json.RawMessage) (*toolkit.Result, error) {
				return m.call(callCtx, remoteName, raw)
			})
		count++
	}
	return count, nil
}

// call forwards one tool invocation to the server.
func (m *Manager) call(ctx context.Context, toolName string, raw json.RawMessage) (*toolkit.Result, error) {
	var args map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return toolkit.ErrorResult(fmt.Sprintf("invalid arguments: %s", err.Error())), nil
		}
	}

	text, isError, err := m.conn.CallTool(ctx, toolName, args)
	if err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("sub-tool call failed: %s", err.Error())), nil
	}
	if isError {
		return toolkit.ErrorResult(text), nil
	}
	return toolkit.TextResult(text), nil
}

// Close terminates the server subprocess. Safe to call when never connected.
func (m *Manager) Close() error {
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// toSchemaParam converts an MCP tool input schema to the Anthropic form.
func toSchemaParam(s mcplib.ToolInputSchema) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Properties: s.Properties,
		Required:   s.Required,
	}
}

// stdioConn is the production conn over a mark3labs/mcp-go stdio client.
type stdioConn struct {
	client *mcpclient.Client
}

func dialStdio(ctx context.Context, cfg ServerConfig) (conn, error) {
	c, err := mcpclient.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, err
	}

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{Name: "relay", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &stdioConn{client: c}, nil
}

func (s *stdioConn) ListTools(ctx context.Context) ([]mcplib.Tool, error) {
	res, err := s.client.ListTools(ctx, mcplib.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return res.Tools, nil
}

func (s *stdioConn) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", false, err
	}

	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(mcplib.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n"), res.IsError, nil
}

func (s *stdioConn) Close() error {
	return s.client.Close()
}
