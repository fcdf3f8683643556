// Package runtime defines the bridge's contract with the primary agent
// runtime and owns the process-wide handle to it. The production
// implementation lives in package claude; tests substitute fakes.
package runtime

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/relaymind/relay/mcp"
	"github.com/relaymind/relay/permission"
)

// PermissionFunc answers a single privileged-action request. It must return
// a verdict for every call; leaving a request unanswered would block the
// agent loop indefinitely.
type PermissionFunc func(ctx context.Context, toolName string, input json.RawMessage) permission.Verdict

// AskUserFunc answers an "ask the human for input" event from the agent.
type AskUserFunc func(ctx context.Context, question string) string

// ToolUseFunc observes the start of every privileged tool execution.
type ToolUseFunc func(toolName string)

// SessionConfig carries everything needed to build one isolated session.
type SessionConfig struct {
	// Model is the primary agent model identifier.
	Model string

	// ThinkingBudget is the extended-thinking token budget; 0 disables it.
	ThinkingBudget int64

	// MaxTurns bounds the tool-use loop; 0 means the runtime default.
	MaxTurns int

	// SystemAppend is appended to the session's system message.
	SystemAppend string

	// ExcludedTools names primary-agent tools withheld from the session.
	ExcludedTools []string

	// Servers declares sub-tool servers by name.
	Servers map[string]mcp.ServerConfig

	// WorkDir is the working directory for local tool execution.
	WorkDir string

	// CanUseTool mediates every privileged tool execution. Required.
	CanUseTool PermissionFunc

	// OnToolUse is notified when a permitted tool execution begins. Optional.
	OnToolUse ToolUseFunc

	// OnAskUser answers user-input requests. Optional; when nil the
	// runtime's ask-user surface is unavailable to the model.
	OnAskUser AskUserFunc
}

// Usage tracks token consumption for one session send.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheReadInputTokens     int64
	CacheCreationInputTokens int64
}

// Reply is the outcome of one completed send.
type Reply struct {
	// Text is the primary completion content; may be empty when the agent
	// produced no final text.
	Text string

	NumTurns int
	Usage    Usage
	CostUSD  decimal.Decimal
}

// Message is one entry of a session's history.
type Message struct {
	Role string // "user" or "assistant"
	Text string
}

// Session is one isolated interaction context with the primary agent.
// Sessions are never shared across requests.
type Session interface {
	// Send delivers a prompt and blocks until the agent finishes or ctx
	// expires.
	Send(ctx context.Context, prompt string) (*Reply, error)

	// History returns the session's message log, oldest first.
	History() []Message

	// Destroy releases session resources. Idempotent.
	Destroy(ctx context.Context) error
}

// Client is a ready connection to the primary agent runtime.
type Client interface {
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
	Close(ctx context.Context) error
}
