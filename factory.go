package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/relaymind/relay/mcp"
	"github.com/relaymind/relay/permission"
	"github.com/relaymind/relay/runtime"
	"github.com/relaymind/relay/tools"
)

// scoutServerName is the sub-tool server name the secondary agent is
// registered under; bridged tools surface as mcp__scout__<tool>.
const scoutServerName = "scout"

// autoProceedAnswer is the fixed reply to every ask-user event. The
// bridge runs unattended; there is no human to consult mid-session.
const autoProceedAnswer = "proceed autonomously"

// delegationGuidance steers the primary agent's use of the scout
// sub-tools. Appended to every session's system message.
const delegationGuidance = `You have access to "scout", a fast high-context assistant, through the mcp__scout__* tools.

Delegate to scout when a task involves bulk work: analyzing or summarizing large amounts of text or code, web search, or broad brainstorming. Handle the task yourself when it needs your own judgment: short factual answers, code generation within the context you already have, or anything where delegation would cost more than it saves.

When you delegate, give scout a self-contained brief; it cannot see this conversation.`

// Options are the bridge's process-level settings: fixed at startup,
// read-only afterwards.
type Options struct {
	// DefaultModel is used when a request names no model.
	DefaultModel string

	// DefaultEffort is used when a request names no effort level.
	DefaultEffort Effort

	// DefaultTimeout bounds sends for requests without a timeout.
	DefaultTimeout time.Duration

	// ScoutModel is the default secondary agent model.
	ScoutModel string

	// ScoutCommand launches the secondary agent's sub-tool server.
	// Empty disables delegation entirely.
	ScoutCommand string
	ScoutArgs    []string
	ScoutEnv     []string

	// ScoutAllowedTools restricts which scout tools are bridged.
	ScoutAllowedTools permission.Allowlist

	// WorkDir is the working directory for the primary agent's local
	// tools.
	WorkDir string

	// MaxTurns bounds the primary agent's tool-use loop per send.
	MaxTurns int
}

const (
	fallbackModel   = "claude-opus-4-6"
	fallbackEffort  = EffortMedium
	fallbackTimeout = 5 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.DefaultModel == "" {
		o.DefaultModel = fallbackModel
	}
	if _, ok := effortRank[o.DefaultEffort]; !ok {
		o.DefaultEffort = fallbackEffort
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = fallbackTimeout
	}
	return o
}

// sessionConfig builds the per-request session: model and clamped
// effort, the delegation guidance, the restricted scout server, the
// write-class exclusions, and the policy-backed permission callback.
func (b *Bridge) sessionConfig(req Request, log *toolLog) runtime.SessionConfig {
	model := req.Model
	if model == "" {
		model = b.opts.DefaultModel
	}
	effort := req.Effort
	if _, ok := effortRank[effort]; !ok {
		effort = b.opts.DefaultEffort
	}
	effort = ClampEffort(model, effort)

	cfg := runtime.SessionConfig{
		Model:          model,
		ThinkingBudget: effort.ThinkingBudget(),
		MaxTurns:       b.opts.MaxTurns,
		SystemAppend:   delegationGuidance,
		WorkDir:        b.opts.WorkDir,
		CanUseTool: func(ctx context.Context, toolName string, input json.RawMessage) permission.Verdict {
			return permission.Evaluate(permission.Classify(toolName), req.WriteAccess)
		},
		OnToolUse: func(toolName string) {
			log.add(mcp.Label(toolName))
		},
		OnAskUser: func(ctx context.Context, question string) string {
			return autoProceedAnswer
		},
	}
	if !req.WriteAccess {
		cfg.ExcludedTools = tools.WriteClass
	}
	if b.opts.ScoutCommand != "" {
		scoutModel := req.ScoutModel
		if scoutModel == "" {
			scoutModel = b.opts.ScoutModel
		}
		env := append([]string{}, b.opts.ScoutEnv...)
		if scoutModel != "" {
			env = append(env, "SCOUT_MODEL="+scoutModel)
		}
		cfg.Servers = map[string]mcp.ServerConfig{
			scoutServerName: {
				Command:      b.opts.ScoutCommand,
				Args:         b.opts.ScoutArgs,
				Env:          env,
				AllowedTools: b.opts.ScoutAllowedTools,
			},
		}
	}
	return cfg
}
