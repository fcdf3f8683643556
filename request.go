package relay

import (
	"errors"
	"strings"
	"time"
)

// promptSeparator divides the task prompt from its supporting context
// in the effective prompt.
const promptSeparator = "\n\n---\n\n"

// Request is one bridged task. Fields left zero fall back to the
// bridge's configured defaults. A Request is scoped to a single Run
// call and never mutated by the bridge.
type Request struct {
	// Prompt is the task text. Required.
	Prompt string

	// Context is optional supporting material appended to the prompt.
	Context string

	// Model overrides the primary agent model.
	Model string

	// Effort overrides the reasoning-effort level. Clamped to the
	// model's supported range, never rejected.
	Effort Effort

	// ScoutModel overrides the secondary agent model.
	ScoutModel string

	// Timeout bounds the send-and-await phase. Zero means the default.
	Timeout time.Duration

	// WriteAccess permits shell-execute and file-write actions.
	WriteAccess bool
}

// Validate reports whether the request can be bridged at all. It runs
// before any resource is acquired.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt must not be empty")
	}
	if r.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// EffectivePrompt is the text actually sent to the primary agent.
func (r Request) EffectivePrompt() string {
	if strings.TrimSpace(r.Context) == "" {
		return r.Prompt
	}
	return r.Prompt + promptSeparator + r.Context
}
