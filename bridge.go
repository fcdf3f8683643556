package relay

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/relaymind/relay/runtime"
)

// destroyGrace bounds session cleanup after the request context is
// already dead.
const destroyGrace = 10 * time.Second

// Bridge drives one request end to end: ensure the runtime is up,
// build an isolated session, send, extract, clean up.
type Bridge struct {
	handle *runtime.Handle
	opts   Options
	logger *log.Logger
}

// NewBridge builds a Bridge over the shared runtime handle.
func NewBridge(handle *runtime.Handle, opts Options, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{handle: handle, opts: opts.withDefaults(), logger: logger}
}

// Run bridges a single request. All downstream failures come back as
// *BridgeError; the session, once created, is destroyed on every exit
// path.
func (b *Bridge) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, bridgeErr("validate", ErrValidation, err)
	}

	reqID := generateID("req")
	logger := b.logger.With("request", reqID)
	logger.Info("bridging request",
		"write_access", req.WriteAccess,
		"has_context", req.Context != "")

	client, err := b.handle.EnsureStarted(ctx)
	if err != nil {
		return nil, bridgeErr("start", ErrRuntimeStart, err)
	}

	tlog := &toolLog{}
	sess, err := client.NewSession(ctx, b.sessionConfig(req, tlog))
	if err != nil {
		return nil, bridgeErr("create-session", ErrSessionCreation, err)
	}
	defer func() {
		// Background context: cleanup must run even after the request
		// context expired.
		dctx, cancel := context.WithTimeout(context.Background(), destroyGrace)
		defer cancel()
		if derr := sess.Destroy(dctx); derr != nil {
			logger.Warn("session destroy failed", "error", derr)
		}
	}()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = b.opts.DefaultTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := sess.Send(sctx, req.EffectivePrompt())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, bridgeErr("send", ErrTimeout, err)
		}
		return nil, &BridgeError{Stage: "send", Err: err}
	}

	text := reply.Text
	if text == "" {
		text = newestAssistantText(sess.History())
	}
	if text == "" {
		text = noResponseText
	}

	labels := tlog.distinct()
	result := &Result{
		Text:      annotate(text, labels),
		ToolsUsed: labels,
		NumTurns:  reply.NumTurns,
		Usage:     reply.Usage,
		CostUSD:   reply.CostUSD,
	}
	logger.Info("request bridged",
		"turns", result.NumTurns,
		"tools", len(labels),
		"cost_usd", result.CostUSD.StringFixed(4))
	return result, nil
}

// newestAssistantText scans history from the end for the latest
// assistant message with content.
func newestAssistantText(history []runtime.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" && history[i].Text != "" {
			return history[i].Text
		}
	}
	return ""
}
