// Package claude is the production runtime.Client backed by the
// Anthropic API. A session owns its own tool registry and sub-tool
// connections; prompts run through the conversation loop in
// internal/engine.
package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/charmbracelet/log"

	"github.com/relaymind/relay/internal/engine"
	"github.com/relaymind/relay/runtime"
)

// Client connects sessions to the Anthropic messages API.
type Client struct {
	streamer engine.MessageStreamer
	logger   *log.Logger
}

// Start builds a Client and verifies the API is reachable with the
// ambient credentials. A failure here is retryable; the runtime handle
// calls Start again on the next request.
func Start(ctx context.Context, logger *log.Logger) (runtime.Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	api := anthropic.NewClient()
	if _, err := api.Models.List(ctx, anthropic.ModelListParams{Limit: anthropic.Int(1)}); err != nil {
		return nil, fmt.Errorf("reach anthropic api: %w", err)
	}
	return &Client{
		streamer: messagesStreamer{svc: api.Messages},
		logger:   logger,
	}, nil
}

// NewSession builds one isolated session: local tools minus the
// exclusions, the ask-user surface, and a bridged connection per
// declared sub-tool server.
func (c *Client) NewSession(ctx context.Context, cfg runtime.SessionConfig) (runtime.Session, error) {
	s, err := newSession(ctx, c.streamer, c.logger, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the client. The API connection is stateless, so there
// is nothing to tear down; per-session resources are released by
// Session.Destroy.
func (c *Client) Close(ctx context.Context) error { return nil }

// messagesStreamer adapts the SDK messages service to the engine's
// streamer seam.
type messagesStreamer struct {
	svc anthropic.MessageService
}

func (m messagesStreamer) Stream(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	return m.svc.NewStreaming(ctx, params)
}
