package mcpserver

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/relaymind/relay"
	"github.com/relaymind/relay/internal/config"
)

func (s *Server) handleDelegate(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	logger := s.logger.With("request_id", uuid.NewString())
	args := req.GetArguments()

	prompt := argString(args, "prompt")
	if strings.TrimSpace(prompt) == "" {
		return mcplib.NewToolResultError("prompt is required"), nil
	}

	bridgeReq := relay.Request{
		Prompt:      prompt,
		Context:     argString(args, "context"),
		Model:       argString(args, "model"),
		Effort:      s.parseEffort(args, logger),
		ScoutModel:  s.parseScoutModel(args, logger),
		Timeout:     s.parseTimeout(args, logger),
		WriteAccess: s.parseWriteAccess(args),
	}

	logger.Info("delegate request",
		"write_access", bridgeReq.WriteAccess,
		"timeout", bridgeReq.Timeout)

	result, err := s.runner.Run(ctx, bridgeReq)
	if err != nil {
		// The caller gets the single descriptive message, nothing more.
		logger.Error("delegate failed", "error", err)
		return mcplib.NewToolResultError(err.Error()), nil
	}
	return mcplib.NewToolResultText(result.Text), nil
}

// parseEffort falls back to the configured default on anything outside
// the closed set.
func (s *Server) parseEffort(args map[string]any, logger *log.Logger) relay.Effort {
	raw := argString(args, "effort")
	if raw == "" {
		effort, _ := relay.ParseEffort(s.cfg.Model.Effort)
		return effort
	}
	effort, ok := relay.ParseEffort(raw)
	if !ok {
		logger.Warn("invalid effort, using default", "effort", raw, "default", s.cfg.Model.Effort)
		effort, _ = relay.ParseEffort(s.cfg.Model.Effort)
	}
	return effort
}

// parseScoutModel drops values outside the closed allowed set.
func (s *Server) parseScoutModel(args map[string]any, logger *log.Logger) string {
	raw := argString(args, "scout_model")
	if raw == "" {
		return ""
	}
	if !config.ScoutModelAllowed(raw) {
		logger.Warn("scout model not allowed, using default", "scout_model", raw)
		return ""
	}
	return raw
}

// parseTimeout accepts a positive number of milliseconds; anything
// else falls back to the configured default.
func (s *Server) parseTimeout(args map[string]any, logger *log.Logger) time.Duration {
	raw, present := args["timeout_ms"]
	if !present {
		return 0 // bridge default
	}

	var ms float64
	switch v := raw.(type) {
	case float64:
		ms = v
	case int:
		ms = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Warn("non-numeric timeout_ms, using default", "timeout_ms", v)
			return 0
		}
		ms = parsed
	default:
		logger.Warn("non-numeric timeout_ms, using default")
		return 0
	}
	if ms <= 0 {
		logger.Warn("non-positive timeout_ms, using default", "timeout_ms", ms)
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Server) parseWriteAccess(args map[string]any) bool {
	if v, ok := args["write_access"].(bool); ok {
		return v
	}
	return s.cfg.Bridge.WriteAccess
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
