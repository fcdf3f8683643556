package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/log"

	"github.com/relaymind/relay/internal/engine"
	"github.com/relaymind/relay/internal/pricing"
	"github.com/relaymind/relay/mcp"
	"github.com/relaymind/relay/permission"
	"github.com/relaymind/relay/runtime"
	"github.com/relaymind/relay/toolkit"
	"github.com/relaymind/relay/tools"
)

const (
	defaultMaxTurns  = 50
	defaultMaxTokens = 8192

	askUserToolName = "AskUserQuestion"
)

var errSessionDestroyed = errors.New("session destroyed")

type session struct {
	streamer engine.MessageStreamer
	cfg      runtime.SessionConfig
	registry *toolkit.Registry
	managers []*mcp.Manager
	logger   *log.Logger

	mu        sync.Mutex
	messages  []anthropic.MessageParam
	destroyed bool
}

func newSession(ctx context.Context, streamer engine.MessageStreamer, logger *log.Logger, cfg runtime.SessionConfig) (*session, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("session config: model is required")
	}
	if cfg.CanUseTool == nil {
		return nil, fmt.Errorf("session config: permission callback is required")
	}

	registry := toolkit.NewRegistry()
	tools.Register(registry, cfg.ExcludedTools)
	if cfg.OnAskUser != nil {
		registerAskUser(registry, cfg.OnAskUser)
	}

	s := &session{
		streamer: streamer,
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}

	// A server that cannot be reached fails session creation outright;
	// a session with silently missing sub-tools would delegate work to
	// a model that cannot do it.
	for _, name := range sortedServerNames(cfg.Servers) {
		mgr := mcp.NewManager(name, cfg.Servers[name])
		if err := mgr.Connect(ctx); err != nil {
			s.closeManagers()
			return nil, fmt.Errorf("connect sub-tool server %q: %w", name, err)
		}
		s.managers = append(s.managers, mgr)
		n, err := mgr.RegisterInto(ctx, registry)
		if err != nil {
			s.closeManagers()
			return nil, fmt.Errorf("list sub-tool server %q: %w", name, err)
		}
		logger.Debug("sub-tool server attached", "server", name, "tools", n)
	}
	return s, nil
}

func sortedServerNames(servers map[string]mcp.ServerConfig) []string {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *session) Send(ctx context.Context, prompt string) (*runtime.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, errSessionDestroyed
	}
	if s.cfg.WorkDir != "" {
		ctx = toolkit.WithWorkDir(ctx, s.cfg.WorkDir)
	}

	s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	maxTurns := s.cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	ecfg := engine.Config{
		Streamer:       s.streamer,
		Tools:          s.registry,
		Permission:     permissionFunc(s.cfg.CanUseTool),
		Sink:           engine.Sink{OnToolUse: s.cfg.OnToolUse},
		Model:          s.cfg.Model,
		MaxTokens:      defaultMaxTokens,
		MaxTurns:       maxTurns,
		ThinkingBudget: s.cfg.ThinkingBudget,
		Messages:       &s.messages,
	}
	if s.cfg.SystemAppend != "" {
		ecfg.System = []anthropic.TextBlockParam{{Text: s.cfg.SystemAppend}}
	}

	out, err := engine.RunLoop(ctx, ecfg)
	if err != nil {
		return nil, err
	}
	if out.Subtype != engine.SubtypeSuccess {
		s.logger.Warn("send stopped early", "reason", out.Subtype, "turns", out.NumTurns)
	}

	usage := runtime.Usage{
		InputTokens:              out.Usage.InputTokens,
		OutputTokens:             out.Usage.OutputTokens,
		CacheReadInputTokens:     out.Usage.CacheReadInputTokens,
		CacheCreationInputTokens: out.Usage.CacheCreationInputTokens,
	}
	return &runtime.Reply{
		Text:     out.Text,
		NumTurns: out.NumTurns,
		Usage:    usage,
		CostUSD: pricing.Cost(s.cfg.Model,
			usage.InputTokens, usage.OutputTokens,
			usage.CacheReadInputTokens, usage.CacheCreationInputTokens),
	}, nil
}

func (s *session) History() []runtime.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]runtime.Message, 0, len(s.messages))
	for _, m := range s.messages {
		history = append(history, runtime.Message{
			Role: string(m.Role),
			Text: textOfParam(m),
		})
	}
	return history
}

func (s *session) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	s.destroyed = true
	return s.closeManagers()
}

func (s *session) closeManagers() error {
	var errs []error
	for _, mgr := range s.managers {
		if err := mgr.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sub-tool server %q: %w", mgr.Name(), err))
		}
	}
	s.managers = nil
	return errors.Join(errs...)
}

// permissionFunc adapts the session callback to the engine's checker seam.
type permissionFunc runtime.PermissionFunc

func (f permissionFunc) Check(ctx context.Context, toolName string, input json.RawMessage) permission.Verdict {
	return f(ctx, toolName, input)
}

type askUserInput struct {
	Question string `json:"question"`
}

func registerAskUser(registry *toolkit.Registry, answer runtime.AskUserFunc) {
	schema := anthropic.ToolInputSchemaParam{
		Properties: map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question to put to the user",
			},
		},
		Required: []string{"question"},
	}
	registry.RegisterRaw(askUserToolName,
		"Ask the user a clarifying question and wait for their answer.",
		schema,
		func(ctx context.Context, raw json.RawMessage) (*toolkit.Result, error) {
			var in askUserInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return toolkit.ErrorResult(fmt.Sprintf("invalid input: %s", err)), nil
			}
			if strings.TrimSpace(in.Question) == "" {
				return toolkit.ErrorResult("question must not be empty"), nil
			}
			return toolkit.TextResult(answer(ctx, in.Question)), nil
		})
}

func textOfParam(m anthropic.MessageParam) string {
	var parts []string
	for _, block := range m.Content {
		if block.OfText != nil {
			parts = append(parts, block.OfText.Text)
		}
	}
	return strings.Join(parts, "\n")
}
