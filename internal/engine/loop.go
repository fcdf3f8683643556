// Package engine implements the model conversation loop: it streams
// assistant turns, executes requested tools, and feeds results back
// until the model ends its turn or a limit is reached.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/relaymind/relay/permission"
	"github.com/relaymind/relay/toolkit"
)

// thinkingHeadroom is the minimum gap the API requires between the
// thinking budget and max_tokens.
const thinkingHeadroom = 16384

// Stop subtypes reported in Outcome.
const (
	SubtypeSuccess   = "success"
	SubtypeMaxTurns  = "max_turns"
	SubtypeMaxTokens = "max_tokens"
)

// MessageStreamer abstracts the messages endpoint so tests can script
// assistant turns without a network.
type MessageStreamer interface {
	Stream(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// ToolExecutor runs tools by name and describes them for the API.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (*toolkit.Result, error)
	Has(name string) bool
	ListForAPI() []anthropic.ToolUnionParam
}

// PermissionChecker decides whether a requested tool use may run.
type PermissionChecker interface {
	Check(ctx context.Context, toolName string, input json.RawMessage) permission.Verdict
}

// Sink receives loop events. All methods are optional.
type Sink struct {
	// OnToolUse fires when a permitted tool execution begins.
	OnToolUse func(toolName string)
}

func (s Sink) toolUse(name string) {
	if s.OnToolUse != nil {
		s.OnToolUse(name)
	}
}

// Usage aggregates token counts across every turn of a loop run.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u *Usage) add(mu anthropic.Usage) {
	u.InputTokens += mu.InputTokens
	u.OutputTokens += mu.OutputTokens
	u.CacheCreationInputTokens += mu.CacheCreationInputTokens
	u.CacheReadInputTokens += mu.CacheReadInputTokens
}

// Outcome is the terminal state of a loop run.
type Outcome struct {
	Subtype  string
	Text     string // text of the final assistant message
	NumTurns int
	Usage    Usage
}

// Config carries everything one RunLoop call needs.
type Config struct {
	Streamer       MessageStreamer
	Tools          ToolExecutor
	Permission     PermissionChecker
	Sink           Sink
	Model          string
	MaxTokens      int64
	MaxTurns       int
	ThinkingBudget int64
	System         []anthropic.TextBlockParam

	// Messages is the shared conversation history. RunLoop appends
	// every assistant and tool-result message it produces.
	Messages *[]anthropic.MessageParam
}

// RunLoop drives the conversation until the model stops requesting
// tools, a limit trips, or ctx is done. The caller appends the user
// prompt to cfg.Messages before calling.
func RunLoop(ctx context.Context, cfg Config) (*Outcome, error) {
	if cfg.Streamer == nil {
		return nil, fmt.Errorf("engine: nil streamer")
	}
	if cfg.Messages == nil {
		return nil, fmt.Errorf("engine: nil message history")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	if cfg.ThinkingBudget > 0 && maxTokens < cfg.ThinkingBudget+thinkingHeadroom {
		maxTokens = cfg.ThinkingBudget + thinkingHeadroom
	}

	out := &Outcome{Subtype: SubtypeSuccess}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.MaxTurns > 0 && out.NumTurns >= cfg.MaxTurns {
			out.Subtype = SubtypeMaxTurns
			return out, nil
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(cfg.Model),
			MaxTokens: maxTokens,
			Messages:  *cfg.Messages,
		}
		if len(cfg.System) > 0 {
			params.System = cfg.System
		}
		if tools := cfg.Tools.ListForAPI(); len(tools) > 0 {
			params.Tools = tools
		}
		if cfg.ThinkingBudget > 0 {
			params.Thinking = anthropic.ThinkingConfigParamOfEnabled(cfg.ThinkingBudget)
		}

		msg, err := streamTurn(ctx, cfg.Streamer, params)
		if err != nil {
			return nil, err
		}
		out.NumTurns++
		out.Usage.add(msg.Usage)

		*cfg.Messages = append(*cfg.Messages, msg.ToParam())
		if text := textOf(msg); text != "" {
			out.Text = text
		}

		switch msg.StopReason {
		case anthropic.StopReasonMaxTokens:
			out.Subtype = SubtypeMaxTokens
			return out, nil
		case anthropic.StopReasonToolUse:
			results, err := runTools(ctx, cfg, msg)
			if err != nil {
				return nil, err
			}
			*cfg.Messages = append(*cfg.Messages, anthropic.NewUserMessage(results...))
		default:
			return out, nil
		}
	}
}

func streamTurn(ctx context.Context, streamer MessageStreamer, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	stream := streamer.Stream(ctx, params)
	defer stream.Close()

	var msg anthropic.Message
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("accumulate event: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("stream turn: %w", err)
	}
	return &msg, nil
}

// runTools executes every tool_use block in msg and returns the
// matching tool_result blocks in request order. A denied permission
// or a missing tool produces an error result, not a loop failure.
func runTools(ctx context.Context, cfg Config, msg *anthropic.Message) ([]anthropic.ContentBlockParamUnion, error) {
	var results []anthropic.ContentBlockParamUnion
	for _, block := range msg.Content {
		tu, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, runOne(ctx, cfg, tu))
	}
	return results, nil
}

func runOne(ctx context.Context, cfg Config, tu anthropic.ToolUseBlock) anthropic.ContentBlockParamUnion {
	input := json.RawMessage(tu.Input)

	if !cfg.Tools.Has(tu.Name) {
		return anthropic.NewToolResultBlock(tu.ID, fmt.Sprintf("unknown tool: %s", tu.Name), true)
	}
	if cfg.Permission != nil {
		v := cfg.Permission.Check(ctx, tu.Name, input)
		if !v.Allowed {
			reason := v.Reason
			if reason == "" {
				reason = "permission denied"
			}
			return anthropic.NewToolResultBlock(tu.ID, reason, true)
		}
	}

	cfg.Sink.toolUse(tu.Name)

	res, err := cfg.Tools.Execute(ctx, tu.Name, input)
	if err != nil {
		return anthropic.NewToolResultBlock(tu.ID, fmt.Sprintf("tool %s failed: %v", tu.Name, err), true)
	}
	if res == nil {
		return anthropic.NewToolResultBlock(tu.ID, "", false)
	}
	return anthropic.NewToolResultBlock(tu.ID, res.Text(), res.IsError)
}

func textOf(msg *anthropic.Message) string {
	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += tb.Text
		}
	}
	return text
}
