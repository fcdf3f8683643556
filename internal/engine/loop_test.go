package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymind/relay/permission"
	"github.com/relaymind/relay/toolkit"
)

type scriptedTool struct {
	id    string
	name  string
	input string
}

type scriptedTurn struct {
	text       string
	tools      []scriptedTool
	stopReason string
}

func turnEvents(t scriptedTurn) []ssestream.Event {
	ev := func(typ, data string) ssestream.Event {
		return ssestream.Event{Type: typ, Data: json.RawMessage(data)}
	}
	events := []ssestream.Event{
		ev("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"test-model","content":[],"stop_reason":null,"usage":{"input_tokens":10,"output_tokens":0}}}`),
	}
	idx := 0
	if t.text != "" {
		events = append(events,
			ev("content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"text","text":""}}`, idx)),
			ev("content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"text_delta","text":%q}}`, idx, t.text)),
			ev("content_block_stop", fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, idx)),
		)
		idx++
	}
	for _, tu := range t.tools {
		partial, _ := json.Marshal(tu.input)
		events = append(events,
			ev("content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"tool_use","id":%q,"name":%q,"input":{}}}`, idx, tu.id, tu.name)),
			ev("content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"input_json_delta","partial_json":%s}}`, idx, partial)),
			ev("content_block_stop", fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, idx)),
		)
		idx++
	}
	stop := t.stopReason
	if stop == "" {
		stop = "end_turn"
	}
	events = append(events,
		ev("message_delta", fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":%q,"stop_sequence":null},"usage":{"output_tokens":7}}`, stop)),
		ev("message_stop", `{"type":"message_stop"}`),
	)
	return events
}

type fakeDecoder struct {
	events []ssestream.Event
	pos    int
}

func (d *fakeDecoder) Event() ssestream.Event { return d.events[d.pos-1] }

func (d *fakeDecoder) Next() bool {
	if d.pos >= len(d.events) {
		return false
	}
	d.pos++
	return true
}

func (d *fakeDecoder) Close() error { return nil }
func (d *fakeDecoder) Err() error   { return nil }

type scriptedStreamer struct {
	turns  []scriptedTurn
	params []anthropic.MessageNewParams
}

func (s *scriptedStreamer) Stream(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	s.params = append(s.params, params)
	if len(s.turns) == 0 {
		return ssestream.NewStream[anthropic.MessageStreamEventUnion](&fakeDecoder{}, nil)
	}
	turn := s.turns[0]
	s.turns = s.turns[1:]
	return ssestream.NewStream[anthropic.MessageStreamEventUnion](&fakeDecoder{events: turnEvents(turn)}, nil)
}

type recordingExecutor struct {
	calls   []string
	inputs  []string
	result  *toolkit.Result
	err     error
	missing map[string]bool
}

func (e *recordingExecutor) Execute(ctx context.Context, name string, input json.RawMessage) (*toolkit.Result, error) {
	e.calls = append(e.calls, name)
	e.inputs = append(e.inputs, string(input))
	return e.result, e.err
}

func (e *recordingExecutor) Has(name string) bool { return !e.missing[name] }

func (e *recordingExecutor) ListForAPI() []anthropic.ToolUnionParam { return nil }

type verdictChecker struct {
	verdict permission.Verdict
	asked   []string
}

func (c *verdictChecker) Check(ctx context.Context, toolName string, input json.RawMessage) permission.Verdict {
	c.asked = append(c.asked, toolName)
	return c.verdict
}

func baseConfig(streamer *scriptedStreamer, exec ToolExecutor, msgs *[]anthropic.MessageParam) Config {
	return Config{
		Streamer:  streamer,
		Tools:     exec,
		Model:     "test-model",
		MaxTokens: 4096,
		Messages:  msgs,
	}
}

func TestRunLoop_TextOnlyTurn(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{{text: "hello there"}}}
	exec := &recordingExecutor{}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("hi"))}

	out, err := RunLoop(context.Background(), baseConfig(streamer, exec, &msgs))
	require.NoError(t, err)
	assert.Equal(t, SubtypeSuccess, out.Subtype)
	assert.Equal(t, "hello there", out.Text)
	assert.Equal(t, 1, out.NumTurns)
	assert.Empty(t, exec.calls)
	require.Len(t, msgs, 2)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, int64(10), out.Usage.InputTokens)
	assert.Equal(t, int64(7), out.Usage.OutputTokens)
}

func TestRunLoop_ToolUseThenFinal(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{
		{
			text:       "reading the file",
			tools:      []scriptedTool{{id: "tu_1", name: "Read", input: `{"file_path":"/tmp/x"}`}},
			stopReason: "tool_use",
		},
		{text: "done"},
	}}
	exec := &recordingExecutor{result: toolkit.TextResult("file contents")}
	checker := &verdictChecker{verdict: permission.Verdict{Allowed: true}}
	var seen []string
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("read it"))}

	cfg := baseConfig(streamer, exec, &msgs)
	cfg.Permission = checker
	cfg.Sink = Sink{OnToolUse: func(name string) { seen = append(seen, name) }}

	out, err := RunLoop(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, SubtypeSuccess, out.Subtype)
	assert.Equal(t, "done", out.Text)
	assert.Equal(t, 2, out.NumTurns)

	require.Equal(t, []string{"Read"}, exec.calls)
	assert.JSONEq(t, `{"file_path":"/tmp/x"}`, exec.inputs[0])
	assert.Equal(t, []string{"Read"}, checker.asked)
	assert.Equal(t, []string{"Read"}, seen)

	// user prompt, assistant tool_use, tool_result, final assistant
	require.Len(t, msgs, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)

	tr := msgs[2].Content[0].OfToolResult
	require.NotNil(t, tr)
	require.Len(t, tr.Content, 1)
	assert.Equal(t, "file contents", tr.Content[0].OfText.Text)
}

func TestRunLoop_PermissionDenied(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{
		{
			tools:      []scriptedTool{{id: "tu_1", name: "Write", input: `{"file_path":"/tmp/x","content":"y"}`}},
			stopReason: "tool_use",
		},
		{text: "could not write"},
	}}
	exec := &recordingExecutor{}
	checker := &verdictChecker{verdict: permission.Verdict{Allowed: false, Reason: "write access disabled"}}
	var seen []string
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("write it"))}

	cfg := baseConfig(streamer, exec, &msgs)
	cfg.Permission = checker
	cfg.Sink = Sink{OnToolUse: func(name string) { seen = append(seen, name) }}

	out, err := RunLoop(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "could not write", out.Text)
	assert.Empty(t, exec.calls, "denied tool must not execute")
	assert.Empty(t, seen, "denied tool must not be reported as used")
}

func TestRunLoop_UnknownTool(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{
		{
			tools:      []scriptedTool{{id: "tu_1", name: "Nope", input: `{}`}},
			stopReason: "tool_use",
		},
		{text: "recovered"},
	}}
	exec := &recordingExecutor{missing: map[string]bool{"Nope": true}}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("go"))}

	out, err := RunLoop(context.Background(), baseConfig(streamer, exec, &msgs))
	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Text)
	assert.Empty(t, exec.calls)
}

func TestRunLoop_ToolError(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{
		{
			tools:      []scriptedTool{{id: "tu_1", name: "Read", input: `{"file_path":"/nope"}`}},
			stopReason: "tool_use",
		},
		{text: "gave up"},
	}}
	exec := &recordingExecutor{err: fmt.Errorf("boom")}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("go"))}

	out, err := RunLoop(context.Background(), baseConfig(streamer, exec, &msgs))
	require.NoError(t, err, "a failing tool feeds an error result back, it does not end the loop")
	assert.Equal(t, "gave up", out.Text)
}

func TestRunLoop_MaxTurns(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{
		{
			tools:      []scriptedTool{{id: "tu_1", name: "Read", input: `{"file_path":"/a"}`}},
			stopReason: "tool_use",
		},
		{
			tools:      []scriptedTool{{id: "tu_2", name: "Read", input: `{"file_path":"/b"}`}},
			stopReason: "tool_use",
		},
	}}
	exec := &recordingExecutor{result: toolkit.TextResult("ok")}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("go"))}

	cfg := baseConfig(streamer, exec, &msgs)
	cfg.MaxTurns = 2

	out, err := RunLoop(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, SubtypeMaxTurns, out.Subtype)
	assert.Equal(t, 2, out.NumTurns)
}

func TestRunLoop_MaxTokensStop(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{
		{text: "truncat", stopReason: "max_tokens"},
	}}
	exec := &recordingExecutor{}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("go"))}

	out, err := RunLoop(context.Background(), baseConfig(streamer, exec, &msgs))
	require.NoError(t, err)
	assert.Equal(t, SubtypeMaxTokens, out.Subtype)
	assert.Equal(t, "truncat", out.Text)
}

func TestRunLoop_ThinkingBudgetRaisesMaxTokens(t *testing.T) {
	streamer := &scriptedStreamer{turns: []scriptedTurn{{text: "ok"}}}
	exec := &recordingExecutor{}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("go"))}

	cfg := baseConfig(streamer, exec, &msgs)
	cfg.ThinkingBudget = 16384

	_, err := RunLoop(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, streamer.params, 1)
	assert.Equal(t, int64(16384+thinkingHeadroom), streamer.params[0].MaxTokens)
	assert.True(t, streamer.params[0].Thinking.OfEnabled != nil)
}

func TestRunLoop_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	streamer := &scriptedStreamer{turns: []scriptedTurn{{text: "never"}}}
	exec := &recordingExecutor{}
	msgs := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("go"))}

	_, err := RunLoop(ctx, baseConfig(streamer, exec, &msgs))
	require.ErrorIs(t, err, context.Canceled)
}
