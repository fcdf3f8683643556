package relay

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/relaymind/relay/runtime"
)

// noResponseText is returned when neither the completion nor the
// session history produced any assistant text.
const noResponseText = "(no response was generated)"

// toolsUsedPrefix opens the capability trailer on the result text.
const toolsUsedPrefix = "Tools used: "

// Result is the outcome of one bridged request.
type Result struct {
	// Text is the agent's answer, including the capability trailer
	// when any tools ran.
	Text string

	// ToolsUsed lists distinct capability labels in first-seen order.
	ToolsUsed []string

	NumTurns int
	Usage    runtime.Usage
	CostUSD  decimal.Decimal
}

// toolLog is the ordered, duplicate-preserving record of privileged
// tool executions during one session. Appends come from the session's
// tool-use observer; it is consumed once at result-extraction time.
type toolLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *toolLog) add(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, label)
}

// distinct returns the log's labels deduplicated, first-seen order.
func (l *toolLog) distinct() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]struct{}, len(l.entries))
	var out []string
	for _, label := range l.entries {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// annotate appends the capability trailer to text when any tools ran.
func annotate(text string, labels []string) string {
	if len(labels) == 0 {
		return text
	}
	return text + "\n\n" + toolsUsedPrefix + strings.Join(labels, ", ")
}
