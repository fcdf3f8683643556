// Package permission decides whether a privileged action requested by the
// primary agent may proceed. The evaluator is a pure function over a closed
// kind set so it can be tested exhaustively, independent of session plumbing.
package permission

import "strings"

// ActionKind classifies a privileged-action request by what it can touch.
type ActionKind int

const (
	// KindDelegation is a call into an allowlisted sub-tool server.
	KindDelegation ActionKind = iota
	// KindRead is a local read (file read, glob, grep).
	KindRead
	// KindFetch is a network fetch of a URL.
	KindFetch
	// KindExecute is arbitrary shell execution.
	KindExecute
	// KindWrite is a durable local mutation (file write or edit).
	KindWrite
)

// String returns the kind's wire label.
func (k ActionKind) String() string {
	switch k {
	case KindDelegation:
		return "delegation"
	case KindRead:
		return "read"
	case KindFetch:
		return "fetch"
	case KindExecute:
		return "execute"
	case KindWrite:
		return "write"
	}
	return "unknown"
}

// Verdict is the outcome of evaluating a single privileged-action request.
type Verdict struct {
	Allowed bool
	Reason  string // set only on denial
}

// DeniedReadOnly is the reason attached to every write-class denial.
const DeniedReadOnly = "write access disabled — only read operations permitted"

// readKinds maps tool names exposed to the primary agent onto read-class kinds.
// AskUserQuestion only gathers input from the session's responder and mutates
// nothing, so it rides the read class even with write access disabled.
var readKinds = map[string]ActionKind{
	"Read":            KindRead,
	"Glob":            KindRead,
	"Grep":            KindRead,
	"AskUserQuestion": KindRead,
}

// writeKinds maps tool names onto mutation-class kinds.
var writeKinds = map[string]ActionKind{
	"Write": KindWrite,
	"Edit":  KindWrite,
	"Bash":  KindExecute,
}

// Classify maps a tool name onto its ActionKind. Sub-tool invocations carry
// the mcp__ prefix. A name not in any known set classifies as KindWrite so
// that evaluation fails closed rather than silently approving.
func Classify(toolName string) ActionKind {
	if strings.HasPrefix(toolName, "mcp__") {
		return KindDelegation
	}
	if k, ok := readKinds[toolName]; ok {
		return k
	}
	if toolName == "WebFetch" {
		return KindFetch
	}
	if k, ok := writeKinds[toolName]; ok {
		return k
	}
	return KindWrite
}

// Evaluate decides a privileged-action request. Delegation, read, and fetch
// kinds cannot mutate durable state and are always allowed. Execute and write
// kinds require the request's write-access flag.
func Evaluate(kind ActionKind, writeAccess bool) Verdict {
	switch kind {
	case KindDelegation, KindRead, KindFetch:
		return Verdict{Allowed: true}
	case KindExecute, KindWrite:
		if writeAccess {
			return Verdict{Allowed: true}
		}
		return Verdict{Allowed: false, Reason: DeniedReadOnly}
	}
	return Verdict{Allowed: false, Reason: DeniedReadOnly}
}
