package relay

import (
	"strings"
	"sync"
)

// Effort is a reasoning-effort level. Higher levels buy the primary
// agent a larger extended-thinking budget.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
	EffortXHigh  Effort = "xhigh"
)

// effortRank orders levels for clamping.
var effortRank = map[Effort]int{
	EffortLow:    0,
	EffortMedium: 1,
	EffortHigh:   2,
	EffortXHigh:  3,
}

// thinkingBudgets maps each level to an extended-thinking token
// budget. Low disables extended thinking entirely.
var thinkingBudgets = map[Effort]int64{
	EffortLow:    0,
	EffortMedium: 8192,
	EffortHigh:   16384,
	EffortXHigh:  32768,
}

// ParseEffort parses a caller-supplied effort string. The second
// return is false for values outside the closed set.
func ParseEffort(s string) (Effort, bool) {
	e := Effort(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := effortRank[e]; !ok {
		return "", false
	}
	return e, true
}

// ThinkingBudget returns the extended-thinking token budget for a level.
func (e Effort) ThinkingBudget() int64 { return thinkingBudgets[e] }

// maxEffortByFamily caps the effort each model family supports. Levels
// above the cap are clamped, not rejected.
var maxEffortByFamily = map[string]Effort{
	"claude-opus-4":   EffortXHigh,
	"claude-sonnet-4": EffortHigh,
	"claude-haiku-4":  EffortMedium,
}

// defaultMaxEffort applies to models outside the known families.
const defaultMaxEffort = EffortHigh

var effortSupport sync.Map // model -> Effort (memoized cap)

// maxEffortFor resolves and memoizes the highest supported level for a
// model ID.
func maxEffortFor(model string) Effort {
	if cached, ok := effortSupport.Load(model); ok {
		return cached.(Effort)
	}
	ceiling := defaultMaxEffort
	bestLen := -1
	for family, m := range maxEffortByFamily {
		if strings.HasPrefix(model, family) && len(family) > bestLen {
			ceiling = m
			bestLen = len(family)
		}
	}
	effortSupport.Store(model, ceiling)
	return ceiling
}

// ClampEffort lowers an effort level to the highest one the model
// supports. Supported levels pass through unchanged.
func ClampEffort(model string, e Effort) Effort {
	if _, ok := effortRank[e]; !ok {
		e = EffortLow
	}
	if ceiling := maxEffortFor(model); effortRank[e] > effortRank[ceiling] {
		return ceiling
	}
	return e
}
