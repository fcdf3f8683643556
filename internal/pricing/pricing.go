// Package pricing computes the USD cost of model token usage so that
// session results can report what a bridged request actually cost.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rates holds per-model token prices in USD per million tokens.
type Rates struct {
	InputPerMTok      decimal.Decimal
	OutputPerMTok     decimal.Decimal
	CacheWritePerMTok decimal.Decimal
	CacheReadPerMTok  decimal.Decimal
}

var million = decimal.NewFromInt(1_000_000)

// ratesByFamily maps model-ID prefixes to rates. Lookup takes the
// longest matching prefix, so dated IDs like claude-haiku-4-5-20251001
// resolve to their family entry.
var ratesByFamily = map[string]Rates{
	"claude-opus-4": {
		InputPerMTok:      decimal.NewFromFloat(5),
		OutputPerMTok:     decimal.NewFromFloat(25),
		CacheWritePerMTok: decimal.NewFromFloat(6.25),
		CacheReadPerMTok:  decimal.NewFromFloat(0.5),
	},
	"claude-sonnet-4": {
		InputPerMTok:      decimal.NewFromFloat(3),
		OutputPerMTok:     decimal.NewFromFloat(15),
		CacheWritePerMTok: decimal.NewFromFloat(3.75),
		CacheReadPerMTok:  decimal.NewFromFloat(0.3),
	},
	"claude-haiku-4": {
		InputPerMTok:      decimal.NewFromFloat(1),
		OutputPerMTok:     decimal.NewFromFloat(5),
		CacheWritePerMTok: decimal.NewFromFloat(1.25),
		CacheReadPerMTok:  decimal.NewFromFloat(0.1),
	},
}

// Lookup returns the rates for a model ID. The second return is false
// when the model belongs to no known family.
func Lookup(model string) (Rates, bool) {
	var (
		best    Rates
		bestLen = -1
	)
	for prefix, rates := range ratesByFamily {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best = rates
			bestLen = len(prefix)
		}
	}
	return best, bestLen >= 0
}

// Cost returns the USD cost of one API call. Unknown models cost zero
// rather than failing, since cost reporting is advisory.
func Cost(model string, inputTokens, outputTokens, cacheReadTokens, cacheWriteTokens int64) decimal.Decimal {
	rates, ok := Lookup(model)
	if !ok {
		return decimal.Zero
	}
	cost := decimal.NewFromInt(inputTokens).Mul(rates.InputPerMTok).Div(million)
	cost = cost.Add(decimal.NewFromInt(outputTokens).Mul(rates.OutputPerMTok).Div(million))
	cost = cost.Add(decimal.NewFromInt(cacheReadTokens).Mul(rates.CacheReadPerMTok).Div(million))
	cost = cost.Add(decimal.NewFromInt(cacheWriteTokens).Mul(rates.CacheWritePerMTok).Div(million))
	return cost
}
