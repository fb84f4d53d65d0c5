// Package intent implements cheap keyword-based task classification.
//
// Classification only biases provider choice downstream; it never rejects
// input. A prompt that matches nothing is simply "general".
package intent

import (
	"strings"

	"github.com/llm-router/router/pkg/types"
)

// categoryOrder fixes both the scan order and the tie-break: when two
// categories score equally, the one listed first wins.
var categoryOrder = []types.IntentType{
	types.IntentTable,
	types.IntentResearch,
	types.IntentCode,
	types.IntentDocument,
	types.IntentSummary,
	types.IntentStatistics,
}

// keywords maps each category to its fixed keyword set. Matching is
// case-insensitive substring containment.
var keywords = map[types.IntentType][]string{
	types.IntentTable: {
		"table", "spreadsheet", "rows", "columns", "csv", "grid",
	},
	types.IntentResearch: {
		"research", "investigate", "sources", "study", "compare", "explore",
	},
	types.IntentCode: {
		"code", "function", "script", "debug", "implement", "api", "refactor",
	},
	types.IntentDocument: {
		"document", "report", "letter", "essay", "draft", "proposal",
	},
	types.IntentSummary: {
		"summarize", "summary", "tldr", "shorten", "condense", "brief",
	},
	types.IntentStatistics: {
		"statistics", "average", "median", "percentage", "trend", "chart",
	},
}

// preferredProviders is the static category-to-provider mapping. General has
// no entry, so weighted selection runs unbiased for it.
var preferredProviders = map[types.IntentType]types.ProviderID{
	types.IntentTable:      types.ProviderClaude,
	types.IntentResearch:   types.ProviderGemini,
	types.IntentCode:       types.ProviderOpenAI,
	types.IntentDocument:   types.ProviderClaude,
	types.IntentSummary:    types.ProviderMistral,
	types.IntentStatistics: types.ProviderOpenAI,
}

// Classifier maps free-text prompts to a coarse intent.
type Classifier struct{}

// NewClassifier creates a classifier. It is stateless and safe for
// concurrent use.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify scores the prompt against each category's keyword set and picks
// the highest scorer. Confidence is maxScore/5 and is deliberately not
// clamped to [0,1]; prompts matching more than five keywords of one
// category report confidence above 1.0.
func (c *Classifier) Classify(promptText string) types.Intent {
	lowered := strings.ToLower(promptText)

	best := types.IntentGeneral
	maxScore := 0

	for _, category := range categoryOrder {
		score := 0
		for _, kw := range keywords[category] {
			if strings.Contains(lowered, kw) {
				score++
			}
		}
		// Strict greater-than keeps the earlier category on ties.
		if score > maxScore {
			maxScore = score
			best = category
		}
	}

	intent := types.Intent{
		Type:       best,
		Confidence: float64(maxScore) / 5.0,
	}
	if preferred, ok := preferredProviders[best]; ok {
		intent.PreferredProvider = preferred
	}

	return intent
}
