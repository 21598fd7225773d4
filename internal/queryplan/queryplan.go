// Package queryplan classifies an incoming chat question and prepares the
// retrieval/prompt plan the retriever and answerer execute against.
package queryplan

import (
	"context"

	"github.com/crawlchat/crawlchat/internal/cache"
	"github.com/crawlchat/crawlchat/internal/model"
)

// Plan is the result of planning one user turn.
type Plan struct {
	Category        model.QueryCategory
	SystemPrompt    string
	Query           string // possibly rewritten/follow-up-prefixed
	IsFollowUp      bool
	ScoreThreshold  float64
	ShortCircuit    string // non-empty when the calculation shortcut already has the answer
}

// Planner ties classification, rewriting, and the NumericContextCache
// calculation shortcut together.
type Planner struct {
	numeric *cache.NumericContextCache
}

func New(numeric *cache.NumericContextCache) *Planner {
	return &Planner{numeric: numeric}
}

// Plan classifies query, rewrites it if it's a generic or follow-up
// question, and checks the calculation shortcut before any retrieval or LLM
// call happens.
func (p *Planner) Plan(ctx context.Context, sessionID, query string, previousUserMessage string, sessionFilenames []string) Plan {
	category := Classify(query)

	rewritten := RewriteGeneric(query, sessionFilenames)
	isFollowUp := IsFollowUp(query)
	if isFollowUp {
		rewritten = PrefixWithPrevious(rewritten, previousUserMessage)
	}

	threshold := 0.2
	if isCalculationLike(category) {
		threshold = 0.5
	}

	plan := Plan{
		Category:       category,
		SystemPrompt:   SystemPrompt(category),
		Query:          rewritten,
		IsFollowUp:     isFollowUp,
		ScoreThreshold: threshold,
	}

	if answer, ok := CalculationShortcut(ctx, p.numeric, sessionID, category, query); ok {
		plan.ShortCircuit = answer
	}

	return plan
}

// RecordResponse runs post-hoc numeric extraction over an LLM reply so
// future turns in this session can use the calculation shortcut.
func (p *Planner) RecordResponse(ctx context.Context, sessionID, query, response string) error {
	return ExtractNumericFigures(ctx, p.numeric, sessionID, query, response)
}
