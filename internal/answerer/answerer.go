package answerer

import (
	"context"
	"strings"

	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/queryplan"
	"github.com/crawlchat/crawlchat/internal/retriever"
)

// Answerer produces the assistant's reply for one chat turn: a
// calculation-shortcut answer skips the LLM entirely; otherwise a prompt is
// assembled from retrieved passages and conversation history and sent to
// the configured LLM provider.
type Answerer struct {
	llm     *LLMClient
	planner *queryplan.Planner
}

func New(llm *LLMClient, planner *queryplan.Planner) *Answerer {
	return &Answerer{llm: llm, planner: planner}
}

// Answer runs one turn. sessionID is used to record numeric figures scraped
// from the reply for future calculation follow-ups.
func (a *Answerer) Answer(ctx context.Context, sessionID string, plan queryplan.Plan, passages []retriever.Passage, history []model.Message) (string, error) {
	if plan.ShortCircuit != "" {
		return plan.ShortCircuit, nil
	}

	prompt := BuildPrompt(plan, passages, history, plan.Query)

	reply, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)

	if err := a.planner.RecordResponse(ctx, sessionID, plan.Query, reply); err != nil {
		return reply, err
	}
	return reply, nil
}
