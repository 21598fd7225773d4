package answerer

import (
	"context"
	"testing"

	"github.com/crawlchat/crawlchat/internal/cache"
	"github.com/crawlchat/crawlchat/internal/queryplan"
)

func TestAnswerShortCircuitsWithoutLLM(t *testing.T) {
	numeric := cache.NewNumericContextCache(cache.NewMemory())
	planner := queryplan.New(numeric)
	a := New(nil, planner) // nil LLMClient: a real call would panic, proving the shortcut skips it

	plan := queryplan.Plan{ShortCircuit: "the answer is 42"}

	got, err := a.Answer(context.Background(), "sess-1", plan, nil, nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "the answer is 42" {
		t.Errorf("got %q", got)
	}
}
