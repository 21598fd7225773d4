package answerer

import (
	"strings"
	"testing"

	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/queryplan"
	"github.com/crawlchat/crawlchat/internal/retriever"
)

func TestBuildPromptIncludesSections(t *testing.T) {
	plan := queryplan.Plan{SystemPrompt: "Answer precisely.", Query: "what is the revenue"}
	passages := []retriever.Passage{
		{Filename: "report.pdf", Content: "Revenue was $1M.", Score: 0.9},
	}
	history := []model.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}

	prompt := BuildPrompt(plan, passages, history, "what is the revenue")

	for _, want := range []string{
		"Answer precisely.",
		"Document content to analyze:",
		"From report.pdf:",
		"Revenue was $1M.",
		"Recent conversation context:",
		"hello",
		"what is the revenue",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestLastN(t *testing.T) {
	messages := make([]model.Message, 8)
	for i := range messages {
		messages[i] = model.Message{Content: string(rune('a' + i))}
	}
	got := lastN(messages, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	if got[0].Content != "d" {
		t.Errorf("expected tail slice to start at 'd', got %q", got[0].Content)
	}
}
