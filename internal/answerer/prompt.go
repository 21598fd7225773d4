package answerer

import (
	"fmt"
	"strings"

	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/queryplan"
	"github.com/crawlchat/crawlchat/internal/retriever"
)

const recentHistoryLimit = 5

// BuildPrompt assembles the final prompt: the category's system prompt,
// the retrieved passages, the last few turns of conversation, then the
// current query.
func BuildPrompt(plan queryplan.Plan, passages []retriever.Passage, history []model.Message, query string) string {
	var b strings.Builder

	b.WriteString(plan.SystemPrompt)
	b.WriteString("\n\n")

	if len(passages) > 0 {
		b.WriteString("Document content to analyze:\n")
		for _, p := range passages {
			fmt.Fprintf(&b, "From %s:\n%s\n\n", p.Filename, p.Content)
		}
	}

	if len(history) > 0 {
		b.WriteString("Recent conversation context:\n")
		for _, msg := range lastN(history, recentHistoryLimit) {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString(query)
	return b.String()
}

func lastN(messages []model.Message, n int) []model.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
