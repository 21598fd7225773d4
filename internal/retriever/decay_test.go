package retriever

import (
	"context"
	"testing"

	"github.com/crawlchat/crawlchat/internal/vectorindex"
)

func TestDecaySearchStopsAtFirstNonEmptyRung(t *testing.T) {
	results := []vectorindex.SearchResult{
		{ID: "1", Content: "low score hit", Score: 0.07},
	}
	search := func(ctx context.Context, taskID, query string, k int) ([]vectorindex.SearchResult, error) {
		return results, nil
	}

	passages, err := decaySearch(context.Background(), search, "task-1", "query", 0.5)
	if err != nil {
		t.Fatalf("decaySearch: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage once threshold decays to 0.05, got %d", len(passages))
	}
}

func TestDecaySearchAllRungsEmpty(t *testing.T) {
	search := func(ctx context.Context, taskID, query string, k int) ([]vectorindex.SearchResult, error) {
		return nil, nil
	}
	passages, err := decaySearch(context.Background(), search, "task-1", "query", 0.5)
	if err != nil {
		t.Fatalf("decaySearch: %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestFilterByThreshold(t *testing.T) {
	results := []vectorindex.SearchResult{
		{ID: "1", Content: "a", Score: 0.9, Metadata: map[string]string{"source_url": "doc1.pdf"}},
		{ID: "2", Content: "b", Score: 0.1},
	}
	passages := filterByThreshold(results, 0.2)
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage above threshold, got %d", len(passages))
	}
	if passages[0].Filename != "doc1.pdf" {
		t.Errorf("expected filename to come from metadata, got %q", passages[0].Filename)
	}
}

func TestCapPassages(t *testing.T) {
	var passages []Passage
	for i := 0; i < 20; i++ {
		passages = append(passages, Passage{Content: "x"})
	}
	if got := len(capPassages(passages)); got != maxPassages {
		t.Errorf("expected capped at %d, got %d", maxPassages, got)
	}
}
