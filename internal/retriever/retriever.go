// Package retriever runs similarity search against a crawl task's vector
// index with score-threshold decay and fallback query expansion, producing
// the passages the answerer assembles into an LLM prompt.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/queryplan"
	"github.com/crawlchat/crawlchat/internal/vectorindex"
)

// ErrEmptyResult means the corpus is fully indexed but nothing matched.
// ErrStillIndexing means some crawled documents haven't been extracted and
// embedded yet, so the caller should tell the user to wait and retry.
var (
	ErrEmptyResult   = errors.New("retriever: no relevant passages found")
	ErrStillIndexing = errors.New("retriever: documents are still being indexed")
)

const maxPassages = 15

// SearchFunc matches vectorindex.Index.Query's signature. Accepting it as an
// interface keeps the threshold-decay and fallback logic pure and
// independently testable, the same "accept an interface, decide branching
// explicitly" posture as internal/crawler/scheduler.go's handleFetchError.
type SearchFunc func(ctx context.Context, taskID, query string, k int) ([]vectorindex.SearchResult, error)

// Passage is one retrieved chunk, ready for prompt assembly.
type Passage struct {
	Filename string
	Score    float64
	Content  string
}

type Retriever struct {
	search SearchFunc
	meta   *metastore.Store
}

func New(index *vectorindex.Index, meta *metastore.Store) *Retriever {
	return &Retriever{search: index.Query, meta: meta}
}

// Retrieve runs threshold-decaying search, then fallback queries, then
// distinguishes an empty corpus from one still being indexed.
func (r *Retriever) Retrieve(ctx context.Context, taskID string, plan queryplan.Plan, sessionFilenames []string) ([]Passage, error) {
	passages, err := decaySearch(ctx, r.search, taskID, plan.Query, plan.ScoreThreshold)
	if err != nil {
		return nil, err
	}
	if len(passages) > 0 {
		return capPassages(passages), nil
	}

	passages, err = fallbackSearch(ctx, r.search, taskID, sessionFilenames)
	if err != nil {
		return nil, err
	}
	if len(passages) > 0 {
		return capPassages(passages), nil
	}

	return nil, r.indexingSentinel(ctx, taskID)
}

func (r *Retriever) indexingSentinel(ctx context.Context, taskID string) error {
	crawled, err := r.meta.CountDocumentsByTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("retriever: count documents: %w", err)
	}
	if crawled == 0 {
		return ErrEmptyResult
	}

	processed, err := r.meta.CountProcessedDocumentsByTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("retriever: count processed documents: %w", err)
	}
	if processed < crawled {
		return ErrStillIndexing
	}
	return ErrEmptyResult
}

func capPassages(passages []Passage) []Passage {
	if len(passages) > maxPassages {
		return passages[:maxPassages]
	}
	return passages
}
