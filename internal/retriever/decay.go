package retriever

import (
	"context"
	"regexp"

	"github.com/crawlchat/crawlchat/internal/vectorindex"
)

// thresholdLadder is tried in order after the category's base threshold,
// stopping at the first rung that returns any results.
var thresholdLadder = []float64{0.15, 0.10, 0.05}

// fallbackQueries are domain phrases tried verbatim when even the loosest
// threshold on the rewritten query comes back empty.
var fallbackQueries = []string{
	"summary of the document",
	"key figures and numbers",
	"important terms and definitions",
	"overview of contents",
}

const searchK = 15

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// decaySearch tries the base threshold, then each rung of thresholdLadder,
// stopping at the first non-empty result set.
func decaySearch(ctx context.Context, search SearchFunc, taskID, query string, base float64) ([]Passage, error) {
	thresholds := append([]float64{base}, thresholdLadder...)
	for _, threshold := range thresholds {
		results, err := search(ctx, taskID, query, searchK)
		if err != nil {
			return nil, err
		}
		if passages := filterByThreshold(results, threshold); len(passages) > 0 {
			return passages, nil
		}
	}
	return nil, nil
}

// fallbackSearch tries fixed domain phrases plus filename-derived tokens at
// a very low threshold, for corpora the rewritten query doesn't phrase the
// way the documents do.
func fallbackSearch(ctx context.Context, search SearchFunc, taskID string, sessionFilenames []string) ([]Passage, error) {
	queries := append([]string{}, fallbackQueries...)
	for _, name := range sessionFilenames {
		for _, tok := range wordPattern.FindAllString(name, -1) {
			if len(tok) > 3 {
				queries = append(queries, tok)
			}
		}
	}

	const fallbackThreshold = 0.01
	for _, q := range queries {
		results, err := search(ctx, taskID, q, searchK)
		if err != nil {
			return nil, err
		}
		if passages := filterByThreshold(results, fallbackThreshold); len(passages) > 0 {
			return passages, nil
		}
	}
	return nil, nil
}

func filterByThreshold(results []vectorindex.SearchResult, threshold float64) []Passage {
	var passages []Passage
	for _, r := range results {
		if float64(r.Score) < threshold {
			continue
		}
		passages = append(passages, Passage{
			Filename: r.Metadata["source_url"],
			Score:    float64(r.Score),
			Content:  r.Content,
		})
	}
	return passages
}
