package queryplan

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/crawlchat/crawlchat/internal/cache"
)

// salaryPhrasePatterns scrape monetary figures out of an LLM reply, keyed by
// the NumericContextCache key they populate. Grounded on the teacher's
// extractJSON regex-scraping helper in internal/ai/llm.go, applied here to
// dollar figures instead of JSON object boundaries.
var salaryPhrasePatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{cache.KeyTakeHomeSalary, regexp.MustCompile(`take[- ]home (?:salary|pay)[^\$\d]{0,20}\$?([\d,]+(?:\.\d+)?)`)},
	{cache.KeyGrossSalary, regexp.MustCompile(`gross (?:salary|pay|income)[^\$\d]{0,20}\$?([\d,]+(?:\.\d+)?)`)},
}

// ExtractNumericFigures runs after every LLM response, caching any matched
// salary figures plus the turn itself so the next calculation follow-up has
// something to work from.
func ExtractNumericFigures(ctx context.Context, numeric *cache.NumericContextCache, sessionID, query, response string) error {
	lower := strings.ToLower(response)

	for _, p := range salaryPhrasePatterns {
		m := p.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if err := numeric.SetFloat(ctx, sessionID, p.key, value); err != nil {
			return err
		}
	}

	if err := numeric.Set(ctx, sessionID, cache.KeyLastQuery, query); err != nil {
		return err
	}
	return numeric.Set(ctx, sessionID, cache.KeyLastResponse, response)
}
