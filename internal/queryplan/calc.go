package queryplan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/crawlchat/crawlchat/internal/cache"
	"github.com/crawlchat/crawlchat/internal/model"
)

var (
	yearSpanPattern  = regexp.MustCompile(`(\d+)\s*year`)
	monthSpanPattern = regexp.MustCompile(`(\d+)\s*month`)
)

// CalculationShortcut answers "how much in N years"-style follow-ups
// directly from a cached base salary, skipping the LLM entirely. It only
// fires for calculation-like categories and only when both a span (years or
// months) and a cached base figure are present.
func CalculationShortcut(ctx context.Context, numeric *cache.NumericContextCache, sessionID string, category model.QueryCategory, query string) (string, bool) {
	if !isCalculationLike(category) {
		return "", false
	}

	lower := strings.ToLower(query)
	years, hasYears := parseSpan(yearSpanPattern, lower)
	months, hasMonths := parseSpan(monthSpanPattern, lower)
	if !hasYears && !hasMonths {
		return "", false
	}

	base, key, ok := lookupBaseSalary(ctx, numeric, sessionID)
	if !ok {
		return "", false
	}

	var total float64
	var span string
	switch {
	case hasYears:
		total = base * float64(years)
		span = fmt.Sprintf("%d years", years)
	case hasMonths:
		total = base / 12 * float64(months)
		span = fmt.Sprintf("%d months", months)
	}

	label := "take-home salary"
	if key == cache.KeyGrossSalary {
		label = "gross salary"
	}

	return fmt.Sprintf("Based on a %s of %.2f, over %s the total comes to %.2f.", label, base, span, total), true
}

func lookupBaseSalary(ctx context.Context, numeric *cache.NumericContextCache, sessionID string) (float64, string, bool) {
	if value, ok, err := numeric.GetFloat(ctx, sessionID, cache.KeyTakeHomeSalary); err == nil && ok {
		return value, cache.KeyTakeHomeSalary, true
	}
	if value, ok, err := numeric.GetFloat(ctx, sessionID, cache.KeyGrossSalary); err == nil && ok {
		return value, cache.KeyGrossSalary, true
	}
	return 0, "", false
}

func parseSpan(pattern *regexp.Regexp, lower string) (int, bool) {
	m := pattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
