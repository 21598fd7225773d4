package queryplan

import (
	"strings"

	"github.com/crawlchat/crawlchat/internal/model"
)

// Classify lower-cases the query and checks it against categoryTable in
// order; the first keyword set that matches wins. A query matching nothing
// falls through to CategoryGeneral.
func Classify(query string) model.QueryCategory {
	lower := strings.ToLower(query)
	for _, rule := range categoryTable {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryGeneral
}

// SystemPrompt returns the fixed prompt template for a category.
func SystemPrompt(category model.QueryCategory) string {
	for _, rule := range categoryTable {
		if rule.category == category {
			return rule.prompt
		}
	}
	return generalPrompt
}

// isCalculationLike reports whether a category should use the higher
// 0.5 score threshold and is eligible for the NumericContextCache shortcut.
func isCalculationLike(category model.QueryCategory) bool {
	return category == model.CategoryCalculation || category == model.CategoryMultiYearCalculation
}
