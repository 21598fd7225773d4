package queryplan

import (
	"regexp"
	"strings"
	"unicode"
)

// genericPatterns maps a loose query pattern to canonical search-friendly
// terms it expands into, so a vague "compare both" still hits something in
// the vector index.
var genericPatterns = []struct {
	pattern *regexp.Regexp
	expand  string
}{
	{regexp.MustCompile(`compare both`), "comparison differences similarities between documents"},
	{regexp.MustCompile(`summarize both`), "summary overview of both documents"},
	{regexp.MustCompile(`short notes?`), "key points summary notes"},
	{regexp.MustCompile(`what is in the documents?`), "overview contents summary of documents"},
}

// followUpMarkers are pronouns and discourse markers that indicate a query
// continues the previous turn rather than standing alone.
var followUpMarkers = []string{
	"it", "this", "that", "they", "them", "those", "these",
	"what about", "how about", "and", "also", "too", "as well",
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// RewriteGeneric expands vague queries with canonical search terms and mixes
// in alphabetic tokens longer than 3 characters pulled from session
// filenames, so the retriever has something concrete to search against.
func RewriteGeneric(query string, sessionFilenames []string) string {
	lower := strings.ToLower(query)
	rewritten := query

	for _, gp := range genericPatterns {
		if gp.pattern.MatchString(lower) {
			rewritten = rewritten + " " + gp.expand
			break
		}
	}

	var tokens []string
	for _, name := range sessionFilenames {
		for _, tok := range wordPattern.FindAllString(name, -1) {
			if len(tok) > 3 {
				tokens = append(tokens, tok)
			}
		}
	}
	if len(tokens) > 0 {
		rewritten = rewritten + " " + strings.Join(tokens, " ")
	}

	return rewritten
}

// IsFollowUp reports whether query should be treated as continuing the
// previous turn: short queries and queries containing a follow-up marker
// both qualify.
func IsFollowUp(query string) bool {
	if wordCount(query) <= 5 {
		return true
	}
	lower := strings.ToLower(query)
	for _, marker := range followUpMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// PrefixWithPrevious prepends the previous user message to a follow-up
// query, giving the retriever and LLM the missing context.
func PrefixWithPrevious(query, previousUserMessage string) string {
	if previousUserMessage == "" {
		return query
	}
	return previousUserMessage + " " + query
}

func wordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
