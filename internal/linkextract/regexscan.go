package linkextract

import "regexp"

// regexScanner finds URL-shaped strings hiding in onclick handlers,
// data-url attributes and inline <script> bodies, the kind of navigation
// goquery's <a href> scan never sees because it isn't a real link.
type regexScanner struct {
	patterns []*regexp.Regexp
}

func newRegexScanner() *regexScanner {
	return &regexScanner{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`onclick\s*=\s*["'][^"']*(?:location\.href|window\.location|location\.assign)\s*=\s*['"]([^'"]+)['"]`),
			regexp.MustCompile(`data-url\s*=\s*["']([^"']+)["']`),
			regexp.MustCompile(`data-href\s*=\s*["']([^"']+)["']`),
			regexp.MustCompile(`window\.open\(\s*['"]([^'"]+)['"]`),
		},
	}
}

// Scan returns every capture-group match across all patterns.
func (s *regexScanner) Scan(body string) []string {
	var out []string
	for _, re := range s.patterns {
		for _, match := range re.FindAllStringSubmatch(body, -1) {
			if len(match) > 1 {
				out = append(out, match[1])
			}
		}
	}
	return out
}
