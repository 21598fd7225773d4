package linkextract

import (
	"net/url"
	"path"
	"strings"

	"github.com/crawlchat/crawlchat/internal/model"
)

var documentExtensions = map[string]model.ContentType{
	".pdf":  model.ContentPDF,
	".docx": model.ContentDOCX,
	".doc":  model.ContentDOCX,
	".xlsx": model.ContentXLSX,
	".xls":  model.ContentXLSX,
	".pptx": model.ContentPPTX,
	".ppt":  model.ContentPPTX,
	".csv":  model.ContentCSV,
	".txt":  model.ContentPlainText,
	".json": model.ContentJSON,
}

// documentPathPatterns are path segments that mark a URL as serving a
// downloadable document even when its extension doesn't say so (e.g. a PDF
// served from a path with no extension at all).
var documentPathPatterns = []string{
	"/pdf/",
	"/document/",
	"/file/",
	"/download/",
}

// financialDocumentTokens are phrases that mark a URL as a financial
// filing or disclosure, regardless of extension.
var financialDocumentTokens = []string{
	"annual-report",
	"annualreport",
	"10-k",
	"10-q",
	"8-k",
	"proxy",
	"prospectus",
	"filing",
	"sec-filing",
	"investor-relations",
	"financial-statement",
}

// apiPathSegments mark a URL as an API endpoint rather than a crawlable
// document or page, even when its extension or path would otherwise
// classify it as one.
var apiPathSegments = []string{"/api/", "/v1/", "/v2/", "/v3/", "/v4/"}

// apiQueryParams are query parameters that only appear on API calls, never
// on a document a crawler should index.
var apiQueryParams = []string{"api_key", "token", "auth", "callback"}

// IsDocumentURL reports whether rawURL points at a downloadable-document
// format the text-extraction chain handles, as opposed to an ordinary HTML
// page to keep crawling.
func IsDocumentURL(rawURL string) bool {
	_, ok := ClassifyURL(rawURL)
	return ok
}

// ClassifyURL returns the ContentType implied by rawURL, if any. It checks,
// in order: API-shaped exclusions (never a document), extension, financial
// phrase tokens, and document-serving path patterns. Pages matching none of
// these are assumed to be HTML.
func ClassifyURL(rawURL string) (model.ContentType, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.ContentUnknown, false
	}

	if looksLikeAPI(u) {
		return model.ContentUnknown, false
	}

	lowerPath := strings.ToLower(u.Path)

	ext := strings.ToLower(path.Ext(u.Path))
	if ct, ok := documentExtensions[ext]; ok {
		return ct, true
	}

	if containsAny(lowerPath, financialDocumentTokens) {
		return model.ContentPDF, true
	}

	if containsAny(lowerPath, documentPathPatterns) {
		return model.ContentPDF, true
	}

	return model.ContentUnknown, false
}

// looksLikeAPI reports whether u is shaped like an API endpoint: a
// versioned or "/api/" path segment, or a query parameter that only makes
// sense on an authenticated API call.
func looksLikeAPI(u *url.URL) bool {
	lowerPath := strings.ToLower(u.Path)
	if !strings.HasSuffix(lowerPath, "/") {
		lowerPath += "/"
	}
	if containsAny(lowerPath, apiPathSegments) {
		return true
	}

	query := u.Query()
	for _, key := range apiQueryParams {
		if query.Has(key) {
			return true
		}
	}
	return false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
