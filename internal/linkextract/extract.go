package linkextract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlchat/crawlchat/internal/model"
)

// Extractor discovers candidate URLs from a fetched page: the standard
// <a href> scan plus a regex sweep over onclick/data-url attributes and
// inline <script> bodies for JS-driven navigation that goquery can't see.
type Extractor struct {
	logger      *slog.Logger
	regexScan   *regexScanner
	allowHosts  map[string]bool
	denyHosts   map[string]bool
}

// NewExtractor builds an Extractor. allowHosts/denyHosts may be empty to
// skip host filtering.
func NewExtractor(logger *slog.Logger, allowHosts, denyHosts []string) *Extractor {
	e := &Extractor{
		logger:     logger.With("component", "link_extractor"),
		regexScan:  newRegexScanner(),
		allowHosts: toSet(allowHosts),
		denyHosts:  toSet(denyHosts),
	}
	return e
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[strings.ToLower(i)] = true
	}
	return m
}

// Extract returns every candidate URL discovered in resp, deduplicated and
// resolved against resp.FinalURL, together with the set of document URLs
// (classified by IsDocumentURL, which applies ClassifyURL's API, extension,
// token and path checks) so the caller can prioritize them.
func (e *Extractor) Extract(resp *model.FetchResponse) (pages []string, documents []string, err error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, nil, err
	}

	base, err := url.Parse(resp.FinalURL)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	add := func(raw string) {
		resolved, ok := e.resolve(base, raw)
		if !ok || seen[resolved] {
			return
		}
		seen[resolved] = true
		if IsDocumentURL(resolved) {
			documents = append(documents, resolved)
		} else {
			pages = append(pages, resolved)
		}
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			add(href)
		}
	})

	for _, raw := range e.regexScan.Scan(string(resp.Body)) {
		add(raw)
	}

	return pages, documents, nil
}

func (e *Extractor) resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return "", false
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""

	host := strings.ToLower(resolved.Hostname())
	if len(e.denyHosts) > 0 && e.denyHosts[host] {
		return "", false
	}
	if len(e.allowHosts) > 0 && !e.allowHosts[host] {
		return "", false
	}

	return resolved.String(), true
}
