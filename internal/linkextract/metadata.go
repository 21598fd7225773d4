package linkextract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlchat/crawlchat/internal/model"
)

// PageMetadata is the sidecar metadata pulled from a page alongside its
// links: title, description and OpenGraph/JSON-LD fields useful for
// ranking and for labeling CrawledDocument records.
type PageMetadata struct {
	Title       string
	Description string
	OpenGraph   map[string]string
	JSONLD      []map[string]any
}

// ExtractMetadata pulls title/meta-description/OpenGraph/JSON-LD out of a
// fetched page, enriching the document record without affecting crawl
// discovery.
func ExtractMetadata(resp *model.FetchResponse) (*PageMetadata, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	md := &PageMetadata{OpenGraph: make(map[string]string)}
	md.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(`meta[name="description"]`).Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok && md.Description == "" {
			md.Description = content
		}
	})

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, sel *goquery.Selection) {
		prop, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if prop != "" {
			md.OpenGraph[strings.TrimPrefix(prop, "og:")] = content
		}
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(sel.Text()), &parsed); err == nil {
			md.JSONLD = append(md.JSONLD, parsed)
		}
	})

	return md, nil
}
