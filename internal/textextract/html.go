package textextract

import (
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/crawlchat/crawlchat/internal/model"
)

// blockSelectors are walked in document order; each produces one paragraph
// of extracted text. Tables get their own pass so rows stay newline
// separated instead of being flattened into one run of text.
var blockSelectors = "//p | //h1 | //h2 | //h3 | //h4 | //li | //blockquote | //pre"

// extractHTML pulls readable text out of a raw HTML document using XPath,
// skipping script/style/nav/footer chrome and rendering tables row by row
// so numeric lookups stay aligned with their row context.
func extractHTML(doc *model.CrawledDocument, data []byte) (*Result, error) {
	root, err := htmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "html", Err: err}
	}

	for _, n := range htmlquery.Find(root, "//script | //style | //nav | //footer") {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	var buf strings.Builder

	nodes, _ := htmlquery.QueryAll(root, blockSelectors)
	for _, n := range nodes {
		text := strings.TrimSpace(htmlquery.InnerText(n))
		if text != "" {
			buf.WriteString(text)
			buf.WriteByte('\n')
		}
	}

	tables, _ := htmlquery.QueryAll(root, "//table")
	for _, table := range tables {
		rows, _ := htmlquery.QueryAll(table, ".//tr")
		for _, row := range rows {
			cells, _ := htmlquery.QueryAll(row, ".//td | .//th")
			cellText := make([]string, 0, len(cells))
			for _, cell := range cells {
				cellText = append(cellText, strings.TrimSpace(htmlquery.InnerText(cell)))
			}
			if len(cellText) > 0 {
				buf.WriteString(strings.Join(cellText, " | "))
				buf.WriteByte('\n')
			}
		}
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		text = strings.TrimSpace(htmlquery.InnerText(root))
	}

	return &Result{Text: text, Tier: "html"}, nil
}
