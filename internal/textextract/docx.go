package textextract

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/crawlchat/crawlchat/internal/model"
)

// extractDOCX walks the document body in order, joining paragraph and
// table-cell text so reading order survives the conversion to plain text.
func extractDOCX(doc *model.CrawledDocument, data []byte) (*Result, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "docx", Err: err}
	}
	defer reader.Close()

	parsed := reader.Editable()

	var buf strings.Builder
	for _, item := range parsed.Document.Body.Items {
		switch el := item.(type) {
		case *docx.Paragraph:
			text := strings.TrimSpace(el.String())
			if text != "" {
				buf.WriteString(text)
				buf.WriteByte('\n')
			}
		case *docx.Table:
			for _, row := range el.TableRows {
				var cells []string
				for _, cell := range row.TableCells {
					for _, p := range cell.Paragraphs {
						if text := strings.TrimSpace(p.String()); text != "" {
							cells = append(cells, text)
						}
					}
				}
				if len(cells) > 0 {
					buf.WriteString(strings.Join(cells, " | "))
					buf.WriteByte('\n')
				}
			}
		}
	}

	return &Result{Text: strings.TrimSpace(buf.String()), Tier: "docx"}, nil
}
