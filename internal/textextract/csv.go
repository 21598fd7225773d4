package textextract

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/crawlchat/crawlchat/internal/model"
)

// extractCSV parses comma-separated rows and re-serializes them with a
// single tab separator, keeping column alignment for numeric lookups
// without carrying quoting artifacts into the extracted text. Files with
// another delimiter come through as one field per row.
func extractCSV(doc *model.CrawledDocument, data []byte) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "csv", Err: err}
	}

	var buf strings.Builder
	for _, row := range rows {
		buf.WriteString(strings.Join(row, "\t"))
		buf.WriteByte('\n')
	}

	return &Result{Text: strings.TrimSpace(buf.String()), Tier: "csv"}, nil
}
