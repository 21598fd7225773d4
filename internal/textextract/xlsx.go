package textextract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/crawlchat/crawlchat/internal/model"
)

// extractXLSX renders every sheet as tab-separated rows prefixed with the
// sheet name, so a lookup like "Q3 revenue" stays anchored to the sheet and
// row it came from.
func extractXLSX(doc *model.CrawledDocument, data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "xlsx", Err: err}
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}

		buf.WriteString("# " + sheet + "\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
		}
	}

	return &Result{Text: strings.TrimSpace(buf.String()), Tier: "xlsx"}, nil
}
