package textextract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/fogleman/gg"
	fitz "github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/crawlchat/crawlchat/internal/model"
)

// minNativeChars is the floor below which a native PDF extraction is
// considered to have failed even though the library returned no error:
// scanned PDFs often parse cleanly but yield only whitespace or a handful
// of stray glyphs.
const minNativeChars = 40

// extractPDF runs the tiered PDF ladder: a native text-layer parse first,
// then page-by-page rendering through managed OCR, then a text-image
// synthesis fallback so a caller always gets a reviewable artifact back.
func (c *Chain) extractPDF(doc *model.CrawledDocument, data []byte) (*Result, error) {
	if !IsCorruptPDF(data) {
		if text, err := extractPDFNative(data); err == nil && len(strings.TrimSpace(text)) >= minNativeChars {
			return &Result{Text: text, Tier: "pdf_native"}, nil
		}
	}

	if text, err := c.extractPDFRendered(doc, data); err == nil && len(strings.TrimSpace(text)) > 0 {
		return &Result{Text: text, Tier: "pdf_ocr"}, nil
	}

	return synthesizeFallback(doc)
}

func extractPDFNative(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
	}

	return buf.String(), nil
}

// extractPDFRendered rasterizes each page with go-fitz and sends the image
// through the managed OCR client, for PDFs whose text layer is missing or
// unusable (scans, flattened exports).
func (c *Chain) extractPDFRendered(doc *model.CrawledDocument, data []byte) (string, error) {
	fdoc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf for rendering: %w", err)
	}
	defer fdoc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var buf strings.Builder
	pages := fdoc.NumPage()
	for i := 0; i < pages; i++ {
		img, err := fdoc.Image(i)
		if err != nil {
			c.logger.Warn("render pdf page failed", "document_id", doc.ID, "page", i, "error", err)
			continue
		}

		var pngBuf bytes.Buffer
		if err := png.Encode(&pngBuf, img); err != nil {
			continue
		}

		page, err := c.ocrClient.Recognize(ctx, pngBuf.Bytes())
		if err != nil {
			c.logger.Warn("ocr page failed", "document_id", doc.ID, "page", i, "error", err)
			continue
		}
		buf.WriteString(page.Text())
	}

	return buf.String(), nil
}

// synthesizeFallback renders a placeholder image noting the document could
// not be read, so a reviewer has something concrete to act on instead of a
// silent drop.
func synthesizeFallback(doc *model.CrawledDocument) (*Result, error) {
	const w, h = 800, 200
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.DrawStringWrapped(
		fmt.Sprintf("Could not extract text from document %s (%s)", doc.ID, doc.URL),
		20, 20, 0, 0, float64(w-40), 1.5, gg.AlignLeft,
	)

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, dc.Image()); err != nil {
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "synthesis", Err: err}
	}

	return &Result{
		Text:  fmt.Sprintf("[extraction unavailable for %s]", doc.URL),
		Tier:  "synthesis",
		Image: pngBuf.Bytes(),
	}, nil
}
