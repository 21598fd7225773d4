package textextract

import (
	"bytes"
	"log/slog"

	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/textextract/ocr"
)

// Chain runs the text-extraction handlers. Only PDFs get a tiered ladder:
// a native text-layer parse, then page rendering sent through the managed
// OCR client, then a placeholder image for a manual-review trail. The PDF
// ladder has no layout-aware parse and no whole-document OCR pass. Other
// formats have only their native parser, whose error is returned as is.
type Chain struct {
	ocrClient *ocr.Client
	logger    *slog.Logger
}

func NewChain(cfg *config.OCRConfig, logger *slog.Logger) *Chain {
	return &Chain{
		ocrClient: ocr.NewClient(cfg.Provider, cfg.Endpoint, cfg.APIKey, logger),
		logger:    logger.With("component", "text_extract_chain"),
	}
}

// Result is the outcome of running the chain over one document. Image is
// only populated by the text-image synthesis fallback tier, which has no
// recognized text to offer but still gives reviewers something to look at.
type Result struct {
	Text  string
	Tier  string // which tier produced the text, recorded on ProcessedDocument
	Image []byte
}

// Extract dispatches by ContentType to the matching tiered handler.
func (c *Chain) Extract(doc *model.CrawledDocument, data []byte) (*Result, error) {
	switch doc.ContentType {
	case model.ContentPDF:
		return c.extractPDF(doc, data)
	case model.ContentDOCX:
		return extractDOCX(doc, data)
	case model.ContentXLSX:
		return extractXLSX(doc, data)
	case model.ContentPPTX:
		return extractPPTX(doc, data)
	case model.ContentCSV:
		return extractCSV(doc, data)
	case model.ContentHTML:
		return extractHTML(doc, data)
	case model.ContentPlainText, model.ContentJSON:
		return &Result{Text: string(data), Tier: "plain"}, nil
	default:
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "dispatch", Err: model.ErrUnknownFormat}
	}
}

// IsCorruptPDF applies the cheap structural checks the native PDF tier
// runs before attempting a real parse: missing header/trailer, an
// implausibly small file, or a majority-null byte stream all indicate a
// truncated or non-PDF download not worth parsing natively.
func IsCorruptPDF(data []byte) bool {
	if len(data) < 1024 {
		return true
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return true
	}
	if !bytes.Contains(data[max(0, len(data)-2048):], []byte("%%EOF")) {
		return true
	}
	nullCount := 0
	for _, b := range data {
		if b == 0 {
			nullCount++
		}
	}
	return float64(nullCount)/float64(len(data)) > 0.5
}
