package linkextract

import (
	"testing"

	"github.com/crawlchat/crawlchat/internal/model"
)

func TestClassifyURLExtensions(t *testing.T) {
	cases := map[string]model.ContentType{
		"https://example.com/report.pdf":  model.ContentPDF,
		"https://example.com/sheet.xlsx":  model.ContentXLSX,
		"https://example.com/slides.pptx": model.ContentPPTX,
		"https://example.com/data.csv":    model.ContentCSV,
		"https://example.com/notes.txt":   model.ContentPlainText,
		"https://example.com/data.json":   model.ContentJSON,
	}
	for u, want := range cases {
		ct, ok := ClassifyURL(u)
		if !ok {
			t.Errorf("%s: expected a document classification", u)
		}
		if ct != want {
			t.Errorf("%s: got %s, want %s", u, ct, want)
		}
	}
}

func TestClassifyURLPlainPageIsNotADocument(t *testing.T) {
	if _, ok := ClassifyURL("https://example.com/about-us"); ok {
		t.Error("ordinary page should not classify as a document")
	}
}

func TestClassifyURLPathPatterns(t *testing.T) {
	urls := []string{
		"https://example.com/pdf/quarterly",
		"https://example.com/document/12345",
		"https://example.com/file/abc",
		"https://example.com/download/archive",
	}
	for _, u := range urls {
		if _, ok := ClassifyURL(u); !ok {
			t.Errorf("%s: expected document path pattern to classify as a document", u)
		}
	}
}

func TestClassifyURLFinancialTokens(t *testing.T) {
	urls := []string{
		"https://example.com/investors/annual-report",
		"https://example.com/filings/10-k",
		"https://example.com/notices/proxy-statement",
		"https://example.com/offerings/prospectus",
	}
	for _, u := range urls {
		if _, ok := ClassifyURL(u); !ok {
			t.Errorf("%s: expected financial phrase token to classify as a document", u)
		}
	}
}

func TestClassifyURLAPIExclusions(t *testing.T) {
	urls := []string{
		"https://example.com/api/export.json",
		"https://example.com/v2/report.pdf",
		"https://example.com/export.json?api_key=secret",
		"https://example.com/data.csv?token=abc",
		"https://example.com/file.pdf?auth=1",
		"https://example.com/export.json?callback=jsonp123",
	}
	for _, u := range urls {
		if _, ok := ClassifyURL(u); ok {
			t.Errorf("%s: API-shaped URL should not classify as a document", u)
		}
	}
}

func TestIsDocumentURL(t *testing.T) {
	if !IsDocumentURL("https://example.com/report.pdf") {
		t.Error("expected report.pdf to be a document URL")
	}
	if IsDocumentURL("https://example.com/index.html") {
		t.Error("expected index.html not to be a document URL")
	}
}
