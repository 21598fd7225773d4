package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/crawlchat/crawlchat/internal/model"
)

// PPTX is an Open Packaging Conventions zip archive with one XML part per
// slide under ppt/slides/. There is no well-maintained third-party reader
// for it in the corpus, so this walks the archive directly with the
// standard library the way the PPTX spec itself is structured: a zip of
// small, independently parseable XML documents.
type pptxSlideText struct {
	Paragraphs []struct {
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"cSld>spTree>sp>txBody>p"`
}

func extractPPTX(doc *model.CrawledDocument, data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &model.ExtractionError{DocumentID: doc.ID, Format: doc.ContentType, Tier: "pptx", Err: err}
	}

	type slideFile struct {
		index int
		file  *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml")
		n, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{index: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].index < slides[j].index })

	var buf strings.Builder
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			continue
		}

		var parsed pptxSlideText
		decodeErr := xml.NewDecoder(rc).Decode(&parsed)
		rc.Close()
		if decodeErr != nil {
			continue
		}

		buf.WriteString(fmt.Sprintf("# Slide %d\n", s.index))
		for _, p := range parsed.Paragraphs {
			var line strings.Builder
			for _, r := range p.Runs {
				line.WriteString(r.Text)
			}
			if text := strings.TrimSpace(line.String()); text != "" {
				buf.WriteString(text)
				buf.WriteByte('\n')
			}
		}
	}

	return &Result{Text: strings.TrimSpace(buf.String()), Tier: "pptx"}, nil
}
