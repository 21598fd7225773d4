package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// Stage transforms extracted text before it is split into chunks. Stages
// run in order; each sees the previous stage's output.
type Stage interface {
	Name() string
	Process(text string) (string, error)
}

// WhitespaceNormalizeStage collapses runs of spaces/tabs and more than two
// consecutive blank lines, the texture PDF and OCR extraction leave behind.
type WhitespaceNormalizeStage struct{}

var (
	runsOfSpace    = regexp.MustCompile(`[ \t]+`)
	runsOfNewlines = regexp.MustCompile(`\n{3,}`)
)

func (WhitespaceNormalizeStage) Name() string { return "whitespace_normalize" }

func (WhitespaceNormalizeStage) Process(text string) (string, error) {
	text = runsOfSpace.ReplaceAllString(text, " ")
	text = runsOfNewlines.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n"), nil
}

// ControlCharStripStage removes non-printable control characters that OCR
// and native PDF extraction sometimes emit for damaged glyphs.
type ControlCharStripStage struct{}

func (ControlCharStripStage) Name() string { return "control_char_strip" }

func (ControlCharStripStage) Process(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
