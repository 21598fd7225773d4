// Package chunker splits extracted document text into overlapping windows
// sized for embedding, the step between internal/textextract's raw output
// and internal/vectorindex's per-chunk input.
package chunker

import (
	"log/slog"
	"strings"

	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/dedup"
	"github.com/crawlchat/crawlchat/internal/model"
)

const (
	defaultSize    = 1000
	defaultOverlap = 150
)

// Chunker runs text through a stage chain before splitting it into
// model.Chunk windows.
type Chunker struct {
	stages  []Stage
	size    int
	overlap int
	logger  *slog.Logger
}

func New(cfg config.ChunkerConfig, logger *slog.Logger) *Chunker {
	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}
	overlap := cfg.Overlap
	if overlap < 0 || overlap >= size {
		overlap = defaultOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Chunker{
		stages: []Stage{
			WhitespaceNormalizeStage{},
			ControlCharStripStage{},
		},
		size:    size,
		overlap: overlap,
		logger:  logger.With("component", "chunker"),
	}
}

// Use appends a stage to the chain, run after the built-in stages.
func (c *Chunker) Use(s Stage) {
	c.stages = append(c.stages, s)
}

// Chunk runs text through the stage chain, splits it into windows, and
// drops windows whose content hash duplicates one already seen in this
// document (repeated headers, footers, boilerplate disclaimers).
func (c *Chunker) Chunk(sourceURL, text string) ([]model.Chunk, error) {
	for _, stage := range c.stages {
		var err error
		text, err = stage.Process(text)
		if err != nil {
			return nil, &StageError{Stage: stage.Name(), Err: err}
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	windows := splitWindows(text, c.size, c.overlap)
	seen := dedup.NewContentSeen()
	chunks := make([]model.Chunk, 0, len(windows))
	for _, w := range windows {
		hash := dedup.HashContent([]byte(w))
		if seen.IsSeen(hash) {
			c.logger.Debug("duplicate chunk dropped", "source_url", sourceURL)
			continue
		}
		seen.MarkSeen(hash)
		chunks = append(chunks, model.Chunk{
			Index:       len(chunks),
			Text:        w,
			ContentHash: hash,
			SourceURL:   sourceURL,
		})
	}
	return chunks, nil
}

// StageError reports which stage in the chain failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return "chunker: stage " + e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
