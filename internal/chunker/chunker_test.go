package chunker

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/crawlchat/crawlchat/internal/config"
)

func TestSplitWindowsShortTextReturnsOneWindow(t *testing.T) {
	got := splitWindows("hello world", 1000, 150)
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("got %v", got)
	}
}

func TestSplitWindowsOverlap(t *testing.T) {
	text := strings.Repeat("word ", 400) // 2000 chars
	windows := splitWindows(text, 500, 100)
	if len(windows) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(windows))
	}
	for _, w := range windows {
		if len(w) > 500 {
			t.Errorf("window exceeds size: %d runes", len([]rune(w)))
		}
	}
}

func TestSplitWindowsEmptyText(t *testing.T) {
	if got := splitWindows("", 500, 100); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestChunkerDropsDuplicateWindows(t *testing.T) {
	c := New(config.ChunkerConfig{Size: 50, Overlap: 0}, slog.Default())
	repeated := strings.Repeat("the same boilerplate footer text. ", 3)

	chunks, err := c.Chunk("https://example.com/doc", repeated)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	seen := map[string]bool{}
	for _, ch := range chunks {
		if seen[ch.ContentHash] {
			t.Errorf("duplicate content hash %q should have been dropped", ch.ContentHash)
		}
		seen[ch.ContentHash] = true
	}
}

func TestChunkerNormalizesWhitespace(t *testing.T) {
	c := New(config.ChunkerConfig{Size: 1000, Overlap: 100}, slog.Default())
	chunks, err := c.Chunk("https://example.com/doc", "hello   world\n\n\n\nfoo")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "   ") || strings.Contains(chunks[0].Text, "\n\n\n") {
		t.Errorf("whitespace not normalized: %q", chunks[0].Text)
	}
}

func TestChunkerEmptyTextReturnsNoChunks(t *testing.T) {
	c := New(config.ChunkerConfig{}, slog.Default())
	chunks, err := c.Chunk("https://example.com/doc", "   \n\n  ")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if chunks != nil {
		t.Errorf("expected nil chunks, got %v", chunks)
	}
}
