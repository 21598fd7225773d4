package chunker

import (
	"strings"
	"unicode"
)

// splitWindows splits text into overlapping windows of roughly size runes,
// advancing by size-overlap runes per window so consecutive chunks share
// context at their edges. A window's end is pulled back to the last
// whitespace inside it when there is one; window starts are not aligned and
// can fall inside a word.
func splitWindows(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		trimmed := strings.TrimSpace(string(runes))
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	step := size - overlap
	if step <= 0 {
		step = size
	}

	var windows []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if b := lastWhitespace(runes, start, end); b > start {
			end = b
		}

		if w := strings.TrimSpace(string(runes[start:end])); w != "" {
			windows = append(windows, w)
		}

		if end >= len(runes) {
			break
		}
		next := start + step
		if next <= start {
			next = end
		}
		start = next
	}
	return windows
}

// lastWhitespace returns the index just past the last whitespace rune in
// runes[start:end], or end if none is found.
func lastWhitespace(runes []rune, start, end int) int {
	for i := end; i > start; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
