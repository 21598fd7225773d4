package dedup

import "testing"

func TestURLSeen(t *testing.T) {
	d := NewURLSeen(1000)

	if d.IsSeen("https://example.com") {
		t.Error("should not be seen before marking")
	}

	d.MarkSeen("https://example.com")

	if !d.IsSeen("https://example.com") {
		t.Error("should be seen after marking")
	}
}

func TestURLSeenVariants(t *testing.T) {
	d := NewURLSeen(1000)

	d.MarkSeen("https://Example.COM/Path?b=2&a=1")

	if !d.IsSeen("https://example.com/Path?b=2&a=1") {
		t.Error("hostname should be case-insensitive")
	}

	if !d.IsSeen("https://example.com/Path?a=1&b=2") {
		t.Error("query params should be order-insensitive")
	}
}

func TestContentSeen(t *testing.T) {
	c := NewContentSeen()
	hash := HashContent([]byte("hello world"))

	if c.IsSeen(hash) {
		t.Error("should not be seen before marking")
	}
	c.MarkSeen(hash)
	if !c.IsSeen(hash) {
		t.Error("should be seen after marking")
	}
}

func TestCanonicalizeURLDefaultPort(t *testing.T) {
	got := CanonicalizeURL("https://example.com:443/path/")
	want := "https://example.com/path"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
