package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// URLSeen tracks visited URLs, canonicalized so query-parameter order and
// default ports don't produce duplicate crawls of the same page.
type URLSeen struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewURLSeen(estimatedCapacity int) *URLSeen {
	return &URLSeen{seen: make(map[string]struct{}, estimatedCapacity)}
}

func (d *URLSeen) IsSeen(rawURL string) bool {
	hash := hashString(CanonicalizeURL(rawURL))
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[hash]
	return ok
}

func (d *URLSeen) MarkSeen(rawURL string) {
	hash := hashString(CanonicalizeURL(rawURL))
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[hash] = struct{}{}
}

func (d *URLSeen) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seen)
}

// Export/Import let the crawler checkpoint seen-URL state between runs.
func (d *URLSeen) Export() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hashes := make([]string, 0, len(d.seen))
	for h := range d.seen {
		hashes = append(hashes, h)
	}
	return hashes
}

func (d *URLSeen) Import(hashes []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range hashes {
		d.seen[h] = struct{}{}
	}
}

// ContentSeen tracks content hashes of fetched documents, independent of
// the URL they were fetched from: mirrors (CDN copies, reposted PDFs) hash
// identically and should not be re-extracted or re-indexed.
type ContentSeen struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewContentSeen() *ContentSeen {
	return &ContentSeen{seen: make(map[string]struct{})}
}

func (c *ContentSeen) IsSeen(hash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.seen[hash]
	return ok
}

func (c *ContentSeen) MarkSeen(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[hash] = struct{}{}
}

// HashContent returns the content hash recorded on CrawledDocument.ContentHash.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalizeURL normalizes a URL for deduplication: lowercases
// scheme/host, drops the fragment and default port, sorts query
// parameters, and strips a trailing slash other than the root path.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:16])
}
