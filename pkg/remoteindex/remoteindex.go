package remoteindex

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mdverse/mddata/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB

	defaultTimeout = 15 * time.Second
)

// FileLink is a candidate downloadable file discovered on an index page.
// Checksums are not discoverable from listings; the caller pins them after
// downloading and hashing the file once.
type FileLink struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Scanner fetches HTML index pages and extracts file links from them.
type Scanner struct {
	client httpclient.Client
}

// NewScanner constructs a scanner with the provided HTTP client (or default).
func NewScanner(client httpclient.Client) *Scanner {
	if client == nil {
		client = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Scanner{client: client}
}

// Scan fetches the page at pageURL and returns the file links it advertises.
// Anchors pointing at page fragments, other HTML pages, and parent-directory
// entries are skipped.
func (s *Scanner) Scan(ctx context.Context, pageURL string) ([]FileLink, error) {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported index url scheme %q", base.Scheme)
	}

	resp, err := s.client.Get(ctx, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return parseLinks(base, body)
}

func parseLinks(base *url.URL, body []byte) ([]FileLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]struct{})
	var links []FileLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}

		name := linkName(sel, abs)
		if name == "" || !looksLikeFile(name) {
			return
		}

		key := abs.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		links = append(links, FileLink{Name: name, URL: key})
	})

	return links, nil
}

// linkName picks a filename for the anchor: the last path segment when it
// carries an extension, else the trimmed anchor text.
func linkName(sel *goquery.Selection, abs *url.URL) string {
	segment := path.Base(abs.Path)
	if segment != "." && segment != "/" && path.Ext(segment) != "" {
		return segment
	}
	return strings.TrimSpace(sel.Text())
}

// looksLikeFile filters out navigation links: no extension, directory
// slashes, or parent references.
func looksLikeFile(name string) bool {
	if name == "" || name == ".." || strings.HasSuffix(name, "/") {
		return false
	}
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case "", ".html", ".htm", ".php":
		return false
	}
	return true
}
