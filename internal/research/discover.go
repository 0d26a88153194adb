package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var feedPaths = []string{
	"/feed",
	"/feed.xml",
	"/atom.xml",
	"/rss.xml",
	"/rss",
	"/index.xml",
	"/feed/atom",
	"/feed/rss",
}

// DiscoverFeed finds the feed URL for a site, first from its alternate
// links and then by probing common feed paths.
func DiscoverFeed(ctx context.Context, client *http.Client, siteURL string) (string, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if body, err := get(ctx, client, http.MethodGet, siteURL); err == nil {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			var found string
			doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				typ := s.AttrOr("type", "")
				if typ != "application/rss+xml" && typ != "application/atom+xml" {
					return true
				}
				href, err := url.Parse(s.AttrOr("href", ""))
				if err != nil || href.String() == "" {
					return true
				}
				found = base.ResolveReference(href).String()
				return false
			})
			if found != "" {
				return found, nil
			}
		}
	}

	root := strings.TrimSuffix(siteURL, "/")
	for _, path := range feedPaths {
		if _, err := get(ctx, client, http.MethodHead, root+path); err == nil {
			return root + path, nil
		}
	}

	return "", fmt.Errorf("could not discover feed for %s", siteURL)
}

func get(ctx context.Context, client *http.Client, method, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 100000))
}
