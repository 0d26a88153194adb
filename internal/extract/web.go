package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const maxBodySize = 10 * 1024 * 1024

var (
	createTimeVar = regexp.MustCompile(`var\s+ct\s*=\s*"(\d+)"`)
	blockMarkers  = []string{"环境异常", "请在微信客户端打开链接", "完成验证后即可继续访问"}
)

// HTTPError is a non-200 response from the article host.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// pageFetcher downloads and parses an article page with a prepared client.
type pageFetcher struct {
	client    *http.Client
	userAgent string
	header    http.Header
}

func (f *pageFetcher) fetch(ctx context.Context, pageURL string) (*RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range f.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read article body: %w", err)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}
	return ParseHTML(body, parsed)
}

// ParseHTML reads a WeChat article page. When the page lacks the WeChat
// content container the body is recovered with readability.
func ParseHTML(body []byte, pageURL *url.URL) (*RawArticle, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := doc.Find("#js_content")
	if content.Length() == 0 {
		page := doc.Text()
		for _, marker := range blockMarkers {
			if strings.Contains(page, marker) {
				return nil, ErrBlocked
			}
		}
	}

	raw := &RawArticle{
		Title:       firstNonEmpty(text(doc.Find("#activity-name")), metaContent(doc, "og:title"), text(doc.Find("title"))),
		Author:      firstNonEmpty(text(doc.Find("#js_name")), metaContent(doc, "og:article:author"), metaName(doc, "author")),
		PublishDate: firstNonEmpty(text(doc.Find("#publish_time")), createTime(body)),
	}

	if content.Length() > 0 {
		html, _ := content.Html()
		raw.ContentHTML = strings.TrimSpace(html)
		raw.ContentText = normalizeText(content.Text())
		content.Find("img").Each(func(_ int, img *goquery.Selection) {
			if src := firstNonEmpty(img.AttrOr("data-src", ""), img.AttrOr("src", "")); src != "" {
				raw.Images = append(raw.Images, src)
			}
		})
		content.Find("iframe, video").Each(func(_ int, v *goquery.Selection) {
			if src := firstNonEmpty(v.AttrOr("data-src", ""), v.AttrOr("src", "")); src != "" {
				raw.Videos = append(raw.Videos, src)
			}
		})
	}

	if raw.ContentText == "" {
		if pageURL == nil {
			pageURL = &url.URL{}
		}
		article, err := readability.FromReader(bytes.NewReader(body), pageURL)
		if err == nil {
			raw.ContentHTML = article.Content
			raw.ContentText = normalizeText(article.TextContent)
			raw.Title = firstNonEmpty(raw.Title, article.Title)
			raw.Author = firstNonEmpty(raw.Author, article.Byline)
			if article.Image != "" {
				raw.Images = append(raw.Images, article.Image)
			}
		}
	}

	if raw.ContentText == "" {
		return nil, ErrEmptyContent
	}
	return raw, nil
}

// Cookie fetches the page with a session cookie and token copied from the
// WeChat official-account console.
type Cookie struct {
	fetcher pageFetcher
	cookie  string
	token   string
}

func NewCookie(cookie, token, userAgent string, timeout time.Duration) *Cookie {
	header := http.Header{}
	if cookie != "" {
		header.Set("Cookie", cookie)
	}
	return &Cookie{
		fetcher: pageFetcher{
			client:    &http.Client{Timeout: timeout},
			userAgent: userAgent,
			header:    header,
		},
		cookie: cookie,
		token:  token,
	}
}

func (c *Cookie) Name() string { return StrategyCookie }

func (c *Cookie) Available() error {
	if c.cookie == "" {
		return fmt.Errorf("%w: cookie is empty", ErrNotConfigured)
	}
	return nil
}

func (c *Cookie) Extract(ctx context.Context, pageURL string) (*RawArticle, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}
	target := pageURL
	if c.token != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	raw, err := c.fetcher.fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	raw.Strategy = StrategyCookie
	return raw, nil
}

// Proxy fetches the page through an intercepting HTTP proxy.
type Proxy struct {
	fetcher  pageFetcher
	proxyURL string
}

func NewProxy(proxyURL, userAgent string, timeout time.Duration) *Proxy {
	transport := &http.Transport{}
	if u, err := url.Parse(proxyURL); err == nil && proxyURL != "" {
		transport.Proxy = http.ProxyURL(u)
	}
	return &Proxy{
		fetcher: pageFetcher{
			client:    &http.Client{Timeout: timeout, Transport: transport},
			userAgent: userAgent,
		},
		proxyURL: proxyURL,
	}
}

func (p *Proxy) Name() string { return StrategyProxy }

func (p *Proxy) Available() error {
	if p.proxyURL == "" {
		return fmt.Errorf("%w: proxy_url is empty", ErrNotConfigured)
	}
	if _, err := url.Parse(p.proxyURL); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return nil
}

func (p *Proxy) Extract(ctx context.Context, pageURL string) (*RawArticle, error) {
	if err := p.Available(); err != nil {
		return nil, err
	}
	raw, err := p.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	raw.Strategy = StrategyProxy
	return raw, nil
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

func metaContent(doc *goquery.Document, property string) string {
	return strings.TrimSpace(doc.Find(`meta[property="` + property + `"]`).AttrOr("content", ""))
}

func metaName(doc *goquery.Document, name string) string {
	return strings.TrimSpace(doc.Find(`meta[name="` + name + `"]`).AttrOr("content", ""))
}

// createTime reads the unix timestamp WeChat embeds as `var ct = "..."`.
func createTime(body []byte) string {
	m := createTimeVar.FindSubmatch(body)
	if m == nil {
		return ""
	}
	sec, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
