package research

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// Hit is a feed item whose title mentions the query.
type Hit struct {
	Feed      string    `json:"feed"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Author    string    `json:"author,omitempty"`
	Published time.Time `json:"published"`
	Score     float64   `json:"score"`
	summary   string
}

// FeedResult is the outcome of probing one feed.
type FeedResult struct {
	Feed     string `json:"feed"`
	Relevant int    `json:"relevant"`
	Error    string `json:"error,omitempty"`
}

const defaultConcurrency = 4

// Prober reads RSS and Atom feeds looking for items about a query.
type Prober struct {
	feeds       []string
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

func NewProber(feeds []string, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		feeds:       feeds,
		timeout:     timeout,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

func (p *Prober) Feeds() []string {
	return p.feeds
}

// Probe checks the feeds concurrently. A feed that cannot be fetched or
// parsed is reported and skipped. Results keep the configured feed order.
func (p *Prober) Probe(ctx context.Context, query string) ([]Hit, []FeedResult) {
	found := make([][]Hit, len(p.feeds))
	results := make([]FeedResult, len(p.feeds))

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(p.concurrency, 1))
	for i, feedURL := range p.feeds {
		wg.Add(1)
		go func(i int, feedURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			hits, err := p.probeFeed(ctx, feedURL, query)
			results[i] = FeedResult{Feed: feedURL, Relevant: len(hits)}
			if err != nil {
				p.logger.Warn("feed skipped", slog.String("feed", feedURL), slog.Any("error", err))
				results[i].Error = err.Error()
				return
			}
			p.logger.Debug("feed probed", slog.String("feed", hostOf(feedURL)), slog.Int("relevant", len(hits)))
			found[i] = hits
		}(i, feedURL)
	}
	wg.Wait()

	var hits []Hit
	for _, f := range found {
		hits = append(hits, f...)
	}
	return hits, results
}

func (p *Prober) probeFeed(ctx context.Context, feedURL, query string) ([]Hit, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	feed, err := gofeed.NewParser().ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	needle := strings.ToLower(query)
	var hits []Hit
	for _, item := range feed.Items {
		if item.Title == "" || !strings.Contains(strings.ToLower(item.Title), needle) {
			continue
		}
		hit := Hit{
			Feed:    feedURL,
			Title:   item.Title,
			Link:    item.Link,
			summary: item.Description,
		}
		if item.Author != nil {
			hit.Author = item.Author.Name
		} else if len(feed.Authors) > 0 {
			hit.Author = feed.Authors[0].Name
		}
		if item.PublishedParsed != nil {
			hit.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			hit.Published = *item.UpdatedParsed
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
