// Package research gathers recent news about a series topic from RSS feeds.
package research

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/julienpequegnot/seriesgen/internal/fallback"
)

const (
	SourceRSS      = "rss"
	SourceFallback = "fallback"

	fallbackNote = "no recent news found; write from existing knowledge"
)

var ErrNothingRelevant = errors.New("no relevant feed items")

// Report is the research outcome handed to outline generation.
type Report struct {
	Query       string       `json:"query"`
	Source      string       `json:"source"`
	Hits        []Hit        `json:"hits"`
	Topics      []string     `json:"topics"`
	Feeds       []FeedResult `json:"feeds"`
	Note        string       `json:"note,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

type Researcher struct {
	prober *Prober
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

// New returns a researcher keeping at most limit hits, best first.
func New(prober *Prober, limit int, logger *slog.Logger) *Researcher {
	return &Researcher{prober: prober, limit: limit, logger: logger, now: time.Now}
}

// Gather probes the feeds and falls back to a knowledge-only report when
// nothing relevant turns up.
func (r *Researcher) Gather(ctx context.Context, query string) (*Report, error) {
	var feeds []FeedResult
	return fallback.Attempt(ctx, "research",
		func() (*Report, error) {
			hits, results := r.prober.Probe(ctx, query)
			feeds = results
			if len(hits) == 0 {
				return nil, ErrNothingRelevant
			}
			return r.report(query, SourceRSS, hits, results), nil
		},
		func() (*Report, error) {
			report := r.report(query, SourceFallback, nil, feeds)
			report.Note = fallbackNote
			return report, nil
		},
	)
}

func (r *Researcher) report(query, source string, hits []Hit, feeds []FeedResult) *Report {
	for i := range hits {
		hits[i].Score = relevance(query, hits[i].Title, hits[i].summary)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Published.After(hits[j].Published)
	})
	if r.limit > 0 && len(hits) > r.limit {
		hits = hits[:r.limit]
	}

	titles := make([]string, len(hits))
	for i, h := range hits {
		titles[i] = h.Title
	}
	if hits == nil {
		hits = []Hit{}
	}
	if feeds == nil {
		feeds = []FeedResult{}
	}

	r.logger.Info("research gathered",
		slog.String("query", query),
		slog.String("source", source),
		slog.Int("hits", len(hits)))

	return &Report{
		Query:       query,
		Source:      source,
		Hits:        hits,
		Topics:      detectTopics(append(titles, query)),
		Feeds:       feeds,
		GeneratedAt: r.now().UTC(),
	}
}
